// Package quality filters candidate titles. The denylist approach is a
// tunable heuristic, not a correctness guarantee: it is built for catalogs
// with mixed Russian/English naming and should be extended through
// configuration for other locales.
package quality

import (
	"strings"
	"unicode"
)

// placeholderMarkers appear in auto-generated or abandoned titles. A title
// containing any of them is rejected outright.
var placeholderMarkers = []string{
	"???",
	"...",
	"unnamed",
	"без названия",
	"неизвестно",
	"название отсутствует",
}

// quoteRunes are stripped when checking whether a quoted title is just a
// generic noun in disguise («Кафе», "Shop").
const quoteRunes = `"'«»“”‘’`

// DefaultDenylist returns the built-in set of generic nouns that are
// meaningless as standalone titles.
func DefaultDenylist() []string {
	return []string{
		// English
		"shop", "cafe", "restaurant", "hotel", "park", "square",
		"street", "building", "object", "place", "point", "unnamed",
		// Russian
		"магазин", "кафе", "ресторан", "отель", "гостиница", "парк",
		"площадь", "улица", "здание", "объект", "место", "точка",
		"без названия",
	}
}

// Gate validates and sanitizes candidate titles against a denylist of
// generic nouns.
type Gate struct {
	denylist map[string]bool
}

// NewGate creates a gate from the given denylist words. Words are matched
// lowercased and trimmed. Use DefaultDenylist for the standard set.
func NewGate(denylist []string) *Gate {
	m := make(map[string]bool, len(denylist))
	for _, w := range denylist {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m[w] = true
		}
	}
	return &Gate{denylist: m}
}

// IsValidTitle reports whether the title is usable as a display name.
// Rejects empty/short/digit-only titles, titles without a single Latin or
// Cyrillic letter, exact denylist matches (quoted or not) and titles
// carrying placeholder markers.
func (g *Gate) IsValidTitle(title string) bool {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return false
	}
	if len([]rune(trimmed)) < 3 {
		return false
	}
	if isDigitsOnly(trimmed) {
		return false
	}
	if !hasLetter(trimmed) {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}

	if g.denylist[lower] {
		return false
	}
	// «Кафе» is still just a cafe.
	if unquoted := strings.TrimFunc(lower, isQuoteRune); unquoted != lower && g.denylist[strings.TrimSpace(unquoted)] {
		return false
	}

	return true
}

// IsValidTitleStrict is the ingestion-time variant: on top of IsValidTitle
// it rejects titles whose every word is individually denylisted, catching
// "cafe restaurant"-style combinations.
func (g *Gate) IsValidTitleStrict(title string) bool {
	if !g.IsValidTitle(title) {
		return false
	}

	words := strings.Fields(strings.ToLower(strings.TrimSpace(title)))
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !g.denylist[strings.TrimFunc(w, isQuoteRune)] {
			return true
		}
	}
	return false
}

// SanitizeTitle trims the title and collapses internal whitespace runs to
// single spaces, then re-applies the minimum-length and letter-presence
// checks. Returns "" when the result is still unusable; callers treat an
// empty result as rejection. Idempotent.
func (g *Gate) SanitizeTitle(title string) string {
	collapsed := strings.Join(strings.Fields(title), " ")

	if len([]rune(collapsed)) < 3 {
		return ""
	}
	if !hasLetter(collapsed) {
		return ""
	}

	return collapsed
}

func isDigitsOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Latin, r) || unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

func isQuoteRune(r rune) bool {
	return strings.ContainsRune(quoteRunes, r)
}
