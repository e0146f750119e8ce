package quality

import "testing"

func TestIsValidTitle(t *testing.T) {
	gate := NewGate(DefaultDenylist())

	tests := []struct {
		title string
		want  bool
	}{
		{"", false},
		{"   ", false},
		{"ab", false},
		{"яр", false},
		{"12345", false},
		{"!!! ---", false},
		{"кафе", false},            // exact generic noun
		{"Кафе", false},            // case-insensitive
		{"  restaurant  ", false},  // trimmed before match
		{"«Кафе»", false},          // quoted generic noun
		{`"shop"`, false},          // ASCII quotes
		{"??? что это", false},     // placeholder marker
		{"Дом...", false},          // placeholder marker
		{"unnamed road", false},    // placeholder marker
		{"Без названия 2", false},  // placeholder marker
		{"неизвестно где", false},  // placeholder marker
		{"Кафе Молоко", true},
		{"Парк Горького", true},
		{"Central Park Cafe", true},
		{"Дом 25", true}, // has letters, not digits-only
	}

	for _, tt := range tests {
		if got := gate.IsValidTitle(tt.title); got != tt.want {
			t.Errorf("IsValidTitle(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestIsValidTitleStrict(t *testing.T) {
	gate := NewGate(DefaultDenylist())

	tests := []struct {
		title string
		want  bool
	}{
		{"cafe restaurant", false}, // every word denylisted
		{"кафе ресторан", false},
		{"магазин кафе точка", false},
		{"Кафе Молоко", true}, // "молоко" is not denylisted
		{"shop around", true},
		{"кафе", false}, // still fails the base check
	}

	for _, tt := range tests {
		if got := gate.IsValidTitleStrict(tt.title); got != tt.want {
			t.Errorf("IsValidTitleStrict(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestSanitizeTitle(t *testing.T) {
	gate := NewGate(DefaultDenylist())

	tests := []struct {
		in   string
		want string
	}{
		{"  Кафе   Молоко  ", "Кафе Молоко"},
		{"a\t\tb\nc", "a b c"},
		{"Central  Park", "Central Park"},
		{"", ""},
		{"ab", ""},       // too short after sanitizing
		{"12 45", ""},    // no letters
		{"  !  ?  ", ""}, // no letters
	}

	for _, tt := range tests {
		if got := gate.SanitizeTitle(tt.in); got != tt.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeTitle_Idempotent(t *testing.T) {
	gate := NewGate(DefaultDenylist())

	inputs := []string{
		"  Кафе   Молоко  ",
		"Central Park",
		"a  b  c",
		"",
		"xy",
	}
	for _, in := range inputs {
		once := gate.SanitizeTitle(in)
		twice := gate.SanitizeTitle(once)
		if once != twice {
			t.Errorf("SanitizeTitle not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNewGate_ExtraWords(t *testing.T) {
	gate := NewGate(append(DefaultDenylist(), "stadion"))

	if gate.IsValidTitle("stadion") {
		t.Error("Expected extra denylist word to be rejected")
	}
	if !gate.IsValidTitle("Stadion Luzhniki") {
		t.Error("Expected multi-word title to pass")
	}
}
