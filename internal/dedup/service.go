// Package dedup decides whether a proposed point duplicates something
// already stored, combining geodesic proximity and title similarity into a
// risk classification and recommended action.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ddanilov/poisk/internal/catalog"
	"github.com/ddanilov/poisk/internal/geo"
	"github.com/ddanilov/poisk/internal/model"
	"github.com/ddanilov/poisk/internal/text"
)

// ErrCheckFailed reports that the catalog was unavailable during a duplicate
// search. Callers must abort the create flow: a failed check never means
// "no duplicates".
var ErrCheckFailed = errors.New("dedup: duplicate check failed")

// DefaultRadiusM is the search radius when none is configured.
const DefaultRadiusM = 100.0

const maxAlternatives = 3

// Service runs read-only duplicate checks against a catalog store. Safe for
// concurrent use as long as the store supports concurrent reads.
type Service struct {
	store   catalog.Store
	radiusM float64
}

// NewService creates a duplicate-detection service. radiusM <= 0 selects
// DefaultRadiusM.
func NewService(store catalog.Store, radiusM float64) *Service {
	if radiusM <= 0 {
		radiusM = DefaultRadiusM
	}
	return &Service{store: store, radiusM: radiusM}
}

// Check searches for near-duplicates of the proposed point and produces a
// risk report. excludeID (when non-zero) drops a known record from
// consideration, for edit flows checking against everything but themselves.
func (s *Service) Check(ctx context.Context, lat, lng float64, title, category string, excludeID int64) (*model.DuplicationReport, error) {
	// Cheap spatial pre-filter; the haversine pass below is the real test.
	rows, err := s.store.QueryNear(ctx, catalog.NearQuery{
		Lat:         lat,
		Lng:         lng,
		Rect:        geo.SearchRect(lat, lng, s.radiusM),
		TitleFilter: title,
		ExcludeID:   excludeID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	var matches []model.DuplicateMatch
	var inputs []MatchInput
	for _, row := range rows {
		if row.DistanceM > s.radiusM {
			continue
		}

		in := MatchInput{
			DistanceM:       row.DistanceM,
			Similarity:      text.Similarity(title, row.Record.Title),
			SameCategory:    category != "" && row.Record.Category == category,
			NeedsCompletion: row.Record.NeedsCompletion,
			Completeness:    row.Record.Completeness,
		}
		matches = append(matches, model.DuplicateMatch{
			Record:     row.Record,
			DistanceM:  row.DistanceM,
			Similarity: in.Similarity,
			Type:       Classify(in),
			Action:     Recommend(in),
		})
		inputs = append(inputs, in)
	}

	sortByDistance(matches, inputs)

	risk := AggregateRisk(matches, inputs)
	report := &model.DuplicationReport{
		Risk:                 risk,
		CanProceed:           risk != model.RiskCritical,
		RequiresConfirmation: risk == model.RiskHigh,
		Action:               OverallAction(risk),
		Message:              riskMessage(risk, len(matches)),
		Matches:              matches,
		Alternatives:         alternatives(matches),
	}
	return report, nil
}

func sortByDistance(matches []model.DuplicateMatch, inputs []MatchInput) {
	idx := make([]int, len(matches))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return matches[idx[a]].DistanceM < matches[idx[b]].DistanceM
	})

	m := make([]model.DuplicateMatch, len(matches))
	in := make([]MatchInput, len(inputs))
	for i, j := range idx {
		m[i] = matches[j]
		in[i] = inputs[j]
	}
	copy(matches, m)
	copy(inputs, in)
}

func alternatives(matches []model.DuplicateMatch) []model.Alternative {
	var out []model.Alternative
	for _, m := range matches {
		if len(out) == maxAlternatives {
			break
		}
		action := "use_existing"
		if m.Action == model.SuggestContribution {
			action = "contribute"
		}
		out = append(out, model.Alternative{
			ID:        m.Record.ID,
			Title:     m.Record.Title,
			DistanceM: m.DistanceM,
			Action:    action,
		})
	}
	return out
}

func riskMessage(risk model.RiskLevel, n int) string {
	switch risk {
	case model.RiskCritical:
		return "An identical object already exists at this location; creation is blocked."
	case model.RiskHigh:
		return fmt.Sprintf("Found %d likely duplicate(s) nearby; please confirm before creating.", n)
	case model.RiskMedium:
		return fmt.Sprintf("Found %d nearby object(s) that may need completion; consider contributing instead.", n)
	case model.RiskLow:
		return fmt.Sprintf("Found %d nearby object(s) with similar names; review before creating.", n)
	default:
		return "No duplicates found nearby."
	}
}
