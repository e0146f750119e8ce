package dedup

import (
	"testing"

	"github.com/ddanilov/poisk/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   MatchInput
		want model.DuplicationType
	}{
		{"exact", MatchInput{DistanceM: 5, Similarity: 0.95}, model.ExactDuplicate},
		{"exact at 10m boundary", MatchInput{DistanceM: 10, Similarity: 0.81}, model.ExactDuplicate},
		{"likely", MatchInput{DistanceM: 30, Similarity: 0.75}, model.LikelyDuplicate},
		{"likely at 50m boundary", MatchInput{DistanceM: 50, Similarity: 0.71}, model.LikelyDuplicate},
		{"same location different name", MatchInput{DistanceM: 80, Similarity: 0.95}, model.SameLocationDifferentName},
		{"same location at 100m boundary", MatchInput{DistanceM: 100, Similarity: 0.91}, model.SameLocationDifferentName},
		{"same category close", MatchInput{DistanceM: 15, Similarity: 0.2, SameCategory: true}, model.SameCategoryClose},
		{"same category at 20m boundary", MatchInput{DistanceM: 20, Similarity: 0.2, SameCategory: true}, model.SameCategoryClose},
		{"similar name nearby", MatchInput{DistanceM: 150, Similarity: 0.85}, model.SimilarNameNearby},
		{"fallback", MatchInput{DistanceM: 90, Similarity: 0.3}, model.PotentialDuplicate},

		// 50m/0.7 outranks 20m/same-category for points satisfying both.
		{"rule order", MatchInput{DistanceM: 15, Similarity: 0.75, SameCategory: true}, model.LikelyDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%+v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassify_ThresholdsExclusiveOnSimilarity(t *testing.T) {
	// Distance comparisons are inclusive; similarity comparisons are strict.
	in := MatchInput{DistanceM: 10, Similarity: 0.8}
	if got := Classify(in); got == model.ExactDuplicate {
		t.Errorf("Similarity exactly 0.8 must not classify exact_duplicate, got %s", got)
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name string
		in   MatchInput
		want model.RecommendedAction
	}{
		{"block", MatchInput{DistanceM: 5, Similarity: 0.9}, model.BlockCreation},
		{"block at boundary", MatchInput{DistanceM: 10, Similarity: 0.81}, model.BlockCreation},
		{
			"suggest contribution for incomplete likely duplicate",
			MatchInput{DistanceM: 40, Similarity: 0.75, NeedsCompletion: true, Completeness: 50},
			model.SuggestContribution,
		},
		{
			"warn for complete likely duplicate",
			MatchInput{DistanceM: 40, Similarity: 0.75, Completeness: 90},
			model.WarnUser,
		},
		{
			"suggest contribution for very incomplete record",
			MatchInput{DistanceM: 90, Similarity: 0.2, NeedsCompletion: true, Completeness: 30},
			model.SuggestContribution,
		},
		{
			"incomplete but not flagged",
			MatchInput{DistanceM: 90, Similarity: 0.2, Completeness: 30},
			model.AllowWithWarning,
		},
		{"allow", MatchInput{DistanceM: 90, Similarity: 0.4, Completeness: 80}, model.AllowWithWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recommend(tt.in); got != tt.want {
				t.Errorf("Recommend(%+v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestAggregateRisk(t *testing.T) {
	mk := func(types ...model.DuplicationType) ([]model.DuplicateMatch, []MatchInput) {
		var m []model.DuplicateMatch
		var in []MatchInput
		for _, ty := range types {
			m = append(m, model.DuplicateMatch{Type: ty})
			in = append(in, MatchInput{Completeness: 100})
		}
		return m, in
	}

	if got := AggregateRisk(nil, nil); got != model.RiskNone {
		t.Errorf("Expected none for zero matches, got %s", got)
	}

	m, in := mk(model.PotentialDuplicate, model.ExactDuplicate)
	if got := AggregateRisk(m, in); got != model.RiskCritical {
		t.Errorf("Expected critical when any exact duplicate present, got %s", got)
	}

	m, in = mk(model.PotentialDuplicate, model.LikelyDuplicate)
	if got := AggregateRisk(m, in); got != model.RiskHigh {
		t.Errorf("Expected high for likely duplicate, got %s", got)
	}

	m, _ = mk(model.PotentialDuplicate)
	in = []MatchInput{{NeedsCompletion: true, Completeness: 40}}
	if got := AggregateRisk(m, in); got != model.RiskMedium {
		t.Errorf("Expected medium for incomplete nearby match, got %s", got)
	}

	m, in = mk(model.PotentialDuplicate)
	if got := AggregateRisk(m, in); got != model.RiskLow {
		t.Errorf("Expected low for remaining matches, got %s", got)
	}
}

func TestOverallAction(t *testing.T) {
	tests := []struct {
		risk model.RiskLevel
		want model.OverallAction
	}{
		{model.RiskCritical, model.ActionBlock},
		{model.RiskHigh, model.ActionWarn},
		{model.RiskMedium, model.ActionWarn},
		{model.RiskLow, model.ActionAllow},
		{model.RiskNone, model.ActionAllow},
	}
	for _, tt := range tests {
		if got := OverallAction(tt.risk); got != tt.want {
			t.Errorf("OverallAction(%s) = %s, want %s", tt.risk, got, tt.want)
		}
	}
}
