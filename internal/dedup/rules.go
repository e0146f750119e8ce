package dedup

import "github.com/ddanilov/poisk/internal/model"

// MatchInput is everything the decision tables look at for one candidate
// match. Pulling it out of the record keeps every rule a pure predicate.
type MatchInput struct {
	DistanceM       float64
	Similarity      float64
	SameCategory    bool
	NeedsCompletion bool
	Completeness    int
}

// incompleteNearby marks records worth completing instead of duplicating.
func (in MatchInput) incompleteNearby() bool {
	return in.NeedsCompletion && in.Completeness < 60
}

// The rule cascades below are ordered decision tables: the first rule whose
// predicate holds wins. The ordering is part of the contract — in
// particular, the 50m/0.7-similarity rule deliberately outranks the
// 20m/same-category rule for points satisfying both.

type classificationRule struct {
	match func(MatchInput) bool
	kind  model.DuplicationType
}

var classificationRules = []classificationRule{
	{func(in MatchInput) bool { return in.DistanceM <= 10 && in.Similarity > 0.8 }, model.ExactDuplicate},
	{func(in MatchInput) bool { return in.DistanceM <= 50 && in.Similarity > 0.7 }, model.LikelyDuplicate},
	{func(in MatchInput) bool { return in.DistanceM <= 100 && in.Similarity > 0.9 }, model.SameLocationDifferentName},
	{func(in MatchInput) bool { return in.DistanceM <= 20 && in.SameCategory }, model.SameCategoryClose},
	{func(in MatchInput) bool { return in.Similarity > 0.8 && in.DistanceM <= 200 }, model.SimilarNameNearby},
}

// Classify tags a match with its duplication type, first rule wins.
func Classify(in MatchInput) model.DuplicationType {
	for _, r := range classificationRules {
		if r.match(in) {
			return r.kind
		}
	}
	return model.PotentialDuplicate
}

type actionRule struct {
	match  func(MatchInput) bool
	action func(MatchInput) model.RecommendedAction
}

var actionRules = []actionRule{
	{
		match: func(in MatchInput) bool { return in.DistanceM <= 10 && in.Similarity > 0.8 },
		action: func(MatchInput) model.RecommendedAction {
			return model.BlockCreation
		},
	},
	{
		match: func(in MatchInput) bool { return in.DistanceM <= 50 && in.Similarity > 0.7 },
		action: func(in MatchInput) model.RecommendedAction {
			if in.incompleteNearby() {
				return model.SuggestContribution
			}
			return model.WarnUser
		},
	},
	{
		match: func(in MatchInput) bool { return in.Completeness < 40 && in.NeedsCompletion },
		action: func(MatchInput) model.RecommendedAction {
			return model.SuggestContribution
		},
	},
}

// Recommend picks the per-match recommended action, first rule wins.
func Recommend(in MatchInput) model.RecommendedAction {
	for _, r := range actionRules {
		if r.match(in) {
			return r.action(in)
		}
	}
	return model.AllowWithWarning
}

// AggregateRisk folds all matches into the overall risk level, highest
// priority first.
func AggregateRisk(matches []model.DuplicateMatch, inputs []MatchInput) model.RiskLevel {
	if len(matches) == 0 {
		return model.RiskNone
	}

	for _, m := range matches {
		if m.Type == model.ExactDuplicate {
			return model.RiskCritical
		}
	}
	for _, m := range matches {
		if m.Type == model.LikelyDuplicate {
			return model.RiskHigh
		}
	}
	for _, in := range inputs {
		if in.incompleteNearby() {
			return model.RiskMedium
		}
	}
	return model.RiskLow
}

// OverallAction maps the aggregate risk to what the caller should do.
func OverallAction(risk model.RiskLevel) model.OverallAction {
	switch risk {
	case model.RiskCritical:
		return model.ActionBlock
	case model.RiskHigh, model.RiskMedium:
		return model.ActionWarn
	default:
		return model.ActionAllow
	}
}
