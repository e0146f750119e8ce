package model

// DuplicationType classifies a single near-duplicate match.
type DuplicationType string

const (
	ExactDuplicate            DuplicationType = "exact_duplicate"
	LikelyDuplicate           DuplicationType = "likely_duplicate"
	SameLocationDifferentName DuplicationType = "same_location_different_name"
	SameCategoryClose         DuplicationType = "same_category_close"
	SimilarNameNearby         DuplicationType = "similar_name_nearby"
	PotentialDuplicate        DuplicationType = "potential_duplicate"
)

// RecommendedAction is the per-match suggestion to the caller.
type RecommendedAction string

const (
	BlockCreation       RecommendedAction = "block_creation"
	SuggestContribution RecommendedAction = "suggest_contribution"
	WarnUser            RecommendedAction = "warn_user"
	AllowWithWarning    RecommendedAction = "allow_with_warning"
)

// RiskLevel is the aggregate duplication severity over all matches.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// OverallAction maps the aggregate risk to what the caller should do.
type OverallAction string

const (
	ActionBlock OverallAction = "block"
	ActionWarn  OverallAction = "warn"
	ActionAllow OverallAction = "allow"
)

// DuplicateMatch pairs an existing catalog record with the evidence that it
// may duplicate the proposed point.
type DuplicateMatch struct {
	Record     CatalogRecord     `json:"record"`
	DistanceM  float64           `json:"distance_m"`
	Similarity float64           `json:"similarity"` // 0-1 normalized Levenshtein
	Type       DuplicationType   `json:"type"`
	Action     RecommendedAction `json:"action"`
}

// Alternative suggests an existing record the caller could reuse or complete
// instead of creating a new one.
type Alternative struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	DistanceM float64 `json:"distance_m"`
	Action    string  `json:"action"` // "use_existing" or "contribute"
}

// DuplicationReport is the aggregate outcome of a duplicate check.
type DuplicationReport struct {
	Risk                 RiskLevel        `json:"risk"`
	CanProceed           bool             `json:"can_proceed"`
	RequiresConfirmation bool             `json:"requires_confirmation"`
	Action               OverallAction    `json:"action"`
	Message              string           `json:"message"`
	Matches              []DuplicateMatch `json:"matches,omitempty"`
	Alternatives         []Alternative    `json:"alternatives,omitempty"`
}
