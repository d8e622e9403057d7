package model

// Role is the analyst persona an insight was produced under.
type Role string

const (
	RolePricing     Role = "pricing"
	RoleProcurement Role = "procurement"
	RoleStrategy    Role = "strategy"
)

// ValidRole reports whether s is one of the three recognised personas.
func ValidRole(s string) bool {
	switch Role(s) {
	case RolePricing, RoleProcurement, RoleStrategy:
		return true
	}
	return false
}

// Priority is the derived severity of an insight.
type Priority string

const (
	PriorityAlpha Priority = "alpha"
	PriorityBeta  Priority = "beta"
	PriorityGamma Priority = "gamma"
)

// Priorities lists all priorities from most to least severe.
var Priorities = []Priority{PriorityAlpha, PriorityBeta, PriorityGamma}

// rank orders priorities for comparison; lower is more severe.
func (p Priority) rank() int {
	switch p {
	case PriorityAlpha:
		return 0
	case PriorityBeta:
		return 1
	default:
		return 2
	}
}

// AtLeast reports whether p is as severe or more severe than other.
func (p Priority) AtLeast(other Priority) bool {
	return p.rank() <= other.rank()
}

// Confidence is the post-hoc confidence tier of an insight.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SourceBinding assigns a selected item its invocation-scoped SOURCE_ID.
// IDs are sequential and 1-based; they are never persisted.
type SourceBinding struct {
	SourceID int
	Item     ScoredItem
}

// Insight is one validated LLM-produced finding. Text embeds footnote
// markers of the form [SOURCE_ID:k].
type Insight struct {
	Role           Role       `json:"role"`
	Text           string     `json:"text"`
	Priority       Priority   `json:"priority"`
	Confidence     Confidence `json:"confidence"`
	CitedSourceIDs []int      `json:"cited_source_ids"`
	Redundant      bool       `json:"redundant,omitempty"`
}
