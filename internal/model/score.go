package model

// Urgency is the three-level urgency classification of a scored item.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Axis returns the urgency contribution to the revenue-impact model.
func (u Urgency) Axis() float64 {
	switch u {
	case UrgencyHigh:
		return 10
	case UrgencyMedium:
		return 5
	default:
		return 1
	}
}

// RevenueImpact decomposes an item's business impact into five axes,
// each in [0,10].
type RevenueImpact struct {
	Immediate   float64 `json:"immediate"`
	Margin      float64 `json:"margin"`
	Competitive float64 `json:"competitive"`
	Strategic   float64 `json:"strategic"`
	Urgency     float64 `json:"urgency"`
}

// Weighted folds the five axes into the score contribution using the
// fixed axis weights.
func (ri RevenueImpact) Weighted(w RevenueWeights) float64 {
	return w.Immediate*ri.Immediate +
		w.Margin*ri.Margin +
		w.Competitive*ri.Competitive +
		w.Strategic*ri.Strategic +
		w.Urgency*ri.Urgency
}

// RevenueWeights holds the per-axis weights of the revenue-impact model.
type RevenueWeights struct {
	Immediate   float64 `yaml:"immediate" mapstructure:"immediate" json:"immediate"`
	Margin      float64 `yaml:"margin" mapstructure:"margin" json:"margin"`
	Competitive float64 `yaml:"competitive" mapstructure:"competitive" json:"competitive"`
	Strategic   float64 `yaml:"strategic" mapstructure:"strategic" json:"strategic"`
	Urgency     float64 `yaml:"urgency" mapstructure:"urgency" json:"urgency"`
}

// Score is the full scoring result for one item. Totals are reproducible
// from the same item, pattern table, and constants.
type Score struct {
	Total           float64             `json:"total"`
	Urgency         Urgency             `json:"urgency"`
	MatchedTerms    map[string][]string `json:"matched_terms,omitempty"`
	VendorsDetected []string            `json:"vendors_detected,omitempty"`
	RevenueImpact   RevenueImpact       `json:"revenue_impact"`
	// MultipliersApplied records multiplier factors and boost additions
	// for audit, e.g. "msp_context": 1.5, "boost_cloud_security": 4.0.
	MultipliersApplied map[string]float64 `json:"multipliers_applied,omitempty"`
}

// HasVendor reports whether the canonical vendor was detected.
func (s Score) HasVendor(canonical string) bool {
	for _, v := range s.VendorsDetected {
		if v == canonical {
			return true
		}
	}
	return false
}

// Matched reports whether any phrase of the category matched.
func (s Score) Matched(category string) bool {
	return len(s.MatchedTerms[category]) > 0
}

// ScoredItem pairs a raw item with its score.
type ScoredItem struct {
	RawItem
	Score Score `json:"score"`
}
