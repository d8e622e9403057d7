package model

import "time"

// SourceRef is one entry of the report's source list, ordered by SOURCE_ID.
type SourceRef struct {
	SourceID   int        `json:"source_id"`
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	SourceKind SourceKind `json:"source_kind"`
	PostedAt   time.Time  `json:"posted_at"`
}

// VendorMention is one row of the vendor rollup, ranked by weighted score.
type VendorMention struct {
	Vendor   string  `json:"vendor"`
	Mentions float64 `json:"mentions"`
	Tier     int     `json:"tier"`
	Weighted float64 `json:"weighted"`
}

// SourceFailure records one per-source fetch failure for run stats.
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// RunStats aggregates per-invocation counters for the report.
type RunStats struct {
	ItemsFetchedPerSource map[string]int  `json:"items_fetched_per_source"`
	ItemsSelected         int             `json:"items_selected"`
	LLMTokensUsed         int             `json:"llm_tokens_used"`
	DurationMS            int64           `json:"duration_ms"`
	PartialFailures       []SourceFailure `json:"partial_failures,omitempty"`
	LLMFailed             bool            `json:"llm_failed,omitempty"`
	LLMDropped            int             `json:"llm_dropped,omitempty"`
	PatternWarnings       int             `json:"pattern_warnings,omitempty"`
}

// PriorityGroup keeps insights-by-priority ordered in serialised form.
type PriorityGroup struct {
	Priority Priority  `json:"priority"`
	Insights []Insight `json:"insights"`
}

// Report is the typed output of one pipeline invocation. It is what the
// JSON artifact serialises and what the HTML renderer consumes.
type Report struct {
	GeneratedAt        time.Time       `json:"generated_at"`
	ExecutiveSummary   string          `json:"executive_summary,omitempty"`
	InsightsByPriority []PriorityGroup `json:"insights_by_priority"`
	Sources            []SourceRef     `json:"sources"`
	VendorRollup       []VendorMention `json:"vendor_rollup"`
	RunStats           RunStats        `json:"run_stats"`
}

// Insights flattens the priority groups in order.
func (r *Report) Insights() []Insight {
	var out []Insight
	for _, g := range r.InsightsByPriority {
		out = append(out, g.Insights...)
	}
	return out
}
