// Package report turns one invocation's outputs into the typed Report and
// writes its artifact files: the serialised JSON and a self-contained HTML
// rendering of the same data.
package report

import (
	"sort"
	"time"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

// Assemble builds the typed report: insights grouped by priority in severity
// order, the source list ordered by SOURCE_ID, the vendor rollup, and the
// run-stats snapshot. Empty priority groups are omitted; a failed synthesis
// therefore yields a report with no groups, never a fabricated one.
func Assemble(summary string, insights []model.Insight, bindings []model.SourceBinding, rollup []model.VendorMention, stats model.RunStats) *model.Report {
	rep := &model.Report{
		GeneratedAt:        time.Now().UTC(),
		ExecutiveSummary:   summary,
		InsightsByPriority: []model.PriorityGroup{},
		Sources:            make([]model.SourceRef, 0, len(bindings)),
		VendorRollup:       rollup,
		RunStats:           stats,
	}
	if rep.VendorRollup == nil {
		rep.VendorRollup = []model.VendorMention{}
	}

	for _, p := range model.Priorities {
		group := model.PriorityGroup{Priority: p}
		for _, in := range insights {
			if in.Priority == p {
				group.Insights = append(group.Insights, in)
			}
		}
		if len(group.Insights) > 0 {
			rep.InsightsByPriority = append(rep.InsightsByPriority, group)
		}
	}

	for _, b := range bindings {
		rep.Sources = append(rep.Sources, model.SourceRef{
			SourceID:   b.SourceID,
			URL:        b.Item.URL,
			Title:      b.Item.Title,
			SourceKind: b.Item.SourceKind,
			PostedAt:   b.Item.PostedAt,
		})
	}
	sort.Slice(rep.Sources, func(i, j int) bool {
		return rep.Sources[i].SourceID < rep.Sources[j].SourceID
	})

	return rep
}
