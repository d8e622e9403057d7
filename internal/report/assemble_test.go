package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

func binding(id int, url, title string) model.SourceBinding {
	return model.SourceBinding{
		SourceID: id,
		Item: model.ScoredItem{
			RawItem: model.RawItem{
				SourceKind: model.SourceForum,
				Title:      title,
				URL:        url,
				PostedAt:   time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}
}

func TestAssembleGroupsByPriority(t *testing.T) {
	insights := []model.Insight{
		{Role: model.RolePricing, Text: "gamma one [SOURCE_ID:1]", Priority: model.PriorityGamma},
		{Role: model.RolePricing, Text: "alpha one [SOURCE_ID:1]", Priority: model.PriorityAlpha},
		{Role: model.RoleStrategy, Text: "alpha two [SOURCE_ID:2]", Priority: model.PriorityAlpha},
	}

	rep := Assemble("summary", insights, nil, nil, model.RunStats{})

	// No beta insights, so only two groups appear, severest first.
	require.Len(t, rep.InsightsByPriority, 2)
	assert.Equal(t, model.PriorityAlpha, rep.InsightsByPriority[0].Priority)
	assert.Equal(t, model.PriorityGamma, rep.InsightsByPriority[1].Priority)

	alpha := rep.InsightsByPriority[0].Insights
	require.Len(t, alpha, 2)
	assert.Equal(t, "alpha one [SOURCE_ID:1]", alpha[0].Text)
	assert.Equal(t, "alpha two [SOURCE_ID:2]", alpha[1].Text)
}

func TestAssembleSourcesOrderedBySourceID(t *testing.T) {
	bindings := []model.SourceBinding{
		binding(3, "https://c.example.com", "c"),
		binding(1, "https://a.example.com", "a"),
		binding(2, "https://b.example.com", "b"),
	}

	rep := Assemble("", nil, bindings, nil, model.RunStats{})

	require.Len(t, rep.Sources, 3)
	for i, ref := range rep.Sources {
		assert.Equal(t, i+1, ref.SourceID)
	}
	assert.Equal(t, "https://a.example.com", rep.Sources[0].URL)
	assert.Equal(t, "a", rep.Sources[0].Title)
	assert.Equal(t, model.SourceForum, rep.Sources[0].SourceKind)
	assert.False(t, rep.Sources[0].PostedAt.IsZero())
}

func TestAssembleEmptyRun(t *testing.T) {
	stats := model.RunStats{
		ItemsFetchedPerSource: map[string]int{"forum": 0},
		LLMFailed:             true,
	}

	rep := Assemble("", nil, nil, nil, stats)

	// Empty slices, not nil, so the JSON artifact serialises them as [].
	assert.NotNil(t, rep.InsightsByPriority)
	assert.Empty(t, rep.InsightsByPriority)
	assert.NotNil(t, rep.Sources)
	assert.NotNil(t, rep.VendorRollup)
	assert.True(t, rep.RunStats.LLMFailed)
	assert.False(t, rep.GeneratedAt.IsZero())
}

func TestAssembleCarriesRollupAndStats(t *testing.T) {
	rollup := []model.VendorMention{{Vendor: "vmware", Mentions: 3, Tier: 1, Weighted: 9.0}}
	stats := model.RunStats{ItemsSelected: 42, LLMTokensUsed: 1234}

	rep := Assemble("quiet week", nil, nil, rollup, stats)

	assert.Equal(t, rollup, rep.VendorRollup)
	assert.Equal(t, 42, rep.RunStats.ItemsSelected)
	assert.Equal(t, 1234, rep.RunStats.LLMTokensUsed)
	assert.Equal(t, "quiet week", rep.ExecutiveSummary)
}
