package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

func TestCiteLinks(t *testing.T) {
	out := string(citeLinks("VMware +50% [SOURCE_ID:3] & more [SOURCE_ID:12]"))

	assert.Contains(t, out, `<sup><a class="cite" href="#source-3">[3]</a></sup>`)
	assert.Contains(t, out, `<sup><a class="cite" href="#source-12">[12]</a></sup>`)
	// Text between markers is escaped.
	assert.Contains(t, out, "&amp; more")
	assert.NotContains(t, out, "[SOURCE_ID:")
}

func TestCiteLinksPlainText(t *testing.T) {
	assert.Equal(t, "no markers here", string(citeLinks("no markers here")))
}

func TestRenderHTML(t *testing.T) {
	insights := []model.Insight{
		{
			Role:           model.RolePricing,
			Text:           "VMware raised core licensing 50% [SOURCE_ID:1]",
			Priority:       model.PriorityAlpha,
			Confidence:     model.ConfidenceMedium,
			CitedSourceIDs: []int{1},
		},
		{
			Role:      model.RoleStrategy,
			Text:      "general market chatter [SOURCE_ID:1]",
			Priority:  model.PriorityGamma,
			Redundant: true,
		},
	}
	bindings := []model.SourceBinding{binding(1, "https://example.com/thread", "VMware thread")}
	rollup := []model.VendorMention{{Vendor: "vmware", Mentions: 1, Tier: 1, Weighted: 3.0}}
	stats := model.RunStats{
		ItemsFetchedPerSource: map[string]int{"forum": 10, "search": 5},
		ItemsSelected:         1,
		LLMTokensUsed:         900,
		PartialFailures:       []model.SourceFailure{{Source: "search", Error: "deadline exceeded"}},
	}

	rep := Assemble("One alpha event this run.", insights, bindings, rollup, stats)
	page, err := renderHTML(rep)
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "One alpha event this run.")
	assert.Contains(t, html, "alpha · high")
	assert.Contains(t, html, `href="#source-1"`)
	assert.Contains(t, html, `id="source-1"`)
	assert.Contains(t, html, "https://example.com/thread")
	assert.Contains(t, html, "[REDUNDANT]")
	assert.Contains(t, html, "vmware")
	assert.Contains(t, html, "deadline exceeded")
	assert.NotContains(t, html, "synthesis failed")
}

func TestRenderHTMLFailedSynthesisBanner(t *testing.T) {
	rep := Assemble("", nil, nil, nil, model.RunStats{LLMFailed: true})
	page, err := renderHTML(rep)
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "Insight synthesis failed")
	assert.Contains(t, html, "No insights for this run.")
}

func TestRenderHTMLEscapesSourceText(t *testing.T) {
	bindings := []model.SourceBinding{binding(1, "https://example.com", `<script>alert("x")</script>`)}
	rep := Assemble("", nil, bindings, nil, model.RunStats{})

	page, err := renderHTML(rep)
	require.NoError(t, err)

	html := string(page)
	assert.NotContains(t, html, `<script>alert`)
	assert.Contains(t, html, "&lt;script&gt;")
}
