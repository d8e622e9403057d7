package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

func citing(urgency model.Urgency, detected ...string) model.ScoredItem {
	return model.ScoredItem{Score: model.Score{Urgency: urgency, VendorsDetected: detected}}
}

func TestCitedIDs(t *testing.T) {
	assert.Equal(t, []int{2, 1}, citedIDs("x [SOURCE_ID:2] y [SOURCE_ID:1] z [SOURCE_ID:2]"), "first-appearance order, duplicates collapsed")
	assert.Equal(t, []int{7}, citedIDs("padded [SOURCE_ID:007]"))
	assert.Nil(t, citedIDs("no markers here"))
	assert.Nil(t, citedIDs("[SOURCE:3] [source_id:4]"), "marker format is exact")
}

func TestHasQuantifier(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"$50 per core", true},
		{"up 8.5% yoy", true},
		{"50 percent increase", true},
		{"3x the prior quote", true},
		{"2 million endpoints", true},
		{"500 seats affected", true},
		{"10,000 licenses at risk", true},
		{"€200 uplift on renewal", true},
		{"no numbers at all", false},
		{"cited [SOURCE_ID:3] only", false},
		{"version 2 shipped", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, hasQuantifier(tt.text))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	a := normalizeText("VMware UP  40% [SOURCE_ID:1]")
	b := normalizeText("vmware up 40% [SOURCE_ID:9]")
	assert.Equal(t, a, b, "markers and casing must not defeat duplicate detection")
	assert.Equal(t, "x", normalizeText("[SOURCE_ID:1] x"))
}

func TestDerivePriority(t *testing.T) {
	tests := []struct {
		name  string
		cited []model.ScoredItem
		want  model.Priority
	}{
		{"high anywhere wins", []model.ScoredItem{citing(model.UrgencyLow), citing(model.UrgencyHigh)}, model.PriorityAlpha},
		{"medium tops low", []model.ScoredItem{citing(model.UrgencyLow), citing(model.UrgencyMedium)}, model.PriorityBeta},
		{"all low", []model.ScoredItem{citing(model.UrgencyLow)}, model.PriorityGamma},
		{"no citations", nil, model.PriorityGamma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, derivePriority(tt.cited))
		})
	}
}

func TestFinalPriority(t *testing.T) {
	tests := []struct {
		name    string
		claimed string
		derived model.Priority
		want    model.Priority
	}{
		{"escalation kept", "alpha", model.PriorityBeta, model.PriorityAlpha},
		{"downgrade rejected", "gamma", model.PriorityAlpha, model.PriorityAlpha},
		{"matching claim kept", "beta", model.PriorityBeta, model.PriorityBeta},
		{"unknown claim ignored", "urgent", model.PriorityBeta, model.PriorityBeta},
		{"empty claim ignored", "", model.PriorityGamma, model.PriorityGamma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, finalPriority(tt.claimed, tt.derived))
		})
	}
}

func TestDeriveConfidence(t *testing.T) {
	s := testSummarizer(t, nil)

	tests := []struct {
		name  string
		cited []model.ScoredItem
		quant bool
		want  model.Confidence
	}{
		{"three cited with quantifier", []model.ScoredItem{citing(model.UrgencyLow), citing(model.UrgencyLow), citing(model.UrgencyLow)}, true, model.ConfidenceHigh},
		{"three cited without quantifier", []model.ScoredItem{citing(model.UrgencyLow), citing(model.UrgencyLow), citing(model.UrgencyLow)}, false, model.ConfidenceMedium},
		{"two cited", []model.ScoredItem{citing(model.UrgencyLow), citing(model.UrgencyLow)}, false, model.ConfidenceMedium},
		{"one cited, quantifier, tier-1 vendor", []model.ScoredItem{citing(model.UrgencyLow, "vmware")}, true, model.ConfidenceMedium},
		{"one cited, quantifier, tier-3 vendor", []model.ScoredItem{citing(model.UrgencyLow, "juniper")}, true, model.ConfidenceLow},
		{"one cited, tier-1 vendor, no quantifier", []model.ScoredItem{citing(model.UrgencyLow, "vmware")}, false, model.ConfidenceLow},
		{"nothing cited", nil, true, model.ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.deriveConfidence(tt.cited, tt.quant))
		})
	}
}

func TestIsRedundant(t *testing.T) {
	s := testSummarizer(t, nil)

	t.Run("quantifier defeats redundancy", func(t *testing.T) {
		assert.False(t, s.isRedundant("renewals up sharply", nil, true))
	})

	t.Run("vendor alias in text defeats redundancy", func(t *testing.T) {
		assert.False(t, s.isRedundant("Renewal guidance for vSphere estates is shifting", nil, false))
	})

	t.Run("vendor on cited source defeats redundancy", func(t *testing.T) {
		cited := []model.ScoredItem{citing(model.UrgencyLow, "cisco")}
		assert.False(t, s.isRedundant("networking chatter picked up", cited, false))
	})

	t.Run("no vendor and no quantifier is redundant", func(t *testing.T) {
		cited := []model.ScoredItem{citing(model.UrgencyLow)}
		assert.True(t, s.isRedundant("general market uncertainty persists", cited, false))
	})
}
