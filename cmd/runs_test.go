package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

func ledgerRun(id string, status model.RunStatus, dur time.Duration, stats *model.RunStats) model.Run {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return model.Run{
		ID:        id,
		Status:    status,
		Stats:     stats,
		CreatedAt: created,
		UpdatedAt: created.Add(dur),
	}
}

func TestComputeRunStats(t *testing.T) {
	runs := []model.Run{
		ledgerRun("a", model.RunStatusComplete, 10*time.Second, &model.RunStats{ItemsSelected: 120, LLMTokensUsed: 3000}),
		ledgerRun("b", model.RunStatusComplete, 20*time.Second, &model.RunStats{ItemsSelected: 80, LLMTokensUsed: 1000}),
		ledgerRun("c", model.RunStatusFailed, time.Minute, nil),
		ledgerRun("d", model.RunStatusRunning, 0, nil),
	}

	s := computeRunStats(runs)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Running)
	assert.Equal(t, 200, s.ItemsSelected)
	assert.Equal(t, 4000, s.LLMTokens)
	// Only completed runs count toward duration: (10+20)/2 = 15s.
	assert.InDelta(t, 15.0, s.AvgDurSecs, 0.001)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Equal(t, 0, s.Total)
	assert.Zero(t, s.AvgDurSecs)
}

func TestFormatRunsList(t *testing.T) {
	complete := ledgerRun("0199aabb-ccdd-eeff-0011-223344556677", model.RunStatusComplete, 42*time.Second,
		&model.RunStats{ItemsSelected: 150, LLMTokensUsed: 2500})
	complete.ReportPath = "output/report_20260301T100042Z.json"

	runs := []model.Run{
		complete,
		ledgerRun("f0e1d2c3-0000-1111-2222-333344445555", model.RunStatusFailed, 3*time.Second, nil),
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "0199aabb")
	assert.NotContains(t, out, "0199aabb-ccdd")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "150")
	assert.Contains(t, out, "2500")
	assert.Contains(t, out, "report_20260301T100042Z.json")
	assert.Contains(t, out, "failed")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4, "header + separator + one row per run")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runLedgerStats{
		Total: 5, Complete: 3, Failed: 1, Running: 1,
		ItemsSelected: 600, LLMTokens: 9000, AvgDurSecs: 12.34,
	})
	out := buf.String()

	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "600")
	assert.Contains(t, out, "9000")
	assert.Contains(t, out, "12.3s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "12345678", truncateID("123456789abc"))
	assert.Equal(t, "short", truncateID("short"))
}
