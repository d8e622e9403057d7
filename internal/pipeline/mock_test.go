package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/report"
	"github.com/sells-group/pricewatch-cli/internal/scorer"
	"github.com/sells-group/pricewatch-cli/internal/source"
	"github.com/sells-group/pricewatch-cli/internal/store"
	"github.com/sells-group/pricewatch-cli/internal/summarize"
)

func sourceList(srcs ...source.Source) []source.Source { return srcs }

// --- Source Mock ---

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(ctx context.Context) ([]model.RawItem, source.FetchStats, error) {
	args := m.Called(ctx)
	var items []model.RawItem
	if args.Get(0) != nil {
		items = args.Get(0).([]model.RawItem)
	}
	var stats source.FetchStats
	if args.Get(1) != nil {
		stats = args.Get(1).(source.FetchStats)
	}
	return items, stats, args.Error(2)
}

// --- Scorer Stub ---

// stubScorer scores through a fixed function so tests can steer selection.
type stubScorer struct {
	fn       func(model.RawItem) model.Score
	warnings int
}

func (s *stubScorer) Score(item model.RawItem) model.Score {
	if s.fn != nil {
		return s.fn(item)
	}
	return model.Score{Total: 5}
}

func (s *stubScorer) PatternWarnings() int { return s.warnings }

// --- Summarizer Mock ---

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Synthesize(ctx context.Context, bindings []model.SourceBinding) (*summarize.Result, error) {
	args := m.Called(ctx, bindings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*summarize.Result), args.Error(1)
}

// --- Ledger Mock ---

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) CreateRun(ctx context.Context) (*model.Run, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockLedger) CompleteRun(ctx context.Context, runID string, stats *model.RunStats, reportPath string) error {
	args := m.Called(ctx, runID, stats, reportPath)
	return args.Error(0)
}

func (m *mockLedger) FailRun(ctx context.Context, runID string, runErr string) error {
	args := m.Called(ctx, runID, runErr)
	return args.Error(0)
}

// --- Emitter Mock ---

type mockEmitter struct {
	mock.Mock
}

func (m *mockEmitter) Emit(rep *model.Report) (report.Artifacts, error) {
	args := m.Called(rep)
	if args.Get(0) == nil {
		return report.Artifacts{}, args.Error(1)
	}
	return args.Get(0).(report.Artifacts), args.Error(1)
}

// --- Ensure interface compliance ---
var (
	_ source.Source = (*mockSource)(nil)
	_ Scorer        = (*stubScorer)(nil)
	_ Scorer        = (*scorer.Scorer)(nil)
	_ Summarizer    = (*mockSummarizer)(nil)
	_ Summarizer    = (*summarize.Summarizer)(nil)
	_ Ledger        = (*mockLedger)(nil)
	_ Ledger        = store.Store(nil)
	_ Emitter       = (*mockEmitter)(nil)
	_ Emitter       = (*report.Writer)(nil)
)
