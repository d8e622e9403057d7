// Package pipeline orchestrates one pricewatch invocation: fetch the
// configured sources concurrently, collapse duplicates, score and select the
// strongest items, synthesise insights over them, and emit the report
// artifacts. Per-source failures degrade the run; only a run with nothing to
// report fails.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pricewatch-cli/internal/config"
	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/report"
	"github.com/sells-group/pricewatch-cli/internal/source"
	"github.com/sells-group/pricewatch-cli/internal/summarize"
	"github.com/sells-group/pricewatch-cli/internal/vendors"
)

// Scorer stamps raw items with a relevance score.
type Scorer interface {
	Score(item model.RawItem) model.Score
	PatternWarnings() int
}

// Summarizer synthesises role-tagged insights from bound sources.
type Summarizer interface {
	Synthesize(ctx context.Context, bindings []model.SourceBinding) (*summarize.Result, error)
}

// Ledger is the slice of the store the pipeline records run lifecycle in.
type Ledger interface {
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, stats *model.RunStats, reportPath string) error
	FailRun(ctx context.Context, runID string, runErr string) error
}

// Emitter writes an assembled report to its artifact files.
type Emitter interface {
	Emit(rep *model.Report) (report.Artifacts, error)
}

// Pipeline wires the stages of one invocation.
type Pipeline struct {
	cfg        *config.Config
	sources    []source.Source
	scorer     Scorer
	selector   *Selector
	summarizer Summarizer
	dict       *vendors.Dictionary
	ledger     Ledger
	emitter    Emitter
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	sources []source.Source,
	sc Scorer,
	sum Summarizer,
	dict *vendors.Dictionary,
	ledger Ledger,
	emitter Emitter,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		sources:    sources,
		scorer:     sc,
		selector:   NewSelector(cfg.Selector),
		summarizer: sum,
		dict:       dict,
		ledger:     ledger,
		emitter:    emitter,
	}
}

// RunResult is what a finished invocation hands back to the CLI.
type RunResult struct {
	RunID     string
	Report    *model.Report
	Artifacts report.Artifacts
}

// Run executes the full pipeline once under the configured global timeout.
// A flagged LLM failure still produces a report; the error return is
// reserved for ledger setup, total fetch failure, cancellation, and emit
// failures.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()

	if t := p.cfg.Run.GlobalTimeoutSec; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(t)*time.Second)
		defer cancel()
	}

	run, err := p.ledger.CreateRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("pipeline: run started", zap.Int("sources", len(p.sources)))

	stats := &model.RunStats{ItemsFetchedPerSource: map[string]int{}}

	fetched, err := p.fetchAll(ctx, stats, log)
	if err != nil {
		p.failRun(run.ID, err, log)
		return nil, err
	}

	deduped := Dedup(fetched)
	scored := make([]model.ScoredItem, len(deduped))
	for i, it := range deduped {
		scored[i] = model.ScoredItem{RawItem: it, Score: p.scorer.Score(it)}
	}
	selected := p.selector.Select(scored)
	stats.ItemsSelected = len(selected)
	stats.PatternWarnings = p.scorer.PatternWarnings()
	log.Info("pipeline: selection complete",
		zap.Int("fetched", len(fetched)),
		zap.Int("deduped", len(deduped)),
		zap.Int("selected", len(selected)),
	)

	bindings := summarize.Bind(selected)
	res, err := p.summarizer.Synthesize(ctx, bindings)
	if err != nil {
		// Synthesize errors only on cancellation; nothing is emitted.
		p.failRun(run.ID, err, log)
		return nil, err
	}
	stats.LLMTokensUsed = int(res.TokensUsed)
	stats.LLMDropped = res.Dropped
	stats.LLMFailed = res.Failed

	rollup := p.dict.Rollup(selected, p.cfg.Report.TopVendors)
	stats.DurationMS = time.Since(start).Milliseconds()

	rep := report.Assemble(res.ExecutiveSummary, res.Insights, bindings, rollup, *stats)
	artifacts, err := p.emitter.Emit(rep)
	if err != nil {
		err = eris.Wrap(err, "pipeline: emit report")
		p.failRun(run.ID, err, log)
		return nil, err
	}

	if err := p.ledger.CompleteRun(ctx, run.ID, stats, artifacts.JSONPath); err != nil {
		log.Warn("pipeline: record completion failed", zap.Error(err))
	}

	log.Info("pipeline: run complete",
		zap.Int("insights", len(rep.Insights())),
		zap.Int("tokens", stats.LLMTokensUsed),
		zap.Bool("llm_failed", stats.LLMFailed),
		zap.Int64("duration_ms", stats.DurationMS),
		zap.String("report", artifacts.JSONPath),
	)
	return &RunResult{RunID: run.ID, Report: rep, Artifacts: artifacts}, nil
}

// fetchAll runs every source concurrently, each under the per-source
// deadline, and merges what they return. A source that fails or times out
// contributes the items it collected plus a partial_failures entry; the
// error return is reserved for run cancellation and for zero items overall.
func (p *Pipeline) fetchAll(ctx context.Context, stats *model.RunStats, log *zap.Logger) ([]model.RawItem, error) {
	var mu sync.Mutex
	var merged []model.RawItem

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range p.sources {
		g.Go(func() error {
			sctx := gctx
			cancel := context.CancelFunc(func() {})
			if t := p.cfg.Run.SourceTimeoutSec; t > 0 {
				sctx, cancel = context.WithTimeout(gctx, time.Duration(t)*time.Second)
			}
			defer cancel()

			items, fstats, err := src.Fetch(sctx)
			if err != nil && gctx.Err() != nil {
				// The whole run is cancelled; partial results are discarded.
				return eris.Wrapf(err, "pipeline: fetch %s", src.Name())
			}

			mu.Lock()
			defer mu.Unlock()
			stats.ItemsFetchedPerSource[src.Name()] = len(items)
			merged = append(merged, items...)
			if err != nil {
				stats.PartialFailures = append(stats.PartialFailures, model.SourceFailure{
					Source: src.Name(),
					Error:  err.Error(),
				})
				log.Warn("pipeline: source degraded",
					zap.String("source", src.Name()),
					zap.Int("kept_items", len(items)),
					zap.Error(err),
				)
				return nil
			}
			log.Debug("pipeline: source complete",
				zap.String("source", src.Name()),
				zap.Int("items", len(items)),
				zap.Int("requests", fstats.Requests),
				zap.Int("cache_hits", fstats.CacheHits),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(merged) == 0 {
		return nil, ErrTotalFetchFailure
	}
	return merged, nil
}

// failRun records the failure under a fresh context so a cancelled run can
// still write its ledger row.
func (p *Pipeline) failRun(runID string, runErr error, log *zap.Logger) {
	log.Error("pipeline: run failed", zap.Error(runErr))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.ledger.FailRun(ctx, runID, runErr.Error()); err != nil {
		log.Warn("pipeline: record failure failed", zap.Error(err))
	}
}
