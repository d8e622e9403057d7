package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pricewatch-cli/internal/patterns"
	"github.com/sells-group/pricewatch-cli/internal/pipeline"
	"github.com/sells-group/pricewatch-cli/internal/report"
	"github.com/sells-group/pricewatch-cli/internal/scorer"
	"github.com/sells-group/pricewatch-cli/internal/source"
	"github.com/sells-group/pricewatch-cli/internal/store"
	"github.com/sells-group/pricewatch-cli/internal/summarize"
	"github.com/sells-group/pricewatch-cli/internal/vendors"
	anthropicpkg "github.com/sells-group/pricewatch-cli/pkg/anthropic"
	"github.com/sells-group/pricewatch-cli/pkg/gsearch"
	"github.com/sells-group/pricewatch-cli/pkg/reddit"
)

// pipelineEnv holds the initialized store and pipeline shared by the run
// command.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// loadDictionary resolves the vendor dictionary (configured file or
// built-in) and compiles its alias matcher. Failures are configuration
// errors.
func loadDictionary() (*vendors.Dictionary, *vendors.Matcher, error) {
	dict := vendors.Default()
	if cfg.VendorDictionaryPath != "" {
		d, err := vendors.LoadFile(cfg.VendorDictionaryPath)
		if err != nil {
			return nil, nil, pipeline.ConfigError(err, "load vendor dictionary")
		}
		dict = d
	}

	matcher, err := vendors.NewMatcher(dict)
	if err != nil {
		return nil, nil, pipeline.ConfigError(err, "compile vendor matcher")
	}
	return dict, matcher, nil
}

// loadPatternSet resolves the keyword table (configured file or built-in)
// and compiles it. An unreadable file is fatal; individual patterns that
// fail to compile only degrade to substring matching.
func loadPatternSet() (*patterns.Set, error) {
	keywords := patterns.DefaultKeywords()
	if cfg.KeywordsPath != "" {
		kw, err := patterns.LoadKeywords(cfg.KeywordsPath)
		if err != nil {
			return nil, pipeline.ConfigError(err, "load keywords")
		}
		keywords = kw
	}
	return patterns.Compile(keywords), nil
}

// initPipeline sets up the store, pattern table, dictionary, API clients,
// and the pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	dict, matcher, err := loadDictionary()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	set, err := loadPatternSet()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if n := set.Warnings(); n > 0 {
		zap.L().Warn("keyword patterns degraded to substring matching", zap.Int("patterns", n))
	}
	if err := scorer.ValidateConfig(cfg.Scoring); err != nil {
		_ = st.Close()
		return nil, pipeline.ConfigError(err, "validate scoring config")
	}

	deps := source.Deps{
		CacheTTL: time.Duration(cfg.Cache.TTLHours) * time.Hour,
		Retry:    source.RetryFromConfig(cfg.Sources.Retry),
		Circuit:  source.CircuitFromConfig(cfg.Sources.Circuit),
		Dict:     dict,
		Matcher:  matcher,
	}
	if cfg.Cache.Enabled {
		deps.Cache = st
	}

	forumClient := reddit.NewClient(cfg.Sources.Forum.ClientID, cfg.Sources.Forum.ClientSecret, cfg.Sources.Forum.UserAgent)
	searchClient := gsearch.NewClient(cfg.Sources.Search.APIKey, cfg.Sources.Search.EngineID)
	sources := []source.Source{
		source.NewForum(forumClient, cfg.Sources.Forum, deps),
		source.NewSearch(searchClient, cfg.Sources.Search, deps),
	}

	sc := scorer.New(cfg.Scoring, set, dict, matcher)
	summarizer := summarize.New(anthropicpkg.NewClient(cfg.LLM.APIKey), cfg.LLM, dict, matcher, cfg.Report.ExcerptMaxChars)
	writer := report.NewWriter(cfg.Report.OutputDir)

	zap.L().Info("pipeline initialized",
		zap.Int("vendors", len(dict.Vendors)),
		zap.Int("sources", len(sources)),
		zap.String("store", cfg.Store.Driver),
	)

	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline.New(cfg, sources, sc, summarizer, dict, st, writer),
	}, nil
}
