// Package summarize turns the selected scored items into role-tagged,
// source-attributed insights through a single synthesis call to Claude.
// Every insight the package emits cites at least one bound SOURCE_ID; a
// model that stays unusable after one corrective turn yields an empty,
// honestly-flagged result rather than fabricated findings.
package summarize

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pricewatch-cli/internal/config"
	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/vendors"
	"github.com/sells-group/pricewatch-cli/pkg/anthropic"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 2000
	defaultTimeout   = 90 * time.Second
)

// Result is the validated outcome of one synthesis call.
type Result struct {
	Insights         []model.Insight
	ExecutiveSummary string
	TokensUsed       int64
	Dropped          int
	Failed           bool
}

// Summarizer synthesises insights from bound sources.
type Summarizer struct {
	client     anthropic.Client
	cfg        config.LLMConfig
	dict       *vendors.Dictionary
	matcher    *vendors.Matcher
	excerptMax int
}

// New builds a Summarizer. excerptMax bounds per-source excerpt length in
// the prompt; zero or negative means the default.
func New(client anthropic.Client, cfg config.LLMConfig, dict *vendors.Dictionary, matcher *vendors.Matcher, excerptMax int) *Summarizer {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Summarizer{
		client:     client,
		cfg:        cfg,
		dict:       dict,
		matcher:    matcher,
		excerptMax: excerptMax,
	}
}

// Synthesize runs the synthesis call over the bound sources. A reply that
// does not parse earns one corrective turn carrying the bad reply; a failed
// transport call earns one plain repeat. After that the result is flagged
// Failed with no insights. The returned error is non-nil only when ctx is
// done.
func (s *Summarizer) Synthesize(ctx context.Context, bindings []model.SourceBinding) (*Result, error) {
	res := &Result{}
	if len(bindings) == 0 {
		return res, nil
	}

	prompt := buildPrompt(bindings, s.excerptMax)

	text, usage, err := s.call(ctx, []anthropic.Message{{Role: "user", Content: prompt}})
	res.TokensUsed += usage.Total()

	var outcome parseOutcome
	if err == nil {
		if outcome = parseReply(text); outcome.status == parseOK {
			return s.finish(res, outcome.reply, bindings), nil
		}
	}
	if ctx.Err() != nil {
		return nil, eris.Wrap(ctx.Err(), "summarize: synthesis cancelled")
	}

	msgs := []anthropic.Message{{Role: "user", Content: prompt}}
	switch {
	case err != nil:
		zap.L().Warn("summarize: synthesis call failed, retrying", zap.Error(err))
	case outcome.status == parseRepairable:
		zap.L().Warn("summarize: reply did not parse, sending corrective turn", zap.Error(outcome.err))
		msgs = append(msgs,
			anthropic.Message{Role: "assistant", Content: text},
			anthropic.Message{Role: "user", Content: repairPrompt},
		)
	default:
		zap.L().Warn("summarize: empty reply, retrying", zap.Error(outcome.err))
	}

	text, usage, err = s.call(ctx, msgs)
	res.TokensUsed += usage.Total()
	if ctx.Err() != nil {
		return nil, eris.Wrap(ctx.Err(), "summarize: synthesis cancelled")
	}
	if err != nil {
		zap.L().Error("summarize: synthesis failed after retry", zap.Error(err))
		res.Failed = true
		return res, nil
	}
	if outcome = parseReply(text); outcome.status != parseOK {
		zap.L().Error("summarize: reply unusable after corrective turn", zap.Error(outcome.err))
		res.Failed = true
		return res, nil
	}
	return s.finish(res, outcome.reply, bindings), nil
}

// finish validates the parsed reply into the result.
func (s *Summarizer) finish(res *Result, reply llmReply, bindings []model.SourceBinding) *Result {
	res.Insights, res.Dropped = s.validate(reply, bindings)
	res.ExecutiveSummary = strings.TrimSpace(reply.ExecutiveSummary)

	zap.L().Info("summarize: synthesis complete",
		zap.Int("insights", len(res.Insights)),
		zap.Int("dropped", res.Dropped),
		zap.Int64("tokens", res.TokensUsed))
	return res
}

// call sends one Messages request under the configured timeout and returns
// the concatenated reply text.
func (s *Summarizer) call(ctx context.Context, msgs []anthropic.Message) (string, anthropic.TokenUsage, error) {
	timeout := time.Duration(s.cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	temperature := s.cfg.Temperature
	resp, err := s.client.CreateMessage(cctx, anthropic.MessageRequest{
		Model:       s.cfg.Model,
		MaxTokens:   int64(s.cfg.MaxTokens),
		System:      []anthropic.SystemBlock{{Text: synthesisSystem}},
		Messages:    msgs,
		Temperature: &temperature,
	})
	if err != nil {
		return "", anthropic.TokenUsage{}, eris.Wrap(err, "summarize: create message")
	}

	resp.Usage.LogCost(s.cfg.Model, "synthesis")
	return extractText(resp), resp.Usage, nil
}
