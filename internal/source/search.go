package source

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/pricewatch-cli/internal/config"
	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/resilience"
	"github.com/sells-group/pricewatch-cli/internal/vendors"
	"github.com/sells-group/pricewatch-cli/pkg/gsearch"
)

// maxVendorQueries caps the tier-1 query expansion so a large dictionary
// cannot multiply the query bill.
const maxVendorQueries = 8

// Search runs the configured web-search queries and converts the hits into
// items. Queries may template {year}; when vendor queries are enabled the
// tier-1 vendors each contribute a pricing query of their own.
type Search struct {
	client   gsearch.Client
	cfg      config.SearchConfig
	cache    FetchCache
	cacheTTL time.Duration
	retry    resilience.RetryConfig
	breaker  *resilience.CircuitBreaker
	limiter  *rate.Limiter
	dict     *vendors.Dictionary

	nowFunc func() time.Time
}

// NewSearch wires a search fetcher. A nil deps.Cache disables payload
// caching; a nil deps.Dict disables vendor query expansion.
func NewSearch(client gsearch.Client, cfg config.SearchConfig, deps Deps) *Search {
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1.0
	}
	cacheTTL := deps.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 6 * time.Hour
	}
	retry := deps.Retry
	if retry.MaxAttempts == 0 {
		retry = resilience.DefaultRetryConfig()
	}
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("search", "query")
	}
	return &Search{
		client:   client,
		cfg:      cfg,
		cache:    deps.Cache,
		cacheTTL: cacheTTL,
		retry:    retry,
		breaker:  resilience.NewCircuitBreaker(deps.Circuit),
		limiter:  rate.NewLimiter(rate.Limit(perSec), 1),
		dict:     deps.Dict,
		nowFunc:  time.Now,
	}
}

func (s *Search) Name() string { return string(model.SourceSearch) }

// Fetch runs every expanded query and returns the merged item set, deduped
// by normalized URL. Per-query failures degrade the result; the error
// return covers credential rejections, cancellation, and all queries
// failing. On cancellation the items gathered so far accompany the error,
// so a source that hits its deadline still contributes a partial result.
func (s *Search) Fetch(ctx context.Context) ([]model.RawItem, FetchStats, error) {
	stats := FetchStats{Source: s.Name()}
	queries := s.expandQueries(s.nowFunc().UTC())

	var items []model.RawItem
	seen := map[string]bool{}
	failed := 0
	var lastErr error

	for _, query := range queries {
		results, err := s.queryResults(ctx, query, &stats)
		if err != nil {
			if ctx.Err() != nil {
				stats.Items = len(items)
				return items, stats, eris.Wrapf(err, "search: query %q", query)
			}
			if isAuthError(err) {
				return nil, stats, eris.Wrapf(err, "search: credentials rejected on %q", query)
			}
			failed++
			lastErr = err
			stats.Failures++
			zap.L().Warn("search: query failed",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		for _, r := range results {
			item, ok := s.toItem(query, r)
			if !ok {
				stats.Discarded++
				continue
			}
			if seen[item.URL] {
				stats.Discarded++
				continue
			}
			seen[item.URL] = true
			items = append(items, item)
		}
	}

	if len(queries) > 0 && failed == len(queries) {
		return nil, stats, eris.Wrap(lastErr, "search: all queries failed")
	}

	stats.Items = len(items)
	zap.L().Info("search: fetch complete",
		zap.Int("queries", len(queries)),
		zap.Int("items", len(items)),
		zap.Int("discarded", stats.Discarded),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Int("failures", stats.Failures),
	)
	return items, stats, nil
}

// expandQueries resolves {year} templates and appends per-vendor pricing
// queries for the tier-1 vendors when enabled.
func (s *Search) expandQueries(now time.Time) []string {
	year := strconv.Itoa(now.Year())
	queries := make([]string, 0, len(s.cfg.Queries))
	for _, q := range s.cfg.Queries {
		queries = append(queries, strings.ReplaceAll(q, "{year}", year))
	}
	if s.cfg.VendorQueries && s.dict != nil {
		tier1 := s.dict.TierVendors(1)
		if len(tier1) > maxVendorQueries {
			tier1 = tier1[:maxVendorQueries]
		}
		for _, v := range tier1 {
			queries = append(queries, v+" pricing announcement")
		}
	}
	return queries
}

// queryResults returns one query's hits, serving them from the fetch cache
// when a fresh entry exists.
func (s *Search) queryResults(ctx context.Context, query string, stats *FetchStats) ([]gsearch.Result, error) {
	key := query
	if s.cfg.DateRestriction != "" {
		key = query + "|" + s.cfg.DateRestriction
	}

	if s.cache != nil {
		payload, err := s.cache.GetCachedFetch(ctx, s.Name(), key)
		if err != nil {
			zap.L().Warn("search: cache lookup failed", zap.String("query", query), zap.Error(err))
		}
		if len(payload) > 0 {
			var results []gsearch.Result
			if err := json.Unmarshal(payload, &results); err == nil {
				stats.CacheHits++
				return results, nil
			}
			zap.L().Warn("search: dropping unreadable cache entry", zap.String("query", query))
		}
	}

	live, err := resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (*gsearch.Results, error) {
		return resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*gsearch.Results, error) {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "search: rate limiter wait")
			}
			stats.Requests++

			res, err := s.client.Search(ctx, query, gsearch.SearchOptions{
				Num:          s.cfg.ResultsPerQuery,
				DateRestrict: s.cfg.DateRestriction,
			})
			if err != nil {
				var apiErr *gsearch.APIError
				if errors.As(err, &apiErr) {
					return nil, classifyStatus(err, apiErr.StatusCode)
				}
				return nil, err
			}
			return res, nil
		})
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(live.Items); err == nil {
			if err := s.cache.SetCachedFetch(ctx, s.Name(), key, payload, s.cacheTTL); err != nil {
				zap.L().Warn("search: cache write failed", zap.String("query", query), zap.Error(err))
			}
		}
	}
	return live.Items, nil
}

// toItem converts one search hit. Hits without a link produce no item, and
// search items carry no engagement, so an empty snippet makes the item
// discardable whatever the title says.
func (s *Search) toItem(query string, r gsearch.Result) (model.RawItem, bool) {
	link := strings.TrimSpace(r.Link)
	if link == "" {
		return model.RawItem{}, false
	}

	item := model.RawItem{
		SourceKind: model.SourceSearch,
		Subchannel: query,
		Title:      stripHTML(r.Title),
		Body:       stripHTML(r.Snippet),
		URL:        model.NormalizeURL(link),
		PostedAt:   r.PublishedAt(),
	}
	item.ContentHash = model.HashContent(item.Title, item.Body)
	if item.Discardable() {
		return model.RawItem{}, false
	}
	return item, true
}

// stripHTML flattens the markup fragments and entities search snippets
// carry into plain text.
func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
