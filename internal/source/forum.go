package source

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/pricewatch-cli/internal/config"
	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/resilience"
	"github.com/sells-group/pricewatch-cli/internal/vendors"
	"github.com/sells-group/pricewatch-cli/pkg/reddit"
)

const (
	listingPageSize = 100

	// maxNewPages bounds pagination of the chronological listing. Four
	// pages of 100 cover the fallback window on all but the busiest
	// sub-channels.
	maxNewPages = 4
)

// Forum reads the configured sub-channels through the forum API, merges
// their listings, and filters the posts down to scoreable items.
type Forum struct {
	client   reddit.Client
	cfg      config.ForumConfig
	cache    FetchCache
	cacheTTL time.Duration
	retry    resilience.RetryConfig
	breaker  *resilience.CircuitBreaker
	limiter  *rate.Limiter
	dict     *vendors.Dictionary
	matcher  *vendors.Matcher

	nowFunc func() time.Time
}

// NewForum wires a forum fetcher. A nil deps.Cache disables payload caching;
// a nil deps.Dict disables the tier-1 exemption from the engagement floor.
func NewForum(client reddit.Client, cfg config.ForumConfig, deps Deps) *Forum {
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 0.5
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
		retry.OnRetry = resilience.RetryLogger("forum", "listing")
	}
	return &Forum{
		client:   client,
		cfg:      cfg,
		cache:    deps.Cache,
		cacheTTL: cacheTTL,
		retry:    retry,
		breaker:  resilience.NewCircuitBreaker(deps.Circuit),
		limiter:  rate.NewLimiter(rate.Limit(perSec), 1),
		dict:     deps.Dict,
		matcher:  deps.Matcher,
		nowFunc:  time.Now,
	}
}

func (f *Forum) Name() string { return string(model.SourceForum) }

// Fetch pulls every configured sub-channel and returns the merged, filtered
// item set. Individual sub-channel failures degrade the result instead of
// failing it; the error return is reserved for credential rejections,
// cancellation, and every sub-channel failing. On cancellation the items
// gathered so far accompany the error, so a source that hits its deadline
// still contributes a partial result.
func (f *Forum) Fetch(ctx context.Context) ([]model.RawItem, FetchStats, error) {
	stats := FetchStats{Source: f.Name()}
	now := f.nowFunc().UTC()

	var candidates []model.RawItem
	failed := 0
	var lastErr error

	for _, channel := range f.cfg.SubChannels {
		posts, err := f.channelPosts(ctx, channel, &stats)
		if err != nil {
			if ctx.Err() != nil {
				items, window := f.applyWindow(candidates, now)
				stats.Items = len(items)
				stats.WindowHours = window
				return items, stats, eris.Wrapf(err, "forum: fetch r/%s", channel)
			}
			if isAuthError(err) {
				return nil, stats, eris.Wrapf(err, "forum: credentials rejected on r/%s", channel)
			}
			failed++
			lastErr = err
			stats.Failures++
			zap.L().Warn("forum: sub-channel failed",
				zap.String("subreddit", channel),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, f.convert(channel, posts, &stats)...)
	}

	if len(f.cfg.SubChannels) > 0 && failed == len(f.cfg.SubChannels) {
		return nil, stats, eris.Wrap(lastErr, "forum: all sub-channels failed")
	}

	items, window := f.applyWindow(candidates, now)
	stats.Items = len(items)
	stats.WindowHours = window

	zap.L().Info("forum: fetch complete",
		zap.Int("sub_channels", len(f.cfg.SubChannels)),
		zap.Int("items", len(items)),
		zap.Int("discarded", stats.Discarded),
		zap.Int("window_hours", window),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Int("failures", stats.Failures),
	)
	return items, stats, nil
}

// channelPosts returns one sub-channel's merged listing posts, serving them
// from the fetch cache when a fresh entry exists.
func (f *Forum) channelPosts(ctx context.Context, channel string, stats *FetchStats) ([]reddit.Post, error) {
	if f.cache != nil {
		payload, err := f.cache.GetCachedFetch(ctx, f.Name(), channel)
		if err != nil {
			zap.L().Warn("forum: cache lookup failed", zap.String("subreddit", channel), zap.Error(err))
		}
		if len(payload) > 0 {
			var posts []reddit.Post
			if err := json.Unmarshal(payload, &posts); err == nil {
				stats.CacheHits++
				return posts, nil
			}
			zap.L().Warn("forum: dropping unreadable cache entry", zap.String("subreddit", channel))
		}
	}

	posts, err := f.fetchChannel(ctx, channel, stats)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if payload, err := json.Marshal(posts); err == nil {
			if err := f.cache.SetCachedFetch(ctx, f.Name(), channel, payload, f.cacheTTL); err != nil {
				zap.L().Warn("forum: cache write failed", zap.String("subreddit", channel), zap.Error(err))
			}
		}
	}
	return posts, nil
}

// fetchChannel merges the configured listings for one sub-channel. The
// chronological listing paginates until it runs past the fallback window;
// the popularity listings contribute a single page each.
func (f *Forum) fetchChannel(ctx context.Context, channel string, stats *FetchStats) ([]reddit.Post, error) {
	cutoff := f.nowFunc().UTC().Add(-time.Duration(f.fallbackHours()) * time.Hour)

	seen := map[string]bool{}
	var posts []reddit.Post

	for _, listing := range f.listings() {
		after := ""
		pages := 1
		if listing == reddit.SortNew {
			pages = maxNewPages
		}
		for i := 0; i < pages; i++ {
			page, err := f.listingPage(ctx, channel, listing, after, stats)
			if err != nil {
				return nil, err
			}
			for _, p := range page.Posts {
				key := p.Name
				if key == "" {
					key = p.Permalink
				}
				if seen[key] {
					continue
				}
				seen[key] = true
				posts = append(posts, p)
			}
			after = page.After
			if after == "" || len(page.Posts) == 0 {
				break
			}
			if oldest := page.Posts[len(page.Posts)-1].CreatedAt(); oldest.Before(cutoff) {
				break
			}
		}
	}
	return posts, nil
}

// listingPage runs one listing request through the circuit breaker, the
// retry policy, and the rate limiter, in that order.
func (f *Forum) listingPage(ctx context.Context, channel string, sort reddit.Sort, after string, stats *FetchStats) (*reddit.Listing, error) {
	return resilience.ExecuteVal(ctx, f.breaker, func(ctx context.Context) (*reddit.Listing, error) {
		return resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*reddit.Listing, error) {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "forum: rate limiter wait")
			}
			stats.Requests++

			opts := reddit.ListOptions{Limit: listingPageSize, After: after}
			if sort == reddit.SortTop {
				opts.Timeframe = "week"
			}
			page, err := f.client.Posts(ctx, channel, sort, opts)
			if err != nil {
				var apiErr *reddit.APIError
				if errors.As(err, &apiErr) {
					return nil, classifyStatus(err, apiErr.StatusCode)
				}
				return nil, err
			}
			return page, nil
		})
	})
}

// convert turns raw posts into items. Pinned, NSFW and tombstoned posts
// never become items; posts under the engagement floor survive only when a
// tier-1 vendor alias appears in the title.
func (f *Forum) convert(channel string, posts []reddit.Post, stats *FetchStats) []model.RawItem {
	items := make([]model.RawItem, 0, len(posts))
	for _, p := range posts {
		if p.Stickied || p.Over18 {
			stats.Discarded++
			continue
		}
		body := strings.TrimSpace(p.SelfText)
		if body == "[removed]" || body == "[deleted]" {
			stats.Discarded++
			continue
		}
		if p.Ups < f.cfg.MinUpvotes && p.NumComments < f.cfg.MinComments && !f.tier1InTitle(p.Title) {
			stats.Discarded++
			continue
		}

		item := model.RawItem{
			SourceKind: model.SourceForum,
			Subchannel: channel,
			Title:      p.Title,
			Body:       body,
			URL:        postURL(p),
			PostedAt:   p.CreatedAt(),
			Engagement: model.Engagement{Upvotes: p.Ups, Comments: p.NumComments},
		}
		item.ContentHash = model.HashContent(item.Title, item.Body)
		if item.Discardable() {
			stats.Discarded++
			continue
		}
		items = append(items, item)
	}
	return items
}

// applyWindow filters candidates to the primary recency window, widening to
// the fallback window when too few items survive.
func (f *Forum) applyWindow(candidates []model.RawItem, now time.Time) ([]model.RawItem, int) {
	window := f.cfg.WindowHours
	if window <= 0 {
		window = 24
	}
	fallback := f.fallbackHours()
	threshold := f.cfg.FallbackThreshold
	if threshold <= 0 {
		threshold = 20
	}

	items := itemsWithin(candidates, now, window)
	if len(items) >= threshold || fallback <= window {
		return items, window
	}

	widened := itemsWithin(candidates, now, fallback)
	zap.L().Info("forum: widening window",
		zap.Int("primary_hours", window),
		zap.Int("fallback_hours", fallback),
		zap.Int("primary_items", len(items)),
		zap.Int("fallback_items", len(widened)),
	)
	return widened, fallback
}

func (f *Forum) fallbackHours() int {
	if f.cfg.FallbackWindowHours > 0 {
		return f.cfg.FallbackWindowHours
	}
	return 168
}

// tier1InTitle reports whether a tier-1 vendor alias appears in the title,
// which exempts a post from the engagement floor.
func (f *Forum) tier1InTitle(title string) bool {
	if f.matcher == nil || f.dict == nil {
		return false
	}
	for _, v := range f.matcher.Match(title).Vendors {
		if f.dict.Tier(v) == 1 {
			return true
		}
	}
	return false
}

// listings maps the configured listing names onto the client's sorts,
// skipping unknown names with a warning.
func (f *Forum) listings() []reddit.Sort {
	if len(f.cfg.Listings) == 0 {
		return []reddit.Sort{reddit.SortNew, reddit.SortHot, reddit.SortTop, reddit.SortRising}
	}
	sorts := make([]reddit.Sort, 0, len(f.cfg.Listings))
	for _, name := range f.cfg.Listings {
		switch s := reddit.Sort(strings.ToLower(name)); s {
		case reddit.SortNew, reddit.SortHot, reddit.SortTop, reddit.SortRising:
			sorts = append(sorts, s)
		default:
			zap.L().Warn("forum: unknown listing", zap.String("listing", name))
		}
	}
	if len(sorts) == 0 {
		return []reddit.Sort{reddit.SortNew}
	}
	return sorts
}

func itemsWithin(candidates []model.RawItem, now time.Time, hours int) []model.RawItem {
	cutoff := now.Add(-time.Duration(hours) * time.Hour)
	items := make([]model.RawItem, 0, len(candidates))
	for _, it := range candidates {
		if it.PostedAt.Before(cutoff) {
			continue
		}
		items = append(items, it)
	}
	return items
}

// postURL returns the canonical thread URL for a post.
func postURL(p reddit.Post) string {
	if p.Permalink != "" {
		return "https://www.reddit.com" + p.Permalink
	}
	return p.URL
}
