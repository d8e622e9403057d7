package source

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pricewatch-cli/internal/config"
	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/resilience"
	"github.com/sells-group/pricewatch-cli/internal/vendors"
	"github.com/sells-group/pricewatch-cli/pkg/reddit"
)

// testDeps returns deps with backoffs short enough for retry tests.
func testDeps() Deps {
	return Deps{
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
			Multiplier:     2,
		},
	}
}

func testForumConfig(channels ...string) config.ForumConfig {
	return config.ForumConfig{
		SubChannels:         channels,
		Listings:            []string{"new"},
		RatePerSec:          1000,
		MinUpvotes:          3,
		MinComments:         3,
		WindowHours:         24,
		FallbackWindowHours: 168,
		FallbackThreshold:   20,
	}
}

func epochAgo(d time.Duration) float64 {
	return float64(time.Now().Add(-d).Unix())
}

func newListOpts(after string) reddit.ListOptions {
	return reddit.ListOptions{Limit: listingPageSize, After: after}
}

func TestForumFetchMergesListingsAndStampsFields(t *testing.T) {
	client := &mockRedditClient{}

	shared := reddit.Post{
		Name: "t3_aa", Title: "VMware renewal quote tripled", SelfText: "Broadcom pricing",
		Permalink: "/r/sysadmin/comments/aa/", CreatedUTC: epochAgo(2 * time.Hour),
		Ups: 40, NumComments: 12,
	}
	newOnly := reddit.Post{
		Name: "t3_bb", Title: "Microsoft 365 price bump", SelfText: "per-seat cost up",
		Permalink: "/r/sysadmin/comments/bb/", CreatedUTC: epochAgo(3 * time.Hour),
		Ups: 15, NumComments: 4,
	}
	hotOnly := reddit.Post{
		Name: "t3_cc", Title: "Datto contract renewal", SelfText: "MSP tooling costs",
		Permalink: "/r/sysadmin/comments/cc/", CreatedUTC: epochAgo(5 * time.Hour),
		Ups: 80, NumComments: 30,
	}

	client.On("Posts", mock.Anything, "sysadmin", reddit.SortNew, newListOpts("")).
		Return(&reddit.Listing{Posts: []reddit.Post{shared, newOnly}}, nil).Once()
	client.On("Posts", mock.Anything, "sysadmin", reddit.SortHot, newListOpts("")).
		Return(&reddit.Listing{Posts: []reddit.Post{shared, hotOnly}}, nil).Once()

	cfg := testForumConfig("sysadmin")
	cfg.Listings = []string{"new", "hot"}
	cfg.FallbackThreshold = 3

	f := NewForum(client, cfg, testDeps())
	items, stats, err := f.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, 3, stats.Items)
	assert.Equal(t, 2, stats.Requests)
	assert.Equal(t, 24, stats.WindowHours)
	assert.Equal(t, 0, stats.Failures)

	first := items[0]
	assert.Equal(t, model.SourceForum, first.SourceKind)
	assert.Equal(t, "sysadmin", first.Subchannel)
	assert.Equal(t, "VMware renewal quote tripled", first.Title)
	assert.Equal(t, "Broadcom pricing", first.Body)
	assert.Equal(t, "https://www.reddit.com/r/sysadmin/comments/aa/", first.URL)
	assert.Equal(t, model.Engagement{Upvotes: 40, Comments: 12}, first.Engagement)
	assert.NotEmpty(t, first.ContentHash)
	assert.WithinDuration(t, time.Now().Add(-2*time.Hour), first.PostedAt, time.Minute)

	client.AssertExpectations(t)
}

func TestForumPaginatesNewListing(t *testing.T) {
	client := &mockRedditClient{}

	page1 := reddit.Post{
		Name: "t3_p1", Title: "Ingram price list update", SelfText: "distributor margins",
		Permalink: "/r/msp/comments/p1/", CreatedUTC: epochAgo(1 * time.Hour), Ups: 10, NumComments: 5,
	}
	page2 := reddit.Post{
		Name: "t3_p2", Title: "Kaseya bundle pricing", SelfText: "renewal leverage",
		Permalink: "/r/msp/comments/p2/", CreatedUTC: epochAgo(4 * time.Hour), Ups: 9, NumComments: 6,
	}

	client.On("Posts", mock.Anything, "msp", reddit.SortNew, newListOpts("")).
		Return(&reddit.Listing{Posts: []reddit.Post{page1}, After: "t3_p1"}, nil).Once()
	client.On("Posts", mock.Anything, "msp", reddit.SortNew, newListOpts("t3_p1")).
		Return(&reddit.Listing{Posts: []reddit.Post{page2}, After: ""}, nil).Once()

	f := NewForum(client, testForumConfig("msp"), testDeps())
	items, stats, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, items, 2)
	assert.Equal(t, 2, stats.Requests)
	client.AssertExpectations(t)
}

func TestForumStopsPaginationPastFallbackWindow(t *testing.T) {
	client := &mockRedditClient{}

	stale := reddit.Post{
		Name: "t3_old", Title: "Ancient licensing thread", SelfText: "still relevant?",
		Permalink: "/r/msp/comments/old/", CreatedUTC: epochAgo(200 * time.Hour), Ups: 50, NumComments: 8,
	}

	// After claims more pages exist, but the oldest post is already past the
	// fallback window, so pagination must stop.
	client.On("Posts", mock.Anything, "msp", reddit.SortNew, newListOpts("")).
		Return(&reddit.Listing{Posts: []reddit.Post{stale}, After: "t3_old"}, nil).Once()

	f := NewForum(client, testForumConfig("msp"), testDeps())
	_, stats, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Requests)
	client.AssertExpectations(t)
}

func TestForumTopListingRequestsWeekTimeframe(t *testing.T) {
	client := &mockRedditClient{}

	opts := reddit.ListOptions{Limit: listingPageSize, Timeframe: "week"}
	client.On("Posts", mock.Anything, "sysadmin", reddit.SortTop, opts).
		Return(&reddit.Listing{}, nil).Once()

	cfg := testForumConfig("sysadmin")
	cfg.Listings = []string{"top"}

	f := NewForum(client, cfg, testDeps())
	_, _, err := f.Fetch(context.Background())
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestForumWindowFallback(t *testing.T) {
	client := &mockRedditClient{}

	recent := reddit.Post{
		Name: "t3_r", Title: "Cisco Meraki renewal", SelfText: "license wall",
		Permalink: "/r/networking/comments/r/", CreatedUTC: epochAgo(2 * time.Hour), Ups: 5, NumComments: 4,
	}
	older := reddit.Post{
		Name: "t3_o", Title: "Veeam VUL pricing", SelfText: "per-workload math",
		Permalink: "/r/networking/comments/o/", CreatedUTC: epochAgo(72 * time.Hour), Ups: 20, NumComments: 10,
	}

	client.On("Posts", mock.Anything, "networking", reddit.SortNew, newListOpts("")).
		Return(&reddit.Listing{Posts: []reddit.Post{recent, older}}, nil).Once()

	// Threshold of 20 cannot be met by one recent post, so the window widens.
	f := NewForum(client, testForumConfig("networking"), testDeps())
	items, stats, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, items, 2)
	assert.Equal(t, 168, stats.WindowHours)
}

func TestForumPrimaryWindowSufficient(t *testing.T) {
	client := &mockRedditClient{}

	fresh1 := reddit.Post{
		Name: "t3_f1", Title: "SentinelOne quote", SelfText: "per-endpoint ask",
		Permalink: "/r/msp/comments/f1/", CreatedUTC: epochAgo(2 * time.Hour), Ups: 8, NumComments: 3,
	}
	fresh2 := reddit.Post{
		Name: "t3_f2", Title: "Huntress pricing tiers", SelfText: "seat minimums",
		Permalink: "/r/msp/comments/f2/", CreatedUTC: epochAgo(3 * time.Hour), Ups: 6, NumComments: 5,
	}
	stale := reddit.Post{
		Name: "t3_s", Title: "Old Arctic Wolf thread", SelfText: "last quarter numbers",
		Permalink: "/r/msp/comments/s/", CreatedUTC: epochAgo(48 * time.Hour), Ups: 30, NumComments: 12,
	}

	client.On("Posts", mock.Anything, "msp", reddit.SortNew, newListOpts("")).
		Return(&reddit.Listing{Posts: []reddit.Post{fresh1, fresh2, stale}}, nil).Once()

	cfg := testForumConfig("msp")
	cfg.FallbackThreshold = 2

	f := NewForum(client, cfg, testDeps())
	items, stats, err := f.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, 24, stats.WindowHours)
	for _, it := range items {
		assert.NotEqual(t, "Old Arctic Wolf thread", it.Title)
	}
}

func TestForumQualityFilter(t *testing.T) {
	client := &mockRedditClient{}

	posts := []reddit.Post{
		{Name: "t3_ok", Title: "CrowdStrike renewal up 30%", SelfText: "negotiation notes",
			Permalink: "/r/sysadmin/comments/ok/", CreatedUTC: epochAgo(time.Hour), Ups: 10, NumComments: 5},
		{Name: "t3_pin", Title: "Monthly thread", SelfText: "pinned", Stickied: true,
			Permalink: "/r/sysadmin/comments/pin/", CreatedUTC: epochAgo(time.Hour), Ups: 100, NumComments: 50},
		{Name: "t3_nsfw", Title: "Off topic", SelfText: "x", Over18: true,
			Permalink: "/r/sysadmin/comments/nsfw/", CreatedUTC: epochAgo(time.Hour), Ups: 10, NumComments: 5},
		{Name: "t3_rm", Title: "Tombstone", SelfText: "[removed]",
			Permalink: "/r/sysadmin/comments/rm/", CreatedUTC: epochAgo(time.Hour), Ups: 10, NumComments: 5},
		{Name: "t3_low", Title: "Some vendor nobody asked about", SelfText: "quiet post",
			Permalink: "/r/sysadmin/comments/low/", CreatedUTC: epochAgo(time.Hour), Ups: 1, NumComments: 0},
		{Name: "t3_t1", Title: "Microsoft licensing change", SelfText: "E5 uplift",
			Permalink: "/r/sysadmin/comments/t1/", CreatedUTC: epochAgo(time.Hour), Ups: 1, NumComments: 0},
	}

	client.On("Posts", mock.Anything, "sysadmin", reddit.SortNew, newListOpts("")).
		Return(&reddit.Listing{Posts: posts}, nil).Once()

	dict := vendors.Default()
	matcher, err := vendors.NewMatcher(dict)
	require.NoError(t, err)

	deps := testDeps()
	deps.Dict = dict
	deps.Matcher = matcher

	f := NewForum(client, testForumConfig("sysadmin"), deps)
	items, stats, err := f.Fetch(context.Background())
	require.NoError(t, err)

	titles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	// The tier-1 mention survives the engagement floor; everything else
	// below the floor is dropped along with pinned, NSFW and tombstones.
	assert.ElementsMatch(t, []string{"CrowdStrike renewal up 30%", "Microsoft licensing change"}, titles)
	assert.Equal(t, 4, stats.Discarded)
}

func TestForumZeroFloorsDisableQualityFilter(t *testing.T) {
	client := &mockRedditClient{}

	quiet := reddit.Post{
		Name: "t3_q", Title: "Unknown vendor price note", SelfText: "small shop data point",
		Permalink: "/r/msp/comments/q/", CreatedUTC: epochAgo(time.Hour), Ups: 0, NumComments: 1,
	}
	client.On("Posts", mock.Anything, "msp", reddit.SortNew, newListOpts("")).
		Return(&reddit.Listing{Posts: []reddit.Post{quiet}}, nil).Once()

	cfg := testForumConfig("msp")
	cfg.MinUpvotes = 0
	cfg.MinComments = 0

	f := NewForum(client, cfg, testDeps())
	items, _, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestForumChannelFailureContinues(t *testing.T) {
	client := &mockRedditClient{}

	good := reddit.Post{
		Name: "t3_g", Title: "Proofpoint renewal quote", SelfText: "email security spend",
		Permalink: "/r/sysadmin/comments/g/", CreatedUTC: epochAgo(time.Hour), Ups: 12, NumComments: 6,
	}
	client.On("Posts", mock.Anything, "sysadmin", reddit.SortNew, newListOpts("")).
		Return(&reddit.Listing{Posts: []reddit.Post{good}}, nil).Once()
	client.On("Posts", mock.Anything, "gone", reddit.SortNew, newListOpts("")).
		Return(nil, &reddit.APIError{StatusCode: 404, Body: "banned"}).Once()

	f := NewForum(client, testForumConfig("sysadmin", "gone"), testDeps())
	items, stats, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, items, 1)
	assert.Equal(t, 1, stats.Failures)
	client.AssertExpectations(t)
}

func TestForumAllChannelsFailed(t *testing.T) {
	client := &mockRedditClient{}

	client.On("Posts", mock.Anything, mock.Anything, reddit.SortNew, newListOpts("")).
		Return(nil, &reddit.APIError{StatusCode: 404, Body: "banned"}).Twice()

	f := NewForum(client, testForumConfig("a", "b"), testDeps())
	items, _, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all sub-channels failed")
	assert.Nil(t, items)
}

func TestForumAuthFailureAbortsSource(t *testing.T) {
	client := &mockRedditClient{}

	// Only the first channel gets an expectation. A second call would fail
	// the mock, proving the auth error aborts the whole source.
	client.On("Posts", mock.Anything, "first", reddit.SortNew, newListOpts("")).
		Return(nil, &reddit.APIError{StatusCode: 401, Body: "invalid_grant"}).Once()

	f := NewForum(client, testForumConfig("first", "second"), testDeps())
	_, _, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials rejected")
	client.AssertExpectations(t)
}

func TestForumCacheHitSkipsClient(t *testing.T) {
	client := &mockRedditClient{}
	cache := &mockCache{}

	cached := []reddit.Post{{
		Name: "t3_c", Title: "Zscaler renewal thread", SelfText: "ZIA bundle quote",
		Permalink: "/r/networking/comments/c/", CreatedUTC: epochAgo(time.Hour), Ups: 9, NumComments: 4,
	}}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	cache.On("GetCachedFetch", mock.Anything, "forum", "networking").Return(payload, nil).Once()

	deps := testDeps()
	deps.Cache = cache

	f := NewForum(client, testForumConfig("networking"), deps)
	items, stats, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, items, 1)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 0, stats.Requests)
	client.AssertNotCalled(t, "Posts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestForumCacheMissFetchesAndWrites(t *testing.T) {
	client := &mockRedditClient{}
	cache := &mockCache{}

	post := reddit.Post{
		Name: "t3_w", Title: "Fortinet quote jumped", SelfText: "FortiGate renewal",
		Permalink: "/r/networking/comments/w/", CreatedUTC: epochAgo(time.Hour), Ups: 7, NumComments: 3,
	}

	cache.On("GetCachedFetch", mock.Anything, "forum", "networking").Return(nil, nil).Once()
	client.On("Posts", mock.Anything, "networking", reddit.SortNew, newListOpts("")).
		Return(&reddit.Listing{Posts: []reddit.Post{post}}, nil).Once()
	cache.On("SetCachedFetch", mock.Anything, "forum", "networking", mock.Anything, 45*time.Minute).
		Return(nil).Once()

	deps := testDeps()
	deps.Cache = cache
	deps.CacheTTL = 45 * time.Minute

	f := NewForum(client, testForumConfig("networking"), deps)
	items, stats, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, items, 1)
	assert.Equal(t, 0, stats.CacheHits)
	cache.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestForumRetriesTransientStatus(t *testing.T) {
	client := &mockRedditClient{}

	post := reddit.Post{
		Name: "t3_rt", Title: "Sophos MDR pricing", SelfText: "per-user ask",
		Permalink: "/r/msp/comments/rt/", CreatedUTC: epochAgo(time.Hour), Ups: 11, NumComments: 4,
	}

	client.On("Posts", mock.Anything, "msp", reddit.SortNew, newListOpts("")).
		Return(nil, &reddit.APIError{StatusCode: 503, Body: "upstream"}).Twice()
	client.On("Posts", mock.Anything, "msp", reddit.SortNew, newListOpts("")).
		Return(&reddit.Listing{Posts: []reddit.Post{post}}, nil).Once()

	f := NewForum(client, testForumConfig("msp"), testDeps())
	items, stats, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, items, 1)
	assert.Equal(t, 3, stats.Requests)
	assert.Equal(t, 0, stats.Failures)
	client.AssertExpectations(t)
}

func TestForumCircuitBreakerStopsRepeatedFailures(t *testing.T) {
	client := &mockRedditClient{}

	client.On("Posts", mock.Anything, mock.Anything, reddit.SortNew, newListOpts("")).
		Return(nil, &reddit.APIError{StatusCode: 503, Body: "down"}).Times(5)

	deps := testDeps()
	deps.Retry.MaxAttempts = 1
	deps.Circuit = resilience.CircuitBreakerConfig{FailureThreshold: 5, ResetTimeout: time.Minute}

	f := NewForum(client, testForumConfig("a", "b", "c", "d", "e", "f"), deps)
	_, stats, err := f.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all sub-channels failed")

	// The sixth channel fails fast on the open circuit without a request.
	assert.Equal(t, 5, stats.Requests)
	assert.Equal(t, 6, stats.Failures)
	client.AssertExpectations(t)
}

func TestForumCancelledContextAborts(t *testing.T) {
	client := &mockRedditClient{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewForum(client, testForumConfig("sysadmin"), testDeps())
	_, _, err := f.Fetch(ctx)
	require.Error(t, err)
	client.AssertNotCalled(t, "Posts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
