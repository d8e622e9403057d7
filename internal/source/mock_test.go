package source

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/pricewatch-cli/pkg/gsearch"
	"github.com/sells-group/pricewatch-cli/pkg/reddit"
)

// --- Forum Client Mock ---

type mockRedditClient struct {
	mock.Mock
}

func (m *mockRedditClient) Posts(ctx context.Context, subreddit string, sort reddit.Sort, opts reddit.ListOptions) (*reddit.Listing, error) {
	args := m.Called(ctx, subreddit, sort, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reddit.Listing), args.Error(1)
}

// --- Search Client Mock ---

type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) Search(ctx context.Context, query string, opts gsearch.SearchOptions) (*gsearch.Results, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gsearch.Results), args.Error(1)
}

// --- Fetch Cache Mock ---

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetCachedFetch(ctx context.Context, source, key string) ([]byte, error) {
	args := m.Called(ctx, source, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCache) SetCachedFetch(ctx context.Context, source, key string, payload []byte, ttl time.Duration) error {
	args := m.Called(ctx, source, key, payload, ttl)
	return args.Error(0)
}

// --- Ensure interface compliance ---
var (
	_ reddit.Client  = (*mockRedditClient)(nil)
	_ gsearch.Client = (*mockSearchClient)(nil)
	_ FetchCache     = (*mockCache)(nil)
	_ Source         = (*Forum)(nil)
	_ Source         = (*Search)(nil)
)
