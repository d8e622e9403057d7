package store

import (
	"context"
	"time"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the run ledger and the
// source fetch cache.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, stats *model.RunStats, reportPath string) error
	FailRun(ctx context.Context, runID string, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Fetch cache
	GetCachedFetch(ctx context.Context, source, key string) ([]byte, error)
	SetCachedFetch(ctx context.Context, source, key string, payload []byte, ttl time.Duration) error
	DeleteExpiredFetches(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
