// Package source implements the upstream feeds the pipeline ingests: the
// forum listing fetcher and the web-search fetcher. Both honour the same
// contract: requests are rate limited per source, transient failures retry
// with backoff, repeated failures trip a circuit breaker, and hard failures
// surface as errors so the orchestrator can continue with other sources.
package source

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sells-group/pricewatch-cli/internal/config"
	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/resilience"
	"github.com/sells-group/pricewatch-cli/internal/vendors"
)

// Source is one upstream feed of raw items.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.RawItem, FetchStats, error)
}

// FetchStats summarises one fetch pass for run accounting. Requests counts
// upstream calls including retry attempts; Failures counts sub-requests
// (sub-channels, queries) that gave up after retrying.
type FetchStats struct {
	Source    string
	Requests  int
	CacheHits int
	Items     int
	Discarded int
	Failures  int

	// WindowHours is the recency window that produced the item set. The
	// forum fetcher reports the fallback window here when the primary
	// window came up short.
	WindowHours int
}

// FetchCache is the slice of the store the fetchers use to cache raw
// upstream payloads. A nil cache disables caching.
type FetchCache interface {
	GetCachedFetch(ctx context.Context, source, key string) ([]byte, error)
	SetCachedFetch(ctx context.Context, source, key string, payload []byte, ttl time.Duration) error
}

// Deps carries the collaborators shared by the fetchers.
type Deps struct {
	Cache    FetchCache
	CacheTTL time.Duration
	Retry    resilience.RetryConfig
	Circuit  resilience.CircuitBreakerConfig
	Dict     *vendors.Dictionary
	Matcher  *vendors.Matcher
}

// RetryFromConfig converts the configured retry settings into the policy the
// fetchers run with. Unset values keep the package defaults.
func RetryFromConfig(s config.RetrySettings) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if s.MaxAttempts > 0 {
		cfg.MaxAttempts = s.MaxAttempts
	}
	if s.InitialBackoffMS > 0 {
		cfg.InitialBackoff = time.Duration(s.InitialBackoffMS) * time.Millisecond
	}
	if s.MaxBackoffMS > 0 {
		cfg.MaxBackoff = time.Duration(s.MaxBackoffMS) * time.Millisecond
	}
	if s.Multiplier > 0 {
		cfg.Multiplier = s.Multiplier
	}
	if s.JitterFraction > 0 {
		cfg.JitterFraction = s.JitterFraction
	}
	return cfg
}

// CircuitFromConfig converts the configured circuit breaker settings.
func CircuitFromConfig(s config.CircuitSettings) resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig()
	if s.FailureThreshold > 0 {
		cfg.FailureThreshold = s.FailureThreshold
	}
	if s.ResetTimeoutSec > 0 {
		cfg.ResetTimeout = time.Duration(s.ResetTimeoutSec) * time.Second
	}
	return cfg
}

// classifyStatus wraps an upstream API error so the retry layer can tell
// transient from permanent failures by HTTP status.
func classifyStatus(err error, statusCode int) error {
	if resilience.IsTransientHTTPStatus(statusCode) {
		return resilience.NewTransientError(err, statusCode)
	}
	return resilience.NewPermanentError(err, statusCode)
}

// isAuthError reports whether the error is a credentials rejection. One of
// these fails the whole source at once: every later request would bounce the
// same way.
func isAuthError(err error) bool {
	var pe *resilience.PermanentError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden
}
