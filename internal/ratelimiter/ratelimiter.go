package ratelimiter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"gitlab.com/gitlab-org/tiny-pages/internal/lru"
	"gitlab.com/gitlab-org/tiny-pages/metrics"
)

const (
	// DefaultSourceIPLimitPerSecond is the number of tokens added to each
	// source IP bucket every second
	DefaultSourceIPLimitPerSecond = 20.0
	// DefaultSourceIPBurstSize is the size of each source IP bucket
	DefaultSourceIPBurstSize = 100

	defaultSourceIPItems              = 5000
	defaultSourceIPExpirationInterval = time.Minute
)

// Option function to configure a RateLimiter
type Option func(*RateLimiter)

// RateLimiter keeps one token bucket per source IP in an LRU cache
type RateLimiter struct {
	now                    func() time.Time
	sourceIPLimitPerSecond float64
	sourceIPBurstSize      int
	sourceIPBlockedCount   prometheus.Counter
	sourceIPCache          *lru.Cache
}

// New creates a new RateLimiter with default values that can be configured via Option functions
func New(opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		now:                    time.Now,
		sourceIPLimitPerSecond: DefaultSourceIPLimitPerSecond,
		sourceIPBurstSize:      DefaultSourceIPBurstSize,
		sourceIPBlockedCount:   metrics.RateLimitSourceIPBlockedCount,
		sourceIPCache: lru.New(
			"source_ip",
			defaultSourceIPItems,
			defaultSourceIPExpirationInterval,
			metrics.RateLimitSourceIPCachedEntries,
			metrics.RateLimitSourceIPCacheRequests,
		),
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

// WithNow replaces the RateLimiter now function
func WithNow(now func() time.Time) Option {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// WithSourceIPLimitPerSecond configures the per source IP refill rate
func WithSourceIPLimitPerSecond(limit float64) Option {
	return func(rl *RateLimiter) {
		rl.sourceIPLimitPerSecond = limit
	}
}

// WithSourceIPBurstSize configures the per source IP bucket size
func WithSourceIPBurstSize(burst int) Option {
	return func(rl *RateLimiter) {
		rl.sourceIPBurstSize = burst
	}
}

// WithBlockedCountMetric replaces the counter of rejected requests
func WithBlockedCountMetric(c prometheus.Counter) Option {
	return func(rl *RateLimiter) {
		rl.sourceIPBlockedCount = c
	}
}

func (rl *RateLimiter) getSourceIPLimiter(sourceIP string) *rate.Limiter {
	limiter := rl.sourceIPCache.GetOrCreate(sourceIP, func() interface{} {
		return rate.NewLimiter(rate.Limit(rl.sourceIPLimitPerSecond), rl.sourceIPBurstSize)
	})

	return limiter.(*rate.Limiter)
}

// SourceIPAllowed reports whether sourceIP may perform one more request now
func (rl *RateLimiter) SourceIPAllowed(sourceIP string) bool {
	return rl.getSourceIPLimiter(sourceIP).AllowN(rl.now(), 1)
}
