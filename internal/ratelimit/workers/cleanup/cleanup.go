// Package cleanup periodically drops idle rate-limit buckets so the
// in-memory store does not grow with every client IP ever seen.
package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// CleanupResult contains the results of a cleanup run.
type CleanupResult struct {
	BucketsRemoved int
	Duration       time.Duration
}

type BucketSweeper interface {
	Sweep(idle time.Duration, now time.Time) int
}

type Option func(*BucketCleanupService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *BucketCleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *BucketCleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithIdleTTL sets how long a bucket may go unused before it is dropped.
// Defaults to twice the interval.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *BucketCleanupService) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *BucketCleanupService) {
		if now != nil {
			s.now = now
		}
	}
}

type BucketCleanupService struct {
	store    BucketSweeper
	logger   *slog.Logger
	interval time.Duration
	idleTTL  time.Duration
	now      func() time.Time
}

func New(store BucketSweeper, opts ...Option) *BucketCleanupService {
	service := &BucketCleanupService{
		store:    store,
		logger:   slog.Default(),
		interval: 5 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.idleTTL == 0 {
		service.idleTTL = 2 * service.interval
	}
	return service
}

// Start runs cleanup every interval until ctx is cancelled.
func (s *BucketCleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res := s.RunOnce(ctx)
			s.logger.Debug("rate_limit_cleanup_completed",
				"buckets_removed", res.BucketsRemoved,
				"duration_ms", res.Duration.Milliseconds(),
			)
		case <-ctx.Done():
			s.logger.Info("rate limit cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single cleanup run.
func (s *BucketCleanupService) RunOnce(_ context.Context) *CleanupResult {
	start := time.Now()
	removed := s.store.Sweep(s.idleTTL, s.now())
	return &CleanupResult{BucketsRemoved: removed, Duration: time.Since(start)}
}
