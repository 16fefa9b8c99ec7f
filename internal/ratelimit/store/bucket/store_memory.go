// Package bucket keeps one token bucket per (class, key) in memory.
package bucket

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"storefront/internal/ratelimit/models"
)

// InMemoryBucketStore holds token buckets keyed by class and client key.
// State is per process; a restart forgets all buckets.
type InMemoryBucketStore struct {
	mu      sync.Mutex
	buckets map[string]*entry
}

type entry struct {
	limiter    *rate.Limiter
	policy     models.Policy
	lastAccess time.Time
}

// NewInMemoryBucketStore creates a new in-memory bucket store.
func NewInMemoryBucketStore() *InMemoryBucketStore {
	return &InMemoryBucketStore{
		buckets: make(map[string]*entry),
	}
}

func bucketKey(class models.EndpointClass, key string) string {
	return string(class) + ":" + key
}

// Allow consumes one token for key at now. A rejected request consumes
// nothing.
func (s *InMemoryBucketStore) Allow(class models.EndpointClass, key string, policy models.Policy, now time.Time) *models.RateLimitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := bucketKey(class, key)
	e, ok := s.buckets[k]
	if !ok || e.policy != policy {
		e = &entry{
			limiter: rate.NewLimiter(policy.Limit(), policy.Burst),
			policy:  policy,
		}
		s.buckets[k] = e
	}
	e.lastAccess = now

	result := &models.RateLimitResult{Limit: policy.Burst}
	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		result.RetryAfter = int(math.Ceil(60.0 / float64(policy.PerMinute)))
		result.ResetAt = now.Add(time.Duration(result.RetryAfter) * time.Second)
		return result
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		result.RetryAfter = max(1, int(math.Ceil(delay.Seconds())))
		result.ResetAt = now.Add(delay)
		return result
	}

	tokens := e.limiter.TokensAt(now)
	result.Allowed = true
	result.Remaining = max(0, int(math.Floor(tokens)))
	missing := float64(policy.Burst) - tokens
	result.ResetAt = now.Add(time.Duration(missing / float64(policy.Limit()) * float64(time.Second)))
	return result
}

// Sweep drops buckets idle for longer than idle and returns how many were
// removed.
func (s *InMemoryBucketStore) Sweep(idle time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.buckets {
		if now.Sub(e.lastAccess) > idle {
			delete(s.buckets, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked buckets.
func (s *InMemoryBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
