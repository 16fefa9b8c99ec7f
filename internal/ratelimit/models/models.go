// Package models holds the rate-limit vocabulary shared by the bucket store,
// the HTTP middleware and the cleanup worker.
package models

import (
	"time"

	"golang.org/x/time/rate"

	dErrors "storefront/pkg/domain-errors"
)

type EndpointClass string

const (
	// ClassLogin: admin sign-in (credential guessing target).
	ClassLogin EndpointClass = "login"
	// ClassPublicWrite: anonymous writes such as reviews and contact messages.
	ClassPublicWrite EndpointClass = "public_write"
)

func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassLogin, ClassPublicWrite:
		return true
	}
	return false
}

func (c EndpointClass) String() string {
	return string(c)
}

// Policy is a token bucket: Burst requests at once, refilled at PerMinute.
type Policy struct {
	PerMinute int
	Burst     int
}

// PerMinute builds a policy whose burst equals the per-minute rate.
func PerMinute(n int) Policy {
	return Policy{PerMinute: n, Burst: n}
}

func (p Policy) Validate() error {
	if p.PerMinute <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "rate limit per minute must be positive")
	}
	if p.Burst <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "rate limit burst must be positive")
	}
	return nil
}

// Limit converts the policy to a refill rate in tokens per second.
func (p Policy) Limit() rate.Limit {
	return rate.Limit(float64(p.PerMinute) / 60.0)
}

type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"error_description"`
	RetryAfter int    `json:"retry_after"`
}
