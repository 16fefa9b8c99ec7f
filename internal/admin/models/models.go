// Package models holds the value types of admin sign-in and authorization.
package models

import (
	"time"

	"storefront/internal/session"
	id "storefront/pkg/domain"
)

// Credential is a single sign-in attempt. It is never persisted or logged;
// Destroy wipes the password once the attempt is over.
type Credential struct {
	Email    string
	Password []byte
}

// NewCredential copies password so the caller's buffer is not retained.
func NewCredential(email string, password []byte) *Credential {
	p := make([]byte, len(password))
	copy(p, password)
	return &Credential{Email: email, Password: p}
}

// Destroy zeroes the password.
func (c *Credential) Destroy() {
	if c == nil {
		return
	}
	for i := range c.Password {
		c.Password[i] = 0
	}
	c.Password = nil
}

// AdminRecord is a row of admin_users. Existence plus IsActive is the only
// authorization predicate.
type AdminRecord struct {
	ID        id.UserID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Authorizes reports whether the record grants admin rights to identity
// by id.
func (r *AdminRecord) Authorizes(identity session.Identity) bool {
	return r != nil && r.IsActive && r.ID == identity.ID
}

// Strategy names an admin lookup step.
type Strategy string

const (
	StrategyPrivileged Strategy = "privileged_function"
	StrategyDirect     Strategy = "direct_query"
	StrategyEmail      Strategy = "email_fallback"
)

// Status is the tag of an Outcome.
type Status string

const (
	StatusAuthorized     Status = "authorized"
	StatusDenied         Status = "denied"
	StatusTransientError Status = "transient_error"
)

// Kind classifies non-authorized outcomes and propagated failures.
type Kind string

const (
	KindNone                  Kind = ""
	KindAuthenticationFailure Kind = "authentication_failure"
	KindAuthorizationDenied   Kind = "authorization_denied"
	KindIdentityMismatch      Kind = "identity_mismatch"
	KindBackendPolicyError    Kind = "backend_policy_error"
	KindNetworkError          Kind = "network_error"
)

// OperatorFacing reports kinds that need a deployment fix rather than a
// different user.
func (k Kind) OperatorFacing() bool {
	return k == KindIdentityMismatch || k == KindBackendPolicyError
}

// Remediation returns the operator instruction for operator-facing kinds.
func (k Kind) Remediation() string {
	switch k {
	case KindIdentityMismatch:
		return "admin_users.id must equal the auth user id; re-link the admin record to the signed-in user"
	case KindBackendPolicyError:
		return "install the check_admin_status security definer function or fix the admin_users row-level policies"
	}
	return ""
}

// Outcome is the single result of a sign-in attempt.
type Outcome struct {
	Status   Status
	Kind     Kind
	Reason   string
	Record   *AdminRecord
	Session  *session.Session
	Strategy Strategy
}

func Authorized(record *AdminRecord, sess *session.Session, strategy Strategy) *Outcome {
	return &Outcome{
		Status:   StatusAuthorized,
		Record:   record,
		Session:  sess,
		Strategy: strategy,
	}
}

func Denied(kind Kind, reason string) *Outcome {
	return &Outcome{Status: StatusDenied, Kind: kind, Reason: reason}
}

func TransientError(kind Kind, cause string) *Outcome {
	return &Outcome{Status: StatusTransientError, Kind: kind, Reason: cause}
}

func (o *Outcome) Authorized() bool {
	return o != nil && o.Status == StatusAuthorized
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalProducts    int       `json:"total_products"`
	FeaturedProducts int       `json:"featured_products"`
	OutOfStock       int       `json:"out_of_stock"`
	TotalCategories  int       `json:"total_categories"`
	ActiveCategories int       `json:"active_categories"`
	PendingReviews   int       `json:"pending_reviews"`
	UnreadMessages   int       `json:"unread_messages"`
	Timestamp        time.Time `json:"timestamp"`
}
