// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "storefront/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing ProductID where CategoryID is expected.
// UserID is the identifier the hosted auth service issues; admin_users rows
// reuse it as their primary key.
type (
	UserID     uuid.UUID
	ProductID  uuid.UUID
	CategoryID uuid.UUID
	ReviewID   uuid.UUID
	MessageID  uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, backend payloads).

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

func ParseProductID(s string) (ProductID, error) {
	id, err := parseUUID(s, "product ID")
	return ProductID(id), err
}

func ParseCategoryID(s string) (CategoryID, error) {
	id, err := parseUUID(s, "category ID")
	return CategoryID(id), err
}

func ParseReviewID(s string) (ReviewID, error) {
	id, err := parseUUID(s, "review ID")
	return ReviewID(id), err
}

// String methods - for logging, filters and URLs.

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id ProductID) String() string  { return uuid.UUID(id).String() }
func (id CategoryID) String() string { return uuid.UUID(id).String() }
func (id ReviewID) String() string   { return uuid.UUID(id).String() }
func (id MessageID) String() string  { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CategoryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ReviewID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps the JSON wire form a plain UUID string, which is
// what the backend's REST layer sends and expects.

func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id ProductID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id CategoryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ReviewID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id MessageID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ProductID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CategoryID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ReviewID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *MessageID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }

// parseUUID is the shared validation logic. Nil UUIDs are rejected: no row in
// the hosted backend is ever keyed by the zero UUID.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
