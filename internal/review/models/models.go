// Package models holds product reviews. Visitors submit reviews unapproved;
// only approved reviews are shown on the storefront.
package models

import (
	"time"

	id "storefront/pkg/domain"
	s "storefront/pkg/string"
	"storefront/pkg/validation"
)

type Review struct {
	ID            id.ReviewID  `json:"id"`
	ProductID     id.ProductID `json:"product_id"`
	CustomerName  string       `json:"customer_name"`
	CustomerEmail string       `json:"customer_email,omitempty"`
	Rating        int          `json:"rating"`
	Comment       string       `json:"comment,omitempty"`
	IsApproved    bool         `json:"is_approved"`
	CreatedAt     time.Time    `json:"created_at,omitzero"`
	UpdatedAt     time.Time    `json:"updated_at,omitzero"`
}

// NewReview is the row inserted for a visitor submission.
type NewReview struct {
	ProductID     id.ProductID `json:"product_id"`
	CustomerName  string       `json:"customer_name"`
	CustomerEmail string       `json:"customer_email,omitempty"`
	Rating        int          `json:"rating"`
	Comment       string       `json:"comment,omitempty"`
	IsApproved    bool         `json:"is_approved"`
	CreatedAt     time.Time    `json:"created_at"`
}

// SubmitRequest is a visitor's review.
type SubmitRequest struct {
	CustomerName  string `json:"customer_name" validate:"notblank,max=100"`
	CustomerEmail string `json:"customer_email,omitempty" validate:"omitempty,email,max=255"`
	Rating        int    `json:"rating" validate:"gte=1,lte=5"`
	Comment       string `json:"comment,omitempty" validate:"max=2000"`
}

func (r *SubmitRequest) Normalize() {
	s.TrimStrings(&r.CustomerName, &r.CustomerEmail, &r.Comment)
}

func (r *SubmitRequest) Validate() error {
	return validation.Validate(r)
}

// Patch is an admin edit. Nil fields are left unchanged.
type Patch struct {
	CustomerName *string `json:"customer_name,omitempty" validate:"omitempty,notblank,max=100"`
	Rating       *int    `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Comment      *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
	IsApproved   *bool   `json:"is_approved,omitempty"`
}

func (r *Patch) Validate() error {
	return validation.Validate(r)
}

func (r *Patch) IsEmpty() bool {
	return *r == Patch{}
}

// Query selects a product's reviews, newest first.
type Query struct {
	ProductID    id.ProductID
	ApprovedOnly bool
}
