// Package models holds contact-form submissions stored in the hosted
// backend's contact_messages table.
package models

import (
	"strings"
	"time"

	id "storefront/pkg/domain"
	s "storefront/pkg/string"
	"storefront/pkg/validation"
)

type Message struct {
	ID        id.MessageID `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Subject   string       `json:"subject,omitempty"`
	Message   string       `json:"message"`
	IsRead    bool         `json:"is_read"`
	CreatedAt time.Time    `json:"created_at,omitzero"`
}

// NewMessage is the inserted row.
type NewMessage struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type SubmitRequest struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject,omitempty" validate:"max=200"`
	Message string `json:"message" validate:"notblank,max=5000"`
}

func (r *SubmitRequest) Normalize() {
	s.TrimStrings(&r.Name, &r.Email, &r.Subject, &r.Message)
	r.Email = strings.ToLower(r.Email)
}

func (r *SubmitRequest) Validate() error {
	return validation.Validate(r)
}

// SubmitResponse acknowledges a stored message without echoing it back.
type SubmitResponse struct {
	ID       id.MessageID `json:"id"`
	Received bool         `json:"received"`
}
