package models

import (
	"strings"

	"storefront/internal/session"
	"storefront/pkg/validation"
)

// LoginRequest is the admin sign-in form.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=1024"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	return validation.Validate(r)
}

// Credential converts the form into a one-shot credential and clears the
// password string reference held by the request.
func (r *LoginRequest) Credential() *Credential {
	cred := NewCredential(r.Email, []byte(r.Password))
	r.Password = ""
	return cred
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,max=1024"`
}

func (r *RefreshRequest) Validate() error {
	return validation.Validate(r)
}

// LoginResponse is returned for an authorized sign-in.
type LoginResponse struct {
	Session  *session.Session `json:"session"`
	Admin    *AdminRecord     `json:"admin"`
	Strategy Strategy         `json:"strategy"`
}

// RejectionResponse is returned for denied and transient outcomes.
type RejectionResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Remediation string `json:"remediation,omitempty"`
}
