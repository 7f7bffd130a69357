package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"medix/pkg/domain"
	dErrors "medix/pkg/domain-errors"
)

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims and lower-cases the email.
func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate checks the form shape before any credential check runs.
func (r LoginRequest) Validate() error {
	if !govalidator.StringLength(r.Email, "1", "255") || !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "Please enter a valid email address")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "Password is required")
	}
	if !govalidator.StringLength(r.Password, "1", "128") {
		return dErrors.New(dErrors.CodeValidation, "Password is too long")
	}
	return nil
}

// BackendLogin is the backend response to POST /admin/auth/login.
type BackendLogin struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

// LoginResult is a signed-in session.
type LoginResult struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	Principal domain.Principal
}

// Admin is the principal as shown to the browser. The backend token is never
// included.
type Admin struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AdminFrom strips the credential from p.
func AdminFrom(p domain.Principal) Admin {
	return Admin{ID: p.ID, Email: p.Email, Name: p.Name, Role: p.Role}
}

// SessionResponse describes the current session.
type SessionResponse struct {
	Admin     Admin      `json:"admin"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
