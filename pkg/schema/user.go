// Package schema defines the data structures shared by the builder client,
// its engines and the development backend.
package schema

import (
	"errors"
	"time"
)

// ErrNoSession is returned when no persisted session exists.
var ErrNoSession = errors.New("no session")

// User is the account behind an access token.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Registration is the JSON body of a sign-up request.
type Registration struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// Token is the login response of the password-grant endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Session is the persisted client-side auth state.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry. A zero expiry
// never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// FieldError is one field-keyed validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
