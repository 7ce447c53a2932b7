// internal/domain/auth/dto.go
package auth

import (
	"time"

	"primefit-service/internal/domain/customer"
)

// LoginRequest is the member login form: mobile number then password.
type LoginRequest struct {
	Mobile    string `json:"mobile" binding:"required"`
	Password  string `json:"password" binding:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse successful login response
type LoginResponse struct {
	Token     string           `json:"token"`
	TokenType string           `json:"token_type"`
	ExpiresIn int              `json:"expires_in"`
	ExpiresAt time.Time        `json:"expires_at"`
	Customer  customer.Profile `json:"customer"`
}

// MemberCheckResponse answers the first login step.
type MemberCheckResponse struct {
	Registered bool   `json:"registered"`
	Name       string `json:"name,omitempty"`
}

// MemberCheckRequest is the first login step.
type MemberCheckRequest struct {
	Mobile string `json:"mobile" binding:"required"`
}
