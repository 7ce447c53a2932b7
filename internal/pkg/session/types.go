// internal/pkg/session/types.go
package session

import "time"

// SessionData is the redis record of one issued login token.
type SessionData struct {
	JTI        string    `json:"jti"`
	CustomerID string    `json:"customer_id"`
	Mobile     string    `json:"mobile"`
	IsAdmin    bool      `json:"is_admin"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	LoginAt    time.Time `json:"login_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
