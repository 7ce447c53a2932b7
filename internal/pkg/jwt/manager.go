// internal/pkg/jwt/manager.go
package jwt

import (
	"fmt"
	"time"
)

// Config holds the token settings loaded from the environment.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Manager pairs a generator and verifier sharing one secret.
type Manager struct {
	Generator *Generator
	Verifier  *Verifier
}

// LoadAndBuild validates cfg and builds the manager.
func LoadAndBuild(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 16 {
		return nil, fmt.Errorf("jwt secret must be at least 16 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("jwt ttl must be positive")
	}

	secret := []byte(cfg.Secret)
	return &Manager{
		Generator: NewGenerator(secret, cfg.Issuer, cfg.Audience, cfg.TTL),
		Verifier:  NewVerifier(secret, cfg.Issuer, cfg.Audience),
	}, nil
}
