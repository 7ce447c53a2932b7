// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"primefit-service/internal/domain/auth"
	"primefit-service/internal/domain/customer"
	"primefit-service/internal/observability"
	xerrors "primefit-service/internal/pkg/errors"
	"primefit-service/internal/pkg/jwt"
	"primefit-service/internal/pkg/session"
	customersvc "primefit-service/internal/service/customer"

	"go.uber.org/zap"
)

// LoginLimiter throttles login attempts per mobile number.
type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, mobile string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, mobile string) error
}

// SessionStore tracks issued tokens so they can be revoked.
type SessionStore interface {
	CreateSession(ctx context.Context, s *session.SessionData) error
	InvalidateSession(ctx context.Context, customerID, jti string, expiresAt time.Time) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
	GetCustomerSessions(ctx context.Context, customerID string) ([]*session.SessionData, error)
}

// LogoutNotifier disconnects live clients of a revoked token.
type LogoutNotifier interface {
	ForceLogout(customerID, jti, reason string)
}

type AuthService struct {
	roster      *customersvc.Roster
	jwtManager  *jwt.Manager
	sessions    SessionStore
	rateLimiter LoginLimiter
	hub         LogoutNotifier
	logger      *zap.Logger
}

// NewAuthService builds the login flow. sessions, rateLimiter and hub are
// optional; without redis the service issues stateless tokens.
func NewAuthService(
	roster *customersvc.Roster,
	jwtManager *jwt.Manager,
	sessions SessionStore,
	rateLimiter LoginLimiter,
	hub LogoutNotifier,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		roster:      roster,
		jwtManager:  jwtManager,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		hub:         hub,
		logger:      logger,
	}
}

// ========== Login ==========

// CheckMember is the first login step: is the mobile registered at all?
func (s *AuthService) CheckMember(ctx context.Context, mobile string) (*auth.MemberCheckResponse, error) {
	mobile, err := normalizeMobile(mobile)
	if err != nil {
		return nil, err
	}

	c, err := s.roster.FindByMobile(mobile)
	if err != nil {
		return &auth.MemberCheckResponse{Registered: false}, nil
	}
	return &auth.MemberCheckResponse{Registered: true, Name: c.Name}, nil
}

// Login verifies mobile and password and issues a token
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	mobile, err := normalizeMobile(req.Mobile)
	if err != nil {
		observability.RecordLogin("invalid")
		return nil, err
	}

	// Rate limiting
	if s.rateLimiter != nil {
		allowed, _, err := s.rateLimiter.CheckLoginAttempt(ctx, mobile)
		if err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
		if !allowed {
			observability.RecordLogin("rate_limited")
			s.logger.Warn("login rate limited", zap.String("mobile", mobile))
			return nil, fmt.Errorf("too many login attempts, please try again in 15 minutes: %w", xerrors.ErrRateLimited)
		}
	}

	c, err := s.roster.FindByMobile(mobile)
	if err != nil {
		observability.RecordLogin("not_member")
		return nil, xerrors.ErrNotMember
	}

	// Plain comparison after trimming; an empty stored password never matches
	stored := strings.TrimSpace(c.Password)
	if stored == "" || stored != strings.TrimSpace(req.Password) {
		observability.RecordLogin("bad_password")
		s.logger.Info("login failed: incorrect password", zap.String("customer_id", c.ID))
		return nil, xerrors.ErrInvalidCredentials
	}

	if !c.IsActive {
		observability.RecordLogin("inactive")
		s.logger.Info("login refused: inactive account", zap.String("customer_id", c.ID))
		return nil, xerrors.ErrAccountInactive
	}

	token, jti, expiresAt, err := s.jwtManager.Generator.Generate(c.ID, c.Mobile, c.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if s.sessions != nil {
		sessionData := &session.SessionData{
			JTI:        jti,
			CustomerID: c.ID,
			Mobile:     c.Mobile,
			IsAdmin:    c.IsAdmin,
			IPAddress:  req.IPAddress,
			UserAgent:  req.UserAgent,
			LoginAt:    time.Now(),
			ExpiresAt:  expiresAt,
		}
		if err := s.sessions.CreateSession(ctx, sessionData); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.ResetLoginAttempts(ctx, mobile); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.Error(err))
		}
	}

	observability.RecordLogin("success")
	s.logger.Info("customer logged in",
		zap.String("customer_id", c.ID),
		zap.Bool("is_admin", c.IsAdmin),
	)

	return &auth.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.jwtManager.Generator.Ttl.Seconds()),
		ExpiresAt: expiresAt,
		Customer:  c.Profile(),
	}, nil
}

// ========== Logout ==========

// Logout revokes the token identified by claims
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if s.sessions == nil {
		return nil
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.sessions.InvalidateSession(ctx, claims.CustomerID, claims.ID, expiresAt); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	if s.hub != nil {
		s.hub.ForceLogout(claims.CustomerID, claims.ID, "logged out")
	}

	s.logger.Info("customer logged out", zap.String("customer_id", claims.CustomerID))
	return nil
}

// GetActiveSessions lists the live sessions of a customer
func (s *AuthService) GetActiveSessions(ctx context.Context, customerID string) ([]*session.SessionData, error) {
	if s.sessions == nil {
		return []*session.SessionData{}, nil
	}
	return s.sessions.GetCustomerSessions(ctx, customerID)
}

// ========== Tokens ==========

// ValidateToken verifies the token and re-reads the customer so that deleted
// or deactivated members lose access immediately. Admin rights come from the
// current record, not the token.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w: %v", xerrors.ErrUnauthorized, err)
	}

	if s.sessions != nil {
		blacklisted, err := s.sessions.IsTokenBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check blacklist: %w", err)
		}
		if blacklisted {
			return nil, fmt.Errorf("token has been revoked: %w", xerrors.ErrSessionExpired)
		}
	}

	c, err := s.roster.FindByID(claims.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer %s no longer exists: %w", claims.CustomerID, xerrors.ErrSessionExpired)
	}
	if !c.IsActive {
		return nil, xerrors.ErrAccountInactive
	}
	claims.IsAdmin = c.IsAdmin

	return claims, nil
}

// GetProfile returns the logged-in customer without the password
func (s *AuthService) GetProfile(ctx context.Context, customerID string) (*customer.Profile, error) {
	c, err := s.roster.FindByID(customerID)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", customerID, err)
	}
	profile := c.Profile()
	return &profile, nil
}

// normalizeMobile applies the login form check: exactly ten digits.
func normalizeMobile(mobile string) (string, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return "", fmt.Errorf("%w: please enter your mobile number", xerrors.ErrInvalidInput)
	}
	if len(mobile) != 10 || strings.Trim(mobile, "0123456789") != "" {
		return "", fmt.Errorf("%w: please enter a valid 10-digit mobile number", xerrors.ErrInvalidInput)
	}
	return mobile, nil
}
