// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"primefit-service/internal/domain/auth"
	"primefit-service/internal/middleware"
	"primefit-service/internal/pkg/response"
	authUsecase "primefit-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Login ==========

// CheckMobile tells the login form whether the mobile belongs to a member
func (h *AuthHandler) CheckMobile(c *gin.Context) {
	var req auth.MemberCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.authService.CheckMember(c.Request.Context(), req.Mobile)
	if err != nil {
		response.FromError(c, "mobile check failed", err)
		return
	}

	response.Success(c, http.StatusOK, "mobile checked", result)
}

// Login handles member login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Info("login failed",
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		response.FromError(c, "login failed", err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// ========== Logout ==========

// Logout revokes the current token (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.logger.Error("logout failed",
			zap.String("customer_id", claims.CustomerID),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// ========== Profile ==========

// GetMe returns the logged-in member (requires auth)
func (h *AuthHandler) GetMe(c *gin.Context) {
	customerID := middleware.MustGetCustomerID(c)

	profile, err := h.authService.GetProfile(c.Request.Context(), customerID)
	if err != nil {
		response.FromError(c, "failed to load profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", profile)
}

// GetActiveSessions lists the member's live sessions (requires auth)
func (h *AuthHandler) GetActiveSessions(c *gin.Context) {
	customerID := middleware.MustGetCustomerID(c)

	sessions, err := h.authService.GetActiveSessions(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to get sessions", err)
		return
	}

	response.Success(c, http.StatusOK, "sessions retrieved", sessions)
}
