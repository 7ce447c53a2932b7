// internal/app/router.go
package app

import (
	authHandler "primefit-service/internal/handlers/auth"
	customerHandler "primefit-service/internal/handlers/customer"
	wsHandler "primefit-service/internal/handlers/websocket"
	"primefit-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler     *authHandler.AuthHandler
	CustomerHandler *customerHandler.CustomerHandler
	WSHandler       *wsHandler.WebSocketHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health & Metrics ====================
	api.GET("/health", h.CustomerHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)
	api.GET("/ws/stats", append(h.AuthMiddleware.AdminOnly(), h.WSHandler.GetStats)...)

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/check-mobile", h.AuthHandler.CheckMobile)
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.GetMe)
		authProtected.GET("/sessions", h.AuthHandler.GetActiveSessions)
	}

	// ==================== Customers (admin) ====================
	customers := api.Group("/customers")
	customers.Use(h.AuthMiddleware.AdminOnly()...)
	{
		// List, search and aggregate
		customers.GET("", h.CustomerHandler.ListCustomers)
		customers.GET("/stats", h.CustomerHandler.GetCustomerStats)
		customers.GET("/by-mobile", h.CustomerHandler.GetCustomerByMobile) // ?mobile=&active_only=

		// Backup & maintenance
		customers.GET("/export", h.CustomerHandler.ExportCustomers)
		customers.POST("/import", h.CustomerHandler.ImportCustomers)
		customers.POST("/reset", h.CustomerHandler.ResetCustomers)
		customers.POST("/clear", h.CustomerHandler.ClearCustomers)

		// Single customer
		customers.GET("/:id", h.CustomerHandler.GetCustomer)
		customers.POST("", h.CustomerHandler.CreateCustomer)
		customers.PUT("/:id", h.CustomerHandler.UpdateCustomer)
		customers.POST("/:id/activate", h.CustomerHandler.ActivateCustomer)
		customers.POST("/:id/deactivate", h.CustomerHandler.DeactivateCustomer)
		customers.DELETE("/:id", h.CustomerHandler.DeleteCustomer)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
