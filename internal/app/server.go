// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"primefit-service/internal/config"
	wstypes "primefit-service/internal/domain/websocket"
	authHandler "primefit-service/internal/handlers/auth"
	customerHandler "primefit-service/internal/handlers/customer"
	wsHandler "primefit-service/internal/handlers/websocket"
	"primefit-service/internal/middleware"
	"primefit-service/internal/observability"
	"primefit-service/internal/pkg/jwt"
	"primefit-service/internal/pkg/session"
	authUsecase "primefit-service/internal/service/auth"
	customersvc "primefit-service/internal/service/customer"
	"primefit-service/internal/websocket"
	wsHandlers "primefit-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg     config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger
	http    *http.Server
	closers []func()
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Start wires every component and serves HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.build(ctx); err != nil {
		s.close()
		return err
	}
	defer s.close()

	s.http = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}

func (s *Server) build(ctx context.Context) error {
	logger := s.logger

	// ----- Redis -----
	redisClient, err := ConnectRedis(ctx, s.cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
		logger.Info("connected to redis", zap.String("addr", s.cfg.RedisAddr))
	} else {
		logger.Warn("REDIS_ADDR not set, sessions and login rate limiting disabled")
	}

	// ----- Roster -----
	storage, closeStorage, err := OpenStorage(ctx, s.cfg, redisClient, logger)
	if err != nil {
		return fmt.Errorf("failed to open roster storage: %w", err)
	}
	s.closers = append(s.closers, closeStorage)

	roster := customersvc.NewRoster(storage, logger, customersvc.RosterConfig{
		KeyPrefix: s.cfg.StorageKeyPrefix,
		Admin:     s.cfg.Admin,
	})
	roster.Initialize(ctx)
	stats := roster.ComputeStats()
	observability.RecordRosterSize(stats.Total, stats.Active)
	logger.Info("roster loaded",
		zap.String("driver", s.cfg.StorageDriver),
		zap.Int("customers", stats.Total),
		zap.Bool("degraded", roster.Degraded()),
	)

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- WebSocket Hub & Services -----
	var authService *authUsecase.AuthService
	hub := websocket.NewHub(lazyValidator(func() websocket.TokenValidator { return authService }), logger)

	var (
		sessions    authUsecase.SessionStore
		rateLimiter authUsecase.LoginLimiter
	)
	if redisClient != nil {
		sessions = session.NewManager(redisClient)
		rateLimiter = session.NewRateLimiter(redisClient, int64(s.cfg.LoginRateLimit))
	}
	authService = authUsecase.NewAuthService(roster, jwtManager, sessions, rateLimiter, hub, logger)
	customerService := customersvc.NewCustomerService(roster, logger)

	if err := hub.RegisterHandler(wsHandlers.NewRosterStatsHandler(roster)); err != nil {
		return err
	}
	roster.Subscribe(rosterObserver(hub))

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)
	s.closers = append(s.closers, stopHub)

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:     authHandler.NewAuthHandler(authService, logger),
		CustomerHandler: customerHandler.NewCustomerHandler(customerService),
		WSHandler:       wsHandler.NewWebSocketHandler(hub, customerService, s.cfg.AllowedOrigins, logger),
		AuthMiddleware:  middleware.NewAuthMiddleware(authService),
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.AllowedOrigins),
	)

	SetupRouter(s.engine, logger, handlers)
	return nil
}

// close releases resources in reverse order of acquisition.
func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// rosterObserver keeps metrics and websocket clients in step with the roster.
func rosterObserver(hub *websocket.Hub) customersvc.Listener {
	return func(ev customersvc.ChangeEvent) {
		observability.RecordRosterSize(ev.Total, ev.Active)
		hub.BroadcastRosterChange(wstypes.RosterChangeData{
			Op:         string(ev.Op),
			CustomerID: ev.CustomerID,
			Total:      ev.Total,
			Active:     ev.Active,
		})
		if ev.Op == customersvc.OpDelete {
			hub.DisconnectCustomer(ev.CustomerID, "customer deleted")
		}
	}
}

// lazyValidator defers to a validator built after the hub.
type lazyValidator func() websocket.TokenValidator

func (l lazyValidator) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	return l().ValidateToken(ctx, token)
}
