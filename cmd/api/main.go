package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShalConnects/Balanze-sub003/internal/config"
	"github.com/ShalConnects/Balanze-sub003/internal/handler"
	"github.com/ShalConnects/Balanze-sub003/internal/middleware"
	"github.com/ShalConnects/Balanze-sub003/internal/repository/postgres"
	"github.com/ShalConnects/Balanze-sub003/internal/service"
	"github.com/ShalConnects/Balanze-sub003/internal/websocket"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	recordRepo := postgres.NewRecordRepository(pool)
	returnRepo := postgres.NewReturnRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	apiTokenRepo := postgres.NewAPITokenRepository(pool)

	// Initialize WebSocket hub
	hub := websocket.NewHub()

	// Initialize services
	recordService := service.NewRecordService(recordRepo, returnRepo, transactionRepo, accountRepo)
	recordService.SetEventPublisher(hub)
	settlementService := service.NewSettlementService(recordRepo, returnRepo, transactionRepo, accountRepo)
	settlementService.SetEventPublisher(hub)
	apiTokenService := service.NewAPITokenService(apiTokenRepo)

	// Initialize auth middleware and rate limiter
	authMiddleware := middleware.NewAPITokenAuthMiddleware(apiTokenService)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Initialize handlers
	recordHandler := handler.NewRecordHandler(recordService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	accountHandler := handler.NewAccountHandler(accountRepo)
	apiTokenHandler := handler.NewAPITokenHandler(apiTokenService)
	wsHandler := handler.NewWebSocketHandler(hub, &wsTokenValidator{apiTokenService: apiTokenService}, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Per-token rate limiting
	e.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// WebSocket endpoint (token validated via query parameter)
	e.GET("/ws", wsHandler.HandleWS)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, recordHandler, settlementHandler, accountHandler, apiTokenHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// wsTokenValidator adapts APITokenService to handler.TokenValidator
type wsTokenValidator struct {
	apiTokenService *service.APITokenService
}

// ValidateToken implements handler.TokenValidator
func (v *wsTokenValidator) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	apiToken, err := v.apiTokenService.ValidateToken(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	return apiToken.UserID, nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
