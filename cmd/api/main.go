package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davargas/prestamo/prestamo-backend/internal/config"
	"github.com/davargas/prestamo/prestamo-backend/internal/handler"
	"github.com/davargas/prestamo/prestamo-backend/internal/middleware"
	"github.com/davargas/prestamo/prestamo-backend/internal/repository/postgres"
	"github.com/davargas/prestamo/prestamo-backend/internal/repository/storage"
	"github.com/davargas/prestamo/prestamo-backend/internal/service"
	"github.com/davargas/prestamo/prestamo-backend/internal/websocket"
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
	clientRepo := postgres.NewClientRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	installmentRepo := postgres.NewInstallmentRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	attachmentRepo := postgres.NewAttachmentRepository(pool)

	// Initialize services
	statusService := service.NewStatusService(loanRepo, installmentRepo)
	clientService := service.NewClientService(clientRepo, loanRepo)
	loanService := service.NewLoanService(pool, loanRepo, installmentRepo, clientRepo, statusService)
	paymentService := service.NewPaymentService(pool, paymentRepo, loanRepo, installmentRepo)
	dashboardService := service.NewDashboardService(loanRepo, installmentRepo, paymentRepo)

	// External document storage is optional; the ledger runs fine without it
	var attachmentService *service.AttachmentService
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		store, err := storage.NewS3ObjectStore(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		attachmentService = service.NewAttachmentService(store, attachmentRepo, loanRepo)
		loanService.SetAttachmentService(attachmentService)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Attachment storage enabled")
	} else {
		log.Warn().Msg("Attachment storage disabled: no S3 credentials configured")
	}

	// WebSocket hub broadcasting ledger events to connected operators
	hub := websocket.NewHub()
	loanService.SetEventPublisher(hub)
	paymentService.SetEventPublisher(hub)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	clientHandler := handler.NewClientHandler(clientService)
	loanHandler := handler.NewLoanHandler(loanService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	var attachmentHandler *handler.AttachmentHandler
	if attachmentService != nil {
		attachmentHandler = handler.NewAttachmentHandler(attachmentService)
	}
	wsHandler := handler.NewWebSocketHandler(hub, authMiddleware, cfg.CORSOrigins)

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

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// WebSocket endpoint (token auth via query parameter)
	e.GET("/ws", wsHandler.HandleWS)

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, clientHandler, loanHandler, paymentHandler, dashboardHandler, attachmentHandler)

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
