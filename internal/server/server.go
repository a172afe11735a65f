// Package server implements the sandbox backend: a local stand-in
// for the EcoCollect API used for development and integration tests.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecocollect-dev/ecocollect/internal/auth"
	"github.com/ecocollect-dev/ecocollect/internal/config"
	"github.com/ecocollect-dev/ecocollect/internal/models"
)

// Payment session timing. Sessions auto-settle shortly after creation
// so a polling client observes the unpaid->paid transition, and expire
// when left open past the deadline.
const (
	paymentSettleDelay  = 4 * time.Second
	paymentExpiryWindow = 15 * time.Minute
)

// Server represents the sandbox HTTP server
type Server struct {
	router *gin.Engine
	db     *gorm.DB
	config *config.Config
	logger zerolog.Logger
}

// New creates a new sandbox server instance
func New(cfg *config.Config, zlog zerolog.Logger) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	if err := auth.InitializeJWT(cfg.Auth.JWTSecret); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		zlog.Info().Msg("No JWT_SECRET set, generated an ephemeral secret")
	}

	server := &Server{
		db:     db,
		config: cfg,
		logger: zlog,
	}

	server.setupRouter()

	return server, nil
}

// initDatabase opens the sqlite database and applies the pragmas the
// sandbox needs for concurrent CLI access.
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const busyTimeout = 5000 // milliseconds

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware. The hosted web client sends credentialed
	// requests from the Vite dev origin.
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public endpoints (no auth required)
	s.router.POST("/api/auth/google", s.googleLogin)
	s.router.GET("/api/auth/google/start", s.googleStart)
	s.router.GET("/api/waste-types", s.listWasteTypes)
	s.router.POST("/api/seed-data", s.seedData)
	s.router.GET("/pay/:session_id", s.paymentPage)

	// Authenticated API routes (session token required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		api.GET("/auth/me", s.getCurrentUser)
		api.POST("/auth/logout", s.logout)

		// Bookings
		api.POST("/bookings", s.createBooking)
		api.GET("/bookings", s.listBookings)
		api.GET("/bookings/:id", s.getBooking)
		api.DELETE("/bookings/:id", s.deleteBooking)

		// Payments
		api.POST("/payments/checkout", s.checkoutPayment)
		api.GET("/payments/status/:session_id", s.paymentStatus)

		// Admin
		adminRoutes := api.Group("/admin")
		adminRoutes.Use(AdminOnlyMiddleware(s.logger))
		{
			adminRoutes.GET("/stats", s.adminStats)
			adminRoutes.GET("/bookings", s.adminListBookings)
			adminRoutes.PATCH("/bookings/:id", s.updateBookingStatus)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "ecocollect-sandbox",
	})
}

// Router exposes the configured handler for in-process tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until a shutdown signal.
func (s *Server) Run(addr string) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Sandbox shutdown complete")
	return nil
}
