// Package api exposes the escalation operations over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/vital/internal/config"
	"github.com/example/vital/internal/ctxutil"
	"github.com/example/vital/internal/metrics"
	"github.com/example/vital/internal/ports/primary"
	"github.com/example/vital/internal/version"
)

// ShutdownTimeout bounds how long in-flight requests may take after a stop signal.
const ShutdownTimeout = 10 * time.Second

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// ReqLoggerKey is the gin context key of the request-scoped logger.
const ReqLoggerKey = "reqLogger"

type Server struct {
	gin    *gin.Engine
	config config.Config
	log    *zap.SugaredLogger
}

// NewServer builds the engine and registers all routes.
func NewServer(log *zap.Logger, cfg config.Config, debug bool, escalations primary.EscalationService) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.RecoveryWithZap(log, true),
		requestContext(log.Sugar()),
	)

	s := &Server{
		gin:    engine,
		config: cfg,
		log:    log.Sugar(),
	}

	var limited []gin.HandlerFunc
	if cfg.Server.RateLimit.RequestsPerSecond > 0 {
		limited = append(limited, newClientLimiter(cfg.Server.RateLimit).middleware())
	}

	h := &EscalationHandler{
		escalations: escalations,
		cronSecret:  cfg.Cron.Secret,
		log:         s.log,
	}
	auth := NewJWTAuth(cfg.Auth.JWTSecret, s.log)

	routes := engine.Group("", limited...)
	routes.POST("/triggerAutoEscalation", auth.Middleware(), h.triggerAutoEscalation)

	manual := routes.Group("", corsMiddleware(cfg.Server.AllowedOrigins))
	manual.POST("/manualEscalateIssue", h.manualEscalateIssue)
	manual.OPTIONS("/manualEscalateIssue", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	routes.GET("/autoEscalateOverdue", h.autoEscalateOverdue)
	routes.POST("/autoEscalateOverdue", h.autoEscalateOverdue)

	engine.GET("/healthz", s.healthz)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.ListenAddress,
		Handler:           s.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Current(),
	})
}

// requestContext assigns a request ID and stores a request-scoped logger.
func requestContext(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), id))
		c.Set(ReqLoggerKey, log.With("requestId", id))
		c.Next()
	}
}

// GetReqLogger returns the request-scoped logger, or fallback.
func GetReqLogger(c *gin.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if v, ok := c.Get(ReqLoggerKey); ok {
		if l, ok := v.(*zap.SugaredLogger); ok {
			return l
		}
	}
	return fallback
}

// corsMiddleware allows the web client to call the villager endpoint.
// No configured origins means any origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
