// Package server exposes model-switching generation over HTTP.
//
// POST /v1/generate runs one generation and answers with JSON, or with a
// server-sent event stream (token, done, error events) when the request
// sets "stream": true. GET /v1/models lists the capability catalog,
// /healthz reports liveness and /metrics serves Prometheus series.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"go.uber.org/zap"

	modelswitch "github.com/haowjy/modelswitch-go"
	"github.com/haowjy/modelswitch-go/internal/config"
	"github.com/haowjy/modelswitch-go/internal/metrics"
)

const requestIDKey = "request_id"

// Server serves generation requests against a provider registry. Request
// fields override cfg, the server-wide defaults.
type Server struct {
	cfg      config.Config
	registry *modelswitch.Registry
	catalog  *modelswitch.CapabilityRegistry
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records every run on m and serves it at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithCatalog replaces the global capability catalog.
func WithCatalog(c *modelswitch.CapabilityRegistry) Option {
	return func(s *Server) { s.catalog = c }
}

// New creates a Server.
func New(cfg config.Config, registry *modelswitch.Registry, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		catalog:  modelswitch.GetCapabilityRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register mounts the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/generate", s.handleGenerate)
	e.GET("/v1/models", s.handleModels)
	e.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

// Echo builds an echo instance with request IDs, request logging, panic
// recovery and every route registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.Use(requestID())
	e.Use(s.requestLogger())
	e.Use(middleware.Recover())
	s.Register(e)
	return e
}

// Start listens on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string, readTimeout time.Duration) error {
	s.logger.Info("starting server", zap.String("address", addr))
	sc := echo.StartConfig{
		Address: addr,
		BeforeServeFunc: func(srv *http.Server) error {
			srv.ReadHeaderTimeout = readTimeout
			return nil
		},
	}
	return sc.Start(ctx, s.Echo())
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"providers": s.registry.IDs(),
	})
}

func (s *Server) handleModels(c *echo.Context) error {
	var filter modelswitch.ProviderID
	if q := c.QueryParam("provider"); q != "" {
		id, err := modelswitch.ParseProviderID(q)
		if err != nil {
			return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "provider", "")
		}
		filter = id
	}

	infos := s.catalog.Models(filter)
	entries := make([]ModelEntry, 0, len(infos))
	for _, info := range infos {
		_, err := s.registry.Get(info.Provider)
		entries = append(entries, ModelEntry{
			ID:            info.ID,
			Provider:      info.Provider.String(),
			DisplayName:   info.DisplayName,
			Tier:          info.Tier,
			ContextWindow: info.ContextWindow,
			InputPer1M:    info.Pricing.InputPer1M,
			OutputPer1M:   info.Pricing.OutputPer1M,
			Available:     err == nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"object": "list", "data": entries})
}

// requestID tags each request with an X-Request-ID, reusing the client's.
func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.Set(requestIDKey, id)
			return next(c)
		}
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		HandleError: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", requestIDFrom(c)),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("client_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}

			switch {
			case v.Status >= 500:
				s.logger.Error("request failed", fields...)
			case v.Status >= 400:
				s.logger.Warn("client error", fields...)
			default:
				s.logger.Info("request", fields...)
			}
			return nil
		},
	})
}

func requestIDFrom(c *echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}
