// Package api exposes the pipeline over HTTP/JSON.
package api

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bloomsight/bloom-engine/internal/config"
	"github.com/bloomsight/bloom-engine/internal/service"
)

// Server hosts the JSON API in front of the bloom service.
type Server struct {
	echo    *echo.Echo
	address string
	logger  *slog.Logger
}

// NewServer builds the router and binds handlers. It does not listen yet.
func NewServer(cfg config.ServerConfig, svc *service.BloomService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("http request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency))
			return nil
		},
	}))

	h := &handlers{svc: svc, logger: logger}

	e.GET("/healthz", h.health)

	v1 := e.Group("/api/v1")
	v1.POST("/snapshot", h.snapshot)
	v1.POST("/detect", h.detect)
	v1.POST("/training-set", h.trainingSet)
	v1.POST("/train", h.train)
	v1.POST("/predict", h.predict)
	v1.POST("/advisory", h.advisory)
	v1.POST("/run", h.run)

	return &Server{echo: e, address: cfg.Address, logger: logger}
}

// Start listens until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("address", s.address))
	return s.echo.Start(s.address)
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Warn("http server shutdown", slog.Any("error", err))
	}
}
