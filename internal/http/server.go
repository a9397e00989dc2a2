// Package http provides the HTTP API for repodigest.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repodigest/internal/analyzer"
	"github.com/fyrsmithlabs/repodigest/internal/logging"
)

// Analyzer runs repository analyses.
type Analyzer interface {
	Summarize(ctx context.Context, rawURL string) (*analyzer.Result, error)
	Digest(ctx context.Context, rawURL string) (*analyzer.DigestResult, error)
}

// Server provides HTTP endpoints for repodigest.
type Server struct {
	echo     *echo.Echo
	analyzer Analyzer
	logger   *logging.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// BodyLimit caps request bodies, e.g. "64K".
	BodyLimit string

	// Version is reported by GET /health.
	Version string
}

// DefaultBodyLimit is used when Config.BodyLimit is empty.
const DefaultBodyLimit = "64K"

// NewServer creates a new HTTP server.
func NewServer(svc Analyzer, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "0.0.0.0",
			Port: 8000,
		}
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = DefaultBodyLimit
	}

	s := &Server{
		echo:     echo.New(),
		analyzer: svc,
		logger:   logging.Wrap(logger),
		config:   cfg,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(s.requestLogger())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/summarize", s.handleSummarize)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/digest", s.handleDigest)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			s.logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
	}
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.config.Version})
}

// handleSummarize summarizes the repository at github_url.
func (s *Server) handleSummarize(c echo.Context) error {
	rawURL, err := s.bindURL(c)
	if err != nil {
		return err
	}

	res, err := s.analyzer.Summarize(c.Request().Context(), rawURL)
	if err != nil {
		return s.analysisError(c, err)
	}

	techs := res.Technologies
	if techs == nil {
		techs = []string{}
	}
	return c.JSON(http.StatusOK, SummaryResponse{
		Summary:      res.Summary.Summary,
		Technologies: techs,
		Structure:    res.Structure,
	})
}

// handleDigest returns the assembled context for github_url without calling
// the model.
func (s *Server) handleDigest(c echo.Context) error {
	rawURL, err := s.bindURL(c)
	if err != nil {
		return err
	}

	res, err := s.analyzer.Digest(c.Request().Context(), rawURL)
	if err != nil {
		return s.analysisError(c, err)
	}

	return c.JSON(http.StatusOK, DigestResponse{
		Repository: res.Repository,
		Branch:     res.Branch,
		Digest:     res.Digest,
		Chars:      res.Chars,
	})
}

// bindURL decodes an AnalyzeRequest. Malformed bodies and missing URLs are 422.
func (s *Server) bindURL(c echo.Context) (string, error) {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid request body", zap.Error(err))
		return "", echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body").SetInternal(err)
	}
	if strings.TrimSpace(req.GitHubURL) == "" {
		return "", echo.NewHTTPError(http.StatusUnprocessableEntity, "github_url is required")
	}
	return req.GitHubURL, nil
}

func (s *Server) analysisError(c echo.Context, err error) error {
	code, msg := errorStatus(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "analysis failed", zap.Int("status", code), zap.Error(err))
	} else {
		s.logger.Warn(c.Request().Context(), "analysis rejected", zap.Int("status", code), zap.Error(err))
	}
	return echo.NewHTTPError(code, msg).SetInternal(err)
}

// handleError writes every error as an ErrorResponse.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		s.logger.Error(c.Request().Context(), "unhandled error", zap.Error(err))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, ErrorResponse{Status: "error", Message: msg})
	}
	if werr != nil {
		s.logger.Warn(c.Request().Context(), "writing error response", zap.Error(werr))
	}
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
