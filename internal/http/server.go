// Package http provides the HTTP API for the resume analyzer.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jhonnycheong-pursuit/resume-analyzer/internal/pipeline"
)

// uploadField is the multipart form field carrying the resume file.
const uploadField = "resume"

// Analyzer runs one analysis over a PDF stored on disk. The implementation
// owns the file at pdfPath and removes it when done.
type Analyzer interface {
	Analyze(ctx context.Context, pdfPath, name string) (*pipeline.Result, error)
}

// Server provides HTTP endpoints for resume analysis.
type Server struct {
	echo     *echo.Echo
	analyzer Analyzer
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// MaxUpload bounds the request body, in echo's body-limit notation
	// ("8M", "512K").
	MaxUpload string
}

// NewServer creates a new HTTP server.
func NewServer(analyzer Analyzer, logger *zap.Logger, cfg *Config) (*Server, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:      "localhost",
			Port:      8080,
			MaxUpload: "8M",
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.MaxUpload != "" {
		e.Use(middleware.BodyLimit(cfg.MaxUpload))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		analyzer: analyzer,
		logger:   logger,
		config:   cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.POST("/analyze", s.handleAnalyze)
}

// ErrorResponse is the error body returned by all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleAnalyze accepts a multipart PDF upload and runs the full analysis.
func (s *Server) handleAnalyze(c echo.Context) error {
	file, err := c.FormFile(uploadField)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No resume file provided"})
	}
	if file.Filename == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No selected file"})
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid file format. Only PDF files are allowed."})
	}

	path, err := s.saveUpload(file)
	if err != nil {
		s.logger.Error("failed to store upload", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process the resume file."})
	}
	// The analyzer removes the file on its own; this covers the paths
	// where it never got the chance.
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("failed to remove temporary upload", zap.Error(rmErr))
		}
	}()

	result, err := s.analyzer.Analyze(c.Request().Context(), path, file.Filename)
	if err != nil {
		s.logger.Error("analysis failed",
			zap.String("document", file.Filename),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process the resume file."})
	}

	return c.JSON(http.StatusOK, result)
}

// saveUpload copies the multipart part to a private temporary file and
// returns its path.
func (s *Server) saveUpload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "resume-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("flushing upload: %w", err)
	}
	return dst.Name(), nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
