// Package server exposes text and document translation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/pipeline"
)

// DocumentTranslator translates a whole PDF document.
type DocumentTranslator interface {
	TranslateDocument(ctx context.Context, src pdf.Source, opts pipeline.Options) (*pipeline.Output, error)
}

// TextTranslator translates a piece of text and never fails.
type TextTranslator interface {
	TranslateText(ctx context.Context, text, targetLanguage, model string) string
}

// Config HTTP 服务配置
type Config struct {
	// UploadDir holds uploaded and translated files while a request runs.
	// Empty means a fresh temporary directory.
	UploadDir string
	// DefaultTarget is used when a document request names no language.
	DefaultTarget string
	// BodyLimit is an echo size string such as "64M".
	BodyLimit string
}

// Server HTTP 服务
type Server struct {
	echo      *echo.Echo
	documents DocumentTranslator
	texts     TextTranslator
	cfg       Config
}

// New creates the server and registers its routes.
func New(documents DocumentTranslator, texts TextTranslator, cfg Config) (*Server, error) {
	if cfg.DefaultTarget == "" {
		cfg.DefaultTarget = "arabic"
	}
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "64M"
	}
	if cfg.UploadDir == "" {
		dir, err := os.MkdirTemp("", "pdf-translator-uploads-")
		if err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		cfg.UploadDir = dir
	} else if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	s := &Server{
		echo:      echo.New(),
		documents: documents,
		texts:     texts,
		cfg:       cfg,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, logger.Err(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealth)
	e.POST("/translate/text", s.handleTranslateText)
	e.POST("/translate/pdf", s.handleTranslatePDF)
	e.POST("/translate/multiple", s.handleTranslateMultiple)

	logger.Debug("HTTP routes registered", logger.String("uploadDir", cfg.UploadDir))
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// UploadDir returns the scratch directory used for uploads.
func (s *Server) UploadDir() string {
	return s.cfg.UploadDir
}

// Start listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.String("addr", addr))
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("HTTP server shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// handleError renders every error as {"error": message}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := err.Error()

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		status = he.Code
		message = fmt.Sprint(he.Message)
	case pdf.IsInputError(err):
		status = http.StatusBadRequest
	case pdf.CodeOf(err) == pdf.ErrCancelled:
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", err, logger.String("uri", c.Request().RequestURI))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Error: message})
	}
	if err != nil {
		logger.Warn("failed to write error response", logger.Err(err))
	}
}
