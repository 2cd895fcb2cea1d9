// Package api exposes the lookup pipeline over HTTP.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/streamwise/streamwise/internal/api/ratelimit"
	"github.com/streamwise/streamwise/internal/config"
	"github.com/streamwise/streamwise/internal/history"
	"github.com/streamwise/streamwise/internal/lookup"
)

// maxInputLength is the request body input ceiling in characters, enforced
// before any network activity.
const maxInputLength = 500

// Server handles HTTP requests for the StreamWise API.
type Server struct {
	echo   *echo.Echo
	logger zerolog.Logger
	cfg    *config.Config

	lookupService  *lookup.Service
	historyService *history.Service
	rateLimiter    *ratelimit.Limiter
}

// NewServer creates a new API server instance.
func NewServer(db *sql.DB, cfg *config.Config, lookupService *lookup.Service, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:           e,
		logger:         logger,
		cfg:            cfg,
		lookupService:  lookupService,
		historyService: history.NewService(db, logger),
		rateLimiter:    ratelimit.NewLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(middleware.Gzip())
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/", s.root)
	s.echo.GET("/health", s.healthCheck)

	s.echo.POST("/lookup", s.handleLookup, s.rateLimiter.Middleware())

	historyHandlers := history.NewHandlers(s.historyService)
	historyHandlers.RegisterRoutes(s.echo.Group("/history"))
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// --- Handler implementations ---

type lookupRequest struct {
	Input  string `json:"input"`
	Locale string `json:"locale"`
}

// handleLookup resolves a streaming link or free-text title into metadata.
// POST /lookup
func (s *Server) handleLookup(c echo.Context) error {
	var req lookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, lookup.Failure(lookup.ErrCodeValidation,
			"Input is required and must be a non-empty string"))
	}

	trimmed := strings.TrimSpace(req.Input)
	if trimmed == "" {
		return c.JSON(http.StatusBadRequest, lookup.Failure(lookup.ErrCodeValidation,
			"Input is required and must be a non-empty string"))
	}
	if utf8.RuneCountInString(req.Input) > maxInputLength {
		return c.JSON(http.StatusBadRequest, lookup.Failure(lookup.ErrCodeValidation,
			"Input must be 500 characters or less"))
	}

	result := s.lookupService.Lookup(c.Request().Context(), trimmed, req.Locale)

	if result.Success {
		// History is presentation glue: a write failure never fails the
		// lookup itself.
		if _, err := s.historyService.Save(c.Request().Context(), history.SaveInput{
			Input:     trimmed,
			Title:     result.Title,
			Service:   result.Service,
			Rating:    result.Rating,
			Genre:     result.Genre,
			Runtime:   result.Runtime,
			Year:      result.Year,
			ImdbID:    result.ImdbID,
			PosterURL: result.Poster,
		}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to save history entry")
		}
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"name":    "StreamWise API",
		"version": config.Version,
	})
}
