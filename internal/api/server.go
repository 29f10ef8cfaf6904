package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/slipstream/marquee/internal/api/handlers"
	apimw "github.com/slipstream/marquee/internal/api/middleware"
	"github.com/slipstream/marquee/internal/api/ratelimit"
	"github.com/slipstream/marquee/internal/config"
	"github.com/slipstream/marquee/internal/movies"
	"github.com/slipstream/marquee/internal/scheduler"
	"github.com/slipstream/marquee/internal/validation"
)

// Deps are the services the server routes to. Scheduler and Logs are optional.
type Deps struct {
	Movies    *movies.Service
	Limiter   *ratelimit.Limiter
	Scheduler *scheduler.Scheduler
	Logs      handlers.LogsProvider
}

// Server handles HTTP requests for the Marquee API.
type Server struct {
	echo    *echo.Echo
	cfg     *config.Config
	deps    Deps
	origins *OriginMatcher
	logger  zerolog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, deps Deps, logger zerolog.Logger) (*Server, error) {
	origins, err := NewOriginMatcher(cfg.CORS.FrontendURL, cfg.CORS.OriginPatterns)
	if err != nil {
		return nil, err
	}

	if deps.Limiter == nil {
		deps.Limiter = ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window(), logger)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.EchoValidator{}

	s := &Server{
		echo:    e,
		cfg:     cfg,
		deps:    deps,
		origins: origins,
		logger:  logger.With().Str("component", "api").Logger(),
	}
	e.HTTPErrorHandler = s.errorHandler

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: s.origins.Allow,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:    []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	s.echo.Use(apimw.SecurityHeaders(s.cfg.Server.Prefix))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := s.logger.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = s.logger.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("ip", v.RemoteIP).
				Str("requestId", v.RequestID).
				Msg("request")
			return nil
		},
	}))

	s.echo.Use(apimw.Metrics())

	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group(s.cfg.Server.Prefix, s.deps.Limiter.Middleware())

	movies.NewHandlers(s.deps.Movies).RegisterRoutes(api.Group("/movies"))

	system := api.Group("/system")
	if s.deps.Scheduler != nil {
		handlers.NewSchedulerHandler(s.deps.Scheduler).RegisterRoutes(system.Group("/tasks"))
	}
	if s.deps.Logs != nil {
		handlers.NewLogsHandler(s.deps.Logs).RegisterRoutes(system.Group("/logs"))
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
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

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// errorHandler renders every error as a failure envelope.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := failureEnvelope(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		s.logger.Error().Err(writeErr).Msg("failed to write error response")
	}
}

func failureEnvelope(err error) (int, movies.Envelope[struct{}]) {
	var reqErr *validation.RequestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest, movies.Fail("Validation failed", reqErr.Messages()...)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, movies.Fail(msg)
	}

	return http.StatusInternalServerError, movies.Fail("Internal server error")
}
