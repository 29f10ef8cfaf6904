package handlers

import (
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/marquee/internal/logger"
	"github.com/slipstream/marquee/internal/movies"
)

// LogsProvider gives access to recent log output.
type LogsProvider interface {
	Tail() *logger.Tail
	FilePath() string
}

// LogsHandler serves recent log entries and the rotated log file.
type LogsHandler struct {
	provider LogsProvider
}

// NewLogsHandler creates a new logs handler.
func NewLogsHandler(provider LogsProvider) *LogsHandler {
	return &LogsHandler{provider: provider}
}

// RegisterRoutes registers log routes.
func (h *LogsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Recent)
	g.GET("/download", h.Download)
}

// Recent returns buffered log entries, newest last. ?limit= keeps only the last N.
// GET /api/system/logs
func (h *LogsHandler) Recent(c echo.Context) error {
	entries := []logger.Entry{}
	if tail := h.provider.Tail(); tail != nil {
		entries = tail.Entries()
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		if limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}

	return c.JSON(http.StatusOK, movies.OK(entries))
}

// Download serves the current log file.
// GET /api/system/logs/download
func (h *LogsHandler) Download(c echo.Context) error {
	path := h.provider.FilePath()
	if path == "" {
		return echo.NewHTTPError(http.StatusNotFound, "No log file configured")
	}
	if _, err := os.Stat(path); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Log file not found")
	}
	return c.Attachment(path, logger.FileName)
}
