package movies

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/marquee/internal/tmdb"
)

// Handlers provides HTTP handlers for movie operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new movie handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the movie routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Popular)
	g.GET("/search", h.Search)
	g.GET("/genres", h.Genres)
	g.GET("/discover", h.Discover)
	g.GET("/:id", h.Movie)
}

type pageRequest struct {
	Page int `query:"page" validate:"min=1"`
}

type searchRequest struct {
	Query        string `query:"q"`
	Page         int    `query:"page" validate:"min=1"`
	IncludeAdult string `query:"include_adult"`
}

type movieRequest struct {
	ID int `param:"id" validate:"min=1"`
}

// Popular returns popular movies.
// GET /api/movies?page=
func (h *Handlers) Popular(c echo.Context) error {
	req := pageRequest{Page: 1}
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Popular(c.Request().Context(), req.Page)
	if err != nil {
		return internalError("Failed to fetch popular movies", err)
	}

	return c.JSON(http.StatusOK, OK(*result))
}

// Search searches movies by title.
// GET /api/movies/search?q=&page=&include_adult=
func (h *Handlers) Search(c echo.Context) error {
	req := searchRequest{Page: 1}
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Search(c.Request().Context(), SearchInput{
		Query:        req.Query,
		Page:         req.Page,
		IncludeAdult: strings.EqualFold(req.IncludeAdult, "true"),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyQuery):
			return echo.NewHTTPError(http.StatusBadRequest, "Search query is required")
		case errors.Is(err, tmdb.ErrUnauthorized):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key").SetInternal(err)
		case errors.Is(err, tmdb.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Resource not found").SetInternal(err)
		}
		return internalError("Failed to search movies", err)
	}

	return c.JSON(http.StatusOK, OK(*result))
}

// Genres returns the genre list.
// GET /api/movies/genres
func (h *Handlers) Genres(c echo.Context) error {
	genres, err := h.service.Genres(c.Request().Context())
	if err != nil {
		return internalError("Failed to fetch genres", err)
	}
	return c.JSON(http.StatusOK, OK(genres))
}

// Discover returns movies matching optional filters.
// GET /api/movies/discover?page=&with_genres=&sort_by=&release_date_gte=&release_date_lte=
func (h *Handlers) Discover(c echo.Context) error {
	req := pageRequest{Page: 1}
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Discover(c.Request().Context(), DiscoverInput{
		Page:           req.Page,
		WithGenres:     optionalQuery(c, "with_genres"),
		SortBy:         optionalQuery(c, "sort_by"),
		ReleaseDateGte: optionalQuery(c, "release_date_gte"),
		ReleaseDateLte: optionalQuery(c, "release_date_lte"),
	})
	if err != nil {
		return internalError("Failed to discover movies", err)
	}

	return c.JSON(http.StatusOK, OK(*result))
}

// Movie returns the full record of one movie.
// GET /api/movies/:id
func (h *Handlers) Movie(c echo.Context) error {
	var req movieRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	movie, err := h.service.Movie(c.Request().Context(), req.ID)
	if err != nil {
		switch {
		case errors.Is(err, tmdb.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Movie not found").SetInternal(err)
		case errors.Is(err, tmdb.ErrUnauthorized):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key").SetInternal(err)
		}
		return internalError("Failed to fetch movie details", err)
	}

	return c.JSON(http.StatusOK, OK(*movie))
}

// bindAndValidate binds path and query parameters and runs struct validation.
// Non-numeric values for numeric fields are rejected with 400.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Validation failed (numeric string is expected)").SetInternal(err)
	}
	return c.Validate(req)
}

func optionalQuery(c echo.Context, name string) *string {
	values, ok := c.QueryParams()[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func internalError(message string, err error) error {
	return echo.NewHTTPError(http.StatusInternalServerError, message).SetInternal(err)
}
