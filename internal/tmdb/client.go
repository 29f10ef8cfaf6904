package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/slipstream/marquee/internal/config"
	"github.com/slipstream/marquee/internal/metrics"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrUnauthorized  = errors.New("invalid API key")
	ErrNotFound      = errors.New("resource not found")
	ErrBadRequest    = errors.New("bad request")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = fmt.Errorf("%w: rate limited", ErrAPIError)
	ErrCircuitOpen   = fmt.Errorf("%w: circuit open", ErrAPIError)
)

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
	breaker    *gobreaker.CircuitBreaker[struct{}]
	pacer      *rate.Limiter
	images     *ConfigCache
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
	if cfg.Breaker.Enabled {
		c.breaker = newBreaker(cfg.Breaker, c.logger)
	}
	if cfg.RequestsPerSecond > 0 {
		c.pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.RequestsPerSecond/2, 1))
	}
	c.images = NewConfigCache(c.fetchConfiguration)
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity by fetching the provider configuration, bypassing the cache.
func (c *Client) Test(ctx context.Context) error {
	_, err := c.fetchConfiguration(ctx)
	return err
}

// Popular returns a page of popular movies. Pages below 1 are treated as 1.
func (c *Client) Popular(ctx context.Context, page int) (*PagedMovies, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(normalizePage(page)))

	var result PagedMovies
	if err := c.doRequest(ctx, "movie_popular", "/movie/popular", params, &result); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("page", result.Page).
		Int("results", len(result.Results)).
		Msg("Fetched popular movies")

	return &result, nil
}

// SearchMovies searches movies by title. The query is trimmed and must not be empty.
func (c *Client) SearchMovies(ctx context.Context, query string, page int, includeAdult bool) (*PagedMovies, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrBadRequest)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(normalizePage(page)))
	params.Set("include_adult", strconv.FormatBool(includeAdult))

	var result PagedMovies
	if err := c.doRequest(ctx, "search_movie", "/search/movie", params, &result); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("query", query).
		Int("page", result.Page).
		Int("results", len(result.Results)).
		Msg("Movie search completed")

	return &result, nil
}

// GetMovie returns the full record of a movie.
func (c *Client) GetMovie(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.doRequest(ctx, "movie_detail", fmt.Sprintf("/movie/%d", id), nil, &details); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("id", id).
		Str("title", details.Title).
		Msg("Got movie details")

	return &details, nil
}

// Genres returns the movie genre list in provider order.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var result GenreList
	if err := c.doRequest(ctx, "genre_list", "/genre/movie/list", nil, &result); err != nil {
		return nil, err
	}
	if result.Genres == nil {
		result.Genres = []Genre{}
	}

	c.logger.Debug().Int("genres", len(result.Genres)).Msg("Fetched genres")

	return result.Genres, nil
}

// Discover returns movies matching the given filters. Unset filters are omitted from the request.
func (c *Client) Discover(ctx context.Context, filters DiscoverFilters) (*PagedMovies, error) {
	page := 1
	if filters.Page != nil {
		page = normalizePage(*filters.Page)
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	setIfPresent(params, "with_genres", filters.WithGenres)
	setIfPresent(params, "sort_by", filters.SortBy)
	setIfPresent(params, "release_date.gte", filters.ReleaseDateGte)
	setIfPresent(params, "release_date.lte", filters.ReleaseDateLte)

	var result PagedMovies
	if err := c.doRequest(ctx, "discover_movie", "/discover/movie", params, &result); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("page", result.Page).
		Int("results", len(result.Results)).
		Msg("Discovered movies")

	return &result, nil
}

// Configuration returns the provider configuration, fetching it on first use.
func (c *Client) Configuration(ctx context.Context) (*Configuration, error) {
	return c.images.Get(ctx)
}

// InvalidateConfiguration drops the cached provider configuration.
func (c *Client) InvalidateConfiguration() {
	c.images.Invalidate()
}

// ImageURL builds an absolute image URL. A nil or empty path yields "" without fetching configuration.
func (c *Client) ImageURL(ctx context.Context, path *string, size ImageSize) (string, error) {
	if path == nil || *path == "" {
		return "", nil
	}
	cfg, err := c.Configuration(ctx)
	if err != nil {
		return "", err
	}
	return cfg.Images.SecureBaseURL + string(size) + *path, nil
}

// PosterURL builds a poster URL, defaulting to w500.
func (c *Client) PosterURL(ctx context.Context, path *string, size ImageSize) (string, error) {
	if size == "" {
		size = SizeW500
	}
	return c.ImageURL(ctx, path, size)
}

// BackdropURL builds a backdrop URL, defaulting to w1280.
func (c *Client) BackdropURL(ctx context.Context, path *string, size ImageSize) (string, error) {
	if size == "" {
		size = SizeW1280
	}
	return c.ImageURL(ctx, path, size)
}

func (c *Client) fetchConfiguration(ctx context.Context) (*Configuration, error) {
	var cfg Configuration
	if err := c.doRequest(ctx, "configuration", "/configuration", nil, &cfg); err != nil {
		return nil, err
	}
	c.logger.Info().Str("secureBaseUrl", cfg.Images.SecureBaseURL).Msg("Loaded TMDB configuration")
	return &cfg, nil
}

// doRequest performs a GET against the provider and decodes the JSON body into result.
// Failures are never retried.
func (c *Client) doRequest(ctx context.Context, name, path string, params url.Values, result any) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrAPIError, err)
		}
	}

	start := time.Now()
	err := c.execute(func() error {
		return c.send(ctx, path, params, result)
	})
	metrics.RecordUpstreamRequest(name, Outcome(err), time.Since(start))

	return err
}

func (c *Client) execute(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

func (c *Client) send(ctx context.Context, path string, params url.Values, result any) error {
	reqURL := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("HTTP request failed")
		return fmt.Errorf("%w: %w", ErrAPIError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("path", path).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s", ErrBadRequest, errResp.StatusMessage)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrAPIError, err)
	}

	return nil
}

// Outcome classifies an error returned by the client.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func setIfPresent(params url.Values, key string, value *string) {
	if value != nil {
		params.Set(key, *value)
	}
}
