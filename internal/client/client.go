// Package client is the data-fetching layer over the marquee proxy API.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/slipstream/marquee/internal/movies"
	"github.com/slipstream/marquee/internal/tmdb"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Endpoint names used in query keys.
const (
	EndpointPopular  = "getPopularMovies"
	EndpointSearch   = "searchMovies"
	EndpointGenres   = "getGenres"
	EndpointDiscover = "discoverMovies"
	EndpointMovie    = "getMovieDetails"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger

	// MaxRetries enables retries of transport errors and 502/503/504 answers.
	// Zero (the default) sends every request exactly once.
	MaxRetries int
	RetryWait  time.Duration
}

// Client calls the proxy API and caches its answers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *QueryCache
	logger     zerolog.Logger
	maxRetries int
	retryWait  time.Duration
}

// New creates a client for the proxy at opts.BaseURL, e.g. "http://localhost:3000/api".
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	wait := opts.RetryWait
	if wait <= 0 {
		wait = 200 * time.Millisecond
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		cache:      NewQueryCache(opts.CacheTTL),
		logger:     opts.Logger.With().Str("component", "client").Logger(),
		maxRetries: max(opts.MaxRetries, 0),
		retryWait:  wait,
	}
}

// Cache exposes the query cache.
func (c *Client) Cache() *QueryCache {
	return c.cache
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	refetch bool
}

// Refetch bypasses the cached value and replaces it with a fresh response.
func Refetch() CallOption {
	return func(o *callOptions) { o.refetch = true }
}

// SearchParams are the parameters of a search request.
type SearchParams struct {
	Query        string
	Page         int
	IncludeAdult bool
}

// DiscoverParams are the parameters of a discover request. Empty strings are not sent.
type DiscoverParams struct {
	Page           int
	WithGenres     string
	SortBy         string
	ReleaseDateGte string
	ReleaseDateLte string
}

func (p DiscoverParams) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(max(p.Page, 1)))
	v.Set("with_genres", p.WithGenres)
	v.Set("sort_by", p.SortBy)
	v.Set("release_date_gte", p.ReleaseDateGte)
	v.Set("release_date_lte", p.ReleaseDateLte)
	return v
}

// Popular fetches a page of popular movies.
func (c *Client) Popular(ctx context.Context, page int, opts ...CallOption) (*movies.MoviesPage, error) {
	params := url.Values{"page": {strconv.Itoa(max(page, 1))}}
	return query[movies.MoviesPage](ctx, c, EndpointPopular, "/movies", params, []string{TagMovies}, opts)
}

// Search fetches a page of title search results.
func (c *Client) Search(ctx context.Context, p SearchParams, opts ...CallOption) (*movies.SearchPage, error) {
	params := url.Values{
		"q":             {p.Query},
		"page":          {strconv.Itoa(max(p.Page, 1))},
		"include_adult": {strconv.FormatBool(p.IncludeAdult)},
	}
	return query[movies.SearchPage](ctx, c, EndpointSearch, "/movies/search", params, []string{TagMovies}, opts)
}

// Genres fetches the genre list.
func (c *Client) Genres(ctx context.Context, opts ...CallOption) ([]tmdb.Genre, error) {
	genres, err := query[[]tmdb.Genre](ctx, c, EndpointGenres, "/movies/genres", nil, []string{TagGenres}, opts)
	if err != nil {
		return nil, err
	}
	return *genres, nil
}

// Discover fetches a page of movies matching the filters.
func (c *Client) Discover(ctx context.Context, p DiscoverParams, opts ...CallOption) (*movies.DiscoverPage, error) {
	return query[movies.DiscoverPage](ctx, c, EndpointDiscover, "/movies/discover", p.values(), []string{TagMovies}, opts)
}

// Movie fetches the full record of one movie.
func (c *Client) Movie(ctx context.Context, id int, opts ...CallOption) (*tmdb.MovieDetails, error) {
	params := url.Values{"id": {strconv.Itoa(id)}}
	path := "/movies/" + strconv.Itoa(id)
	return queryPath[tmdb.MovieDetails](ctx, c, EndpointMovie, path, params, nil, []string{MovieTag(id)}, opts)
}

func query[T any](ctx context.Context, c *Client, endpoint, path string, params url.Values, tags []string, opts []CallOption) (*T, error) {
	return queryPath[T](ctx, c, endpoint, path, params, params, tags, opts)
}

// queryPath runs a cached GET. keyParams identify the request; sendParams go on the query string.
func queryPath[T any](ctx context.Context, c *Client, endpoint, path string, keyParams, sendParams url.Values, tags []string, opts []CallOption) (*T, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	key := QueryKey(endpoint, keyParams)
	v, err := c.cache.Do(ctx, key, tags, o.refetch, func(ctx context.Context) (any, error) {
		return get[T](ctx, c, path, sendParams)
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// get performs the request, retrying transient failures when enabled, and unwraps the envelope.
func get[T any](ctx context.Context, c *Client, path string, params url.Values) (*T, error) {
	target := c.baseURL + path
	if enc := nonEmpty(params).Encode(); enc != "" {
		target += "?" + enc
	}

	var out *T
	op := func() error {
		data, err := fetchOnce[T](ctx, c.httpClient, target)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.retryable() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		out = data
		return nil
	}

	err := backoff.RetryNotify(op, c.backOff(ctx), func(err error, wait time.Duration) {
		c.logger.Debug().Err(err).Str("path", path).Dur("wait", wait).Msg("Retrying request")
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("Request failed")
		return nil, err
	}
	return out, nil
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryWait
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
}

func fetchOnce[T any](ctx context.Context, httpClient *http.Client, target string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env movies.Envelope[T]
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode >= http.StatusBadRequest || (decodeErr == nil && !env.Success) {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil {
			if env.Message != "" {
				apiErr.Message = env.Message
			}
			apiErr.Errors = env.Errors
		} else if len(body) > 0 && len(body) < maxErrorBody {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if env.Data == nil {
		return nil, errors.New("response has no data")
	}
	return env.Data, nil
}

func nonEmpty(params url.Values) url.Values {
	out := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				out.Add(k, v)
			}
		}
	}
	return out
}
