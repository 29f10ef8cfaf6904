package movies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/slipstream/marquee/internal/tmdb"
)

// ErrEmptyQuery is returned when a search query is blank after trimming.
var ErrEmptyQuery = errors.New("search query is required")

// SearchInput holds search parameters.
type SearchInput struct {
	Query        string
	Page         int
	IncludeAdult bool
}

// DiscoverInput holds discover parameters. Nil fields were not supplied.
type DiscoverInput struct {
	Page           int
	WithGenres     *string
	SortBy         *string
	ReleaseDateGte *string
	ReleaseDateLte *string
}

// Service is a pass-through over the provider that shapes results into response payloads.
type Service struct {
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a new movies service.
func NewService(provider Provider, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger.With().Str("component", "movies").Logger(),
	}
}

// Popular returns a page of popular movies.
func (s *Service) Popular(ctx context.Context, page int) (*MoviesPage, error) {
	s.logger.Info().Int("page", page).Msg("Fetching popular movies")

	result, err := s.provider.Popular(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("popular movies failed: %w", err)
	}

	out := pageOf(result)
	return &out, nil
}

// Search returns movies whose title matches the trimmed query.
func (s *Service) Search(ctx context.Context, in SearchInput) (*SearchPage, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	s.logger.Info().Str("query", query).Int("page", in.Page).Msg("Searching movies")

	result, err := s.provider.SearchMovies(ctx, query, in.Page, in.IncludeAdult)
	if err != nil {
		return nil, fmt.Errorf("movie search failed: %w", err)
	}

	return &SearchPage{MoviesPage: pageOf(result), SearchQuery: query}, nil
}

// Genres returns the genre list.
func (s *Service) Genres(ctx context.Context) ([]tmdb.Genre, error) {
	s.logger.Info().Msg("Fetching genres")

	genres, err := s.provider.Genres(ctx)
	if err != nil {
		return nil, fmt.Errorf("genre list failed: %w", err)
	}
	if genres == nil {
		genres = []tmdb.Genre{}
	}
	return genres, nil
}

// Discover returns movies matching the filters and echoes the filters back.
func (s *Service) Discover(ctx context.Context, in DiscoverInput) (*DiscoverPage, error) {
	s.logger.Info().
		Int("page", in.Page).
		Interface("withGenres", in.WithGenres).
		Interface("sortBy", in.SortBy).
		Msg("Discovering movies")

	page := in.Page
	result, err := s.provider.Discover(ctx, tmdb.DiscoverFilters{
		Page:           &page,
		WithGenres:     in.WithGenres,
		SortBy:         in.SortBy,
		ReleaseDateGte: in.ReleaseDateGte,
		ReleaseDateLte: in.ReleaseDateLte,
	})
	if err != nil {
		return nil, fmt.Errorf("discover failed: %w", err)
	}

	return &DiscoverPage{
		MoviesPage: pageOf(result),
		Filters: FiltersEcho{
			Genres:         in.WithGenres,
			SortBy:         in.SortBy,
			ReleaseDateGte: in.ReleaseDateGte,
			ReleaseDateLte: in.ReleaseDateLte,
		},
	}, nil
}

// Movie returns the full record of one movie.
func (s *Service) Movie(ctx context.Context, id int) (*tmdb.MovieDetails, error) {
	s.logger.Info().Int("id", id).Msg("Fetching movie details")

	movie, err := s.provider.GetMovie(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("movie details failed: %w", err)
	}
	return movie, nil
}
