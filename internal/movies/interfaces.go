package movies

import (
	"context"

	"github.com/slipstream/marquee/internal/tmdb"
)

// Provider is the upstream movie metadata source. *tmdb.Client implements it.
type Provider interface {
	Popular(ctx context.Context, page int) (*tmdb.PagedMovies, error)
	SearchMovies(ctx context.Context, query string, page int, includeAdult bool) (*tmdb.PagedMovies, error)
	GetMovie(ctx context.Context, id int) (*tmdb.MovieDetails, error)
	Genres(ctx context.Context) ([]tmdb.Genre, error)
	Discover(ctx context.Context, filters tmdb.DiscoverFilters) (*tmdb.PagedMovies, error)
}

var _ Provider = (*tmdb.Client)(nil)
