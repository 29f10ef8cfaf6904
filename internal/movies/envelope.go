package movies

import "github.com/slipstream/marquee/internal/tmdb"

// Envelope is the uniform response wrapper. Data is present only on success,
// Message and Errors only on failure.
type Envelope[T any] struct {
	Success bool     `json:"success"`
	Data    *T       `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// OK wraps data in a success envelope.
func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: &data}
}

// Fail builds a failure envelope.
func Fail(message string, errs ...string) Envelope[struct{}] {
	return Envelope[struct{}]{Success: false, Message: message, Errors: errs}
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page         int `json:"page"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
}

// MoviesPage is a page of movies.
type MoviesPage struct {
	Movies     []tmdb.MovieResult `json:"movies"`
	Pagination Pagination         `json:"pagination"`
}

// SearchPage is a page of search results with the query that produced it.
type SearchPage struct {
	MoviesPage
	SearchQuery string `json:"searchQuery"`
}

// DiscoverPage is a page of discover results with the filters as received.
type DiscoverPage struct {
	MoviesPage
	Filters FiltersEcho `json:"filters"`
}

// FiltersEcho repeats the discover parameters. Parameters that were not sent are omitted.
type FiltersEcho struct {
	Genres         *string `json:"genres,omitempty"`
	SortBy         *string `json:"sortBy,omitempty"`
	ReleaseDateGte *string `json:"releaseDateGte,omitempty"`
	ReleaseDateLte *string `json:"releaseDateLte,omitempty"`
}

func pageOf(result *tmdb.PagedMovies) MoviesPage {
	movies := result.Results
	if movies == nil {
		movies = []tmdb.MovieResult{}
	}
	return MoviesPage{
		Movies: movies,
		Pagination: Pagination{
			Page:         result.Page,
			TotalPages:   result.TotalPages,
			TotalResults: result.TotalResults,
		},
	}
}
