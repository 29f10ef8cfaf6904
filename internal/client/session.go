package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/marquee/internal/movies"
	"github.com/slipstream/marquee/internal/store"
	"github.com/slipstream/marquee/internal/tmdb"
)

// ListingView is the movie listing for the active mode.
type ListingView struct {
	Mode       store.Mode
	Title      string
	Subtitle   string
	Movies     []tmdb.MovieResult
	Pagination movies.Pagination
}

// Session drives a store from user actions and keeps the query results the views render.
// Listing and detail responses that arrive after a newer request was issued are discarded.
type Session struct {
	store     *store.Store
	client    *Client
	debouncer *Debouncer
	logger    zerolog.Logger

	listingSeq Sequencer
	detailSeq  Sequencer

	mu      sync.RWMutex
	listing Result[ListingView]
	genres  Result[[]tmdb.Genre]
	detail  Result[tmdb.MovieDetails]
}

// NewSession binds st to c. Search input is debounced by debounce.
func NewSession(st *store.Store, c *Client, debounce time.Duration, logger zerolog.Logger) *Session {
	return &Session{
		store:     st,
		client:    c,
		debouncer: NewDebouncer(debounce),
		logger:    logger.With().Str("component", "session").Logger(),
	}
}

// Store returns the UI state store the session drives.
func (s *Session) Store() *store.Store {
	return s.store
}

// Current returns the listing result.
func (s *Session) Current() Result[ListingView] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listing
}

// Genres returns the genre list result.
func (s *Session) Genres() Result[[]tmdb.Genre] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.genres
}

// Detail returns the result for the movie open in the detail view.
func (s *Session) Detail() Result[tmdb.MovieDetails] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detail
}

// Close drops any pending debounced search.
func (s *Session) Close() {
	s.debouncer.Stop()
}

// TypeSearch records keystrokes. Only the last query typed within the debounce delay is searched.
func (s *Session) TypeSearch(ctx context.Context, q string) {
	s.debouncer.Trigger(func() {
		if err := s.Search(ctx, q); err != nil && !errors.Is(err, ErrStale) {
			s.logger.Warn().Err(err).Str("query", q).Msg("Search failed")
		}
	})
}

// FlushSearch runs a pending debounced search immediately.
func (s *Session) FlushSearch() {
	s.debouncer.Flush()
}

// Search submits q immediately, cancelling any pending debounced search.
func (s *Session) Search(ctx context.Context, q string) error {
	s.debouncer.Stop()
	s.store.SetSearchQuery(q)
	return s.Load(ctx)
}

// ClearSearch returns to the popular or filtered listing.
func (s *Session) ClearSearch(ctx context.Context) error {
	s.debouncer.Stop()
	s.store.ClearSearch()
	return s.Load(ctx)
}

// SetPage moves to page and loads it.
func (s *Session) SetPage(ctx context.Context, page int) error {
	s.store.SetPage(page)
	return s.Load(ctx)
}

// ToggleGenre adds or removes a genre filter and reloads the listing.
func (s *Session) ToggleGenre(ctx context.Context, id int) error {
	s.store.ToggleGenre(id)
	return s.Load(ctx)
}

// SetSortBy changes the sort order and reloads the listing.
func (s *Session) SetSortBy(ctx context.Context, key store.SortKey) error {
	s.store.SetSortBy(key)
	return s.Load(ctx)
}

// SetMinRating sets the minimum rating filter and reloads the listing.
func (s *Session) SetMinRating(ctx context.Context, rating float64) error {
	s.store.SetMinRating(rating)
	return s.Load(ctx)
}

// SetReleaseYear sets the release year filter, or clears it when year is nil.
func (s *Session) SetReleaseYear(ctx context.Context, year *int) error {
	s.store.SetReleaseYear(year)
	return s.Load(ctx)
}

// ClearFilters resets all filters and reloads the listing.
func (s *Session) ClearFilters(ctx context.Context) error {
	s.store.ClearFilters()
	return s.Load(ctx)
}

// Refresh drops cached listings and reloads the active one.
func (s *Session) Refresh(ctx context.Context) error {
	s.client.Cache().InvalidateTags(TagMovies)
	return s.load(ctx, Refetch())
}

// Load fetches the listing for the store's current state.
func (s *Session) Load(ctx context.Context) error {
	return s.load(ctx)
}

func (s *Session) load(ctx context.Context, opts ...CallOption) error {
	st := s.store.Snapshot()
	req := st.Request()
	n := s.listingSeq.Next()

	s.mu.Lock()
	s.listing = s.listing.loading()
	s.mu.Unlock()

	page, err := s.fetchListing(ctx, req, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.listingSeq.IsLatest(n) {
		return ErrStale
	}
	if err != nil {
		s.listing = failed[ListingView](err)
		return err
	}
	s.listing = succeeded(&ListingView{
		Mode:       req.Mode,
		Title:      req.Mode.Title(),
		Subtitle:   req.Mode.Subtitle(page.Pagination.TotalResults),
		Movies:     page.Movies,
		Pagination: page.Pagination,
	})
	return nil
}

func (s *Session) fetchListing(ctx context.Context, req store.Request, opts []CallOption) (*movies.MoviesPage, error) {
	switch req.Mode.Kind {
	case store.ModeSearching:
		res, err := s.client.Search(ctx, SearchParams{Query: req.Query, Page: req.Page}, opts...)
		if err != nil {
			return nil, err
		}
		return &res.MoviesPage, nil
	case store.ModeFiltering:
		res, err := s.client.Discover(ctx, DiscoverParams{
			Page:           req.Page,
			WithGenres:     req.WithGenres,
			SortBy:         req.SortBy,
			ReleaseDateGte: req.ReleaseDateGte,
		}, opts...)
		if err != nil {
			return nil, err
		}
		return &res.MoviesPage, nil
	default:
		return s.client.Popular(ctx, req.Page, opts...)
	}
}

// LoadGenres fetches the genre list and stores it.
func (s *Session) LoadGenres(ctx context.Context) error {
	s.mu.Lock()
	s.genres = s.genres.loading()
	s.mu.Unlock()

	genres, err := s.client.Genres(ctx)

	s.mu.Lock()
	if err != nil {
		s.genres = failed[[]tmdb.Genre](err)
		s.mu.Unlock()
		return err
	}
	s.genres = succeeded(&genres)
	s.mu.Unlock()

	s.store.SetGenres(genres)
	return nil
}

// OpenMovie opens the detail view for id and loads the movie.
func (s *Session) OpenMovie(ctx context.Context, id int) error {
	s.store.OpenMovieModal(id)
	n := s.detailSeq.Next()

	s.mu.Lock()
	s.detail = Result[tmdb.MovieDetails]{Loading: true}
	s.mu.Unlock()

	movie, err := s.client.Movie(ctx, id)

	s.mu.Lock()
	if !s.detailSeq.IsLatest(n) {
		s.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		s.detail = failed[tmdb.MovieDetails](err)
		s.mu.Unlock()
		return err
	}
	s.detail = succeeded(movie)
	s.mu.Unlock()

	s.store.SetSelectedMovie(movie)
	return nil
}

// CloseMovie closes the detail view. A load still in flight is discarded.
func (s *Session) CloseMovie() {
	s.detailSeq.Next()
	s.store.CloseModal()

	s.mu.Lock()
	s.detail = Result[tmdb.MovieDetails]{}
	s.mu.Unlock()
}
