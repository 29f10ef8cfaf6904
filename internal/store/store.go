// Package store holds the client-side view state of a browsing session.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slipstream/marquee/internal/favorites"
	"github.com/slipstream/marquee/internal/tmdb"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
	NotifyWarning NotificationType = "warning"
	NotifyInfo    NotificationType = "info"
)

// Notification is a transient message shown to the user.
type Notification struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
}

// State is a point-in-time copy of the store.
type State struct {
	Filters       FilterState        `json:"filters"`
	Genres        []tmdb.Genre       `json:"genres"`
	SelectedMovie *tmdb.MovieDetails `json:"selectedMovie,omitempty"`
	ViewMode      ViewMode           `json:"viewMode"`

	Theme           Theme          `json:"theme"`
	SidebarOpen     bool           `json:"sidebarOpen"`
	ModalOpen       bool           `json:"modalOpen"`
	SelectedMovieID *int           `json:"selectedMovieId,omitempty"`
	Page            int            `json:"currentPage"`
	Notifications   []Notification `json:"notifications"`
}

// Mode returns the active listing mode.
func (s State) Mode() Mode {
	return ModeOf(s.Filters)
}

// Request returns the server request for the active mode and page.
func (s State) Request() Request {
	return RequestFor(s.Filters, s.Page)
}

func initialState() State {
	return State{
		Filters:       DefaultFilters(),
		Genres:        []tmdb.Genre{},
		ViewMode:      ViewGrid,
		Theme:         ThemeLight,
		Page:          1,
		Notifications: []Notification{},
	}
}

// Listener is called with the new state after every change.
type Listener func(State)

// Store is the mutex-guarded view state. Favorites are delegated to a favorites.Store.
type Store struct {
	mu        sync.RWMutex
	state     State
	favorites favorites.Store

	listenersMu sync.Mutex
	listeners   map[uint64]Listener
	nextID      uint64

	now   func() time.Time
	newID func() string
}

// New creates a store at its initial state. A nil favorites store falls back to memory.
func New(favs favorites.Store) *Store {
	if favs == nil {
		favs = favorites.NewMemoryStore()
	}
	return &Store{
		state:     initialState(),
		favorites: favs,
		listeners: make(map[uint64]Listener),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn for change notifications and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

// update applies fn under the lock, resets the page when the active request changed,
// and notifies listeners.
func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	before := s.state.Filters.Clone()
	fn(&s.state)
	if resetsPage(before, s.state.Filters) {
		s.state.Page = 1
	}
	snap := s.state.clone()
	s.mu.Unlock()

	s.listenersMu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.listenersMu.Unlock()

	for _, l := range fns {
		l(snap)
	}
}

// resetsPage reports whether going from before to after changes the active mode or its parameters.
// Filter edits while searching do not change the active request.
func resetsPage(before, after FilterState) bool {
	rb, ra := RequestFor(before, 1), RequestFor(after, 1)
	if rb != ra {
		return true
	}
	if ra.Mode.Kind == ModeSearching {
		return false
	}
	return !filtersEqual(before, after)
}

func filtersEqual(a, b FilterState) bool {
	if a.SortBy != b.SortBy || a.MinRating != b.MinRating {
		return false
	}
	if (a.ReleaseYear == nil) != (b.ReleaseYear == nil) {
		return false
	}
	if a.ReleaseYear != nil && *a.ReleaseYear != *b.ReleaseYear {
		return false
	}
	return slices.Equal(a.SelectedGenres, b.SelectedGenres)
}

func (s State) clone() State {
	out := s
	out.Filters = s.Filters.Clone()
	out.Genres = slices.Clone(s.Genres)
	out.Notifications = slices.Clone(s.Notifications)
	if s.SelectedMovieID != nil {
		id := *s.SelectedMovieID
		out.SelectedMovieID = &id
	}
	return out
}

// Search and filters.

func (s *Store) SetSearchQuery(q string) {
	s.update(func(st *State) { st.Filters.Query = q })
}

func (s *Store) ClearSearch() {
	s.update(func(st *State) { st.Filters.Query = "" })
}

func (s *Store) SetSelectedGenres(ids []int) {
	s.update(func(st *State) { st.Filters.SelectedGenres = uniqueGenres(ids) })
}

// ToggleGenre adds id to the selected genres, or removes it when already selected.
func (s *Store) ToggleGenre(id int) {
	s.update(func(st *State) {
		if i := slices.Index(st.Filters.SelectedGenres, id); i >= 0 {
			st.Filters.SelectedGenres = slices.Delete(st.Filters.SelectedGenres, i, i+1)
			return
		}
		st.Filters.SelectedGenres = append(st.Filters.SelectedGenres, id)
	})
}

func (s *Store) SetSortBy(key SortKey) {
	s.update(func(st *State) { st.Filters.SortBy = key })
}

func (s *Store) SetMinRating(r float64) {
	s.update(func(st *State) { st.Filters.MinRating = r })
}

// SetReleaseYear sets the release year filter. nil clears it.
func (s *Store) SetReleaseYear(year *int) {
	s.update(func(st *State) {
		if year == nil {
			st.Filters.ReleaseYear = nil
			return
		}
		y := *year
		st.Filters.ReleaseYear = &y
	})
}

// ClearFilters restores every filter to its default. The search query is kept.
func (s *Store) ClearFilters() {
	s.update(func(st *State) {
		q := st.Filters.Query
		st.Filters = DefaultFilters()
		st.Filters.Query = q
	})
}

func (s *Store) SetGenres(genres []tmdb.Genre) {
	s.update(func(st *State) { st.Genres = slices.Clone(genres) })
}

func (s *Store) SetViewMode(m ViewMode) {
	s.update(func(st *State) { st.ViewMode = m })
}

func (s *Store) SetSelectedMovie(m *tmdb.MovieDetails) {
	s.update(func(st *State) { st.SelectedMovie = m })
}

// UI.

func (s *Store) SetTheme(t Theme) {
	s.update(func(st *State) { st.Theme = t })
}

func (s *Store) ToggleTheme() {
	s.update(func(st *State) {
		if st.Theme == ThemeDark {
			st.Theme = ThemeLight
		} else {
			st.Theme = ThemeDark
		}
	})
}

func (s *Store) SetSidebarOpen(open bool) {
	s.update(func(st *State) { st.SidebarOpen = open })
}

func (s *Store) ToggleSidebar() {
	s.update(func(st *State) { st.SidebarOpen = !st.SidebarOpen })
}

// OpenMovieModal opens the detail modal for id.
func (s *Store) OpenMovieModal(id int) {
	s.update(func(st *State) {
		st.ModalOpen = true
		st.SelectedMovieID = &id
	})
}

// CloseModal closes the detail modal and forgets the selected movie.
func (s *Store) CloseModal() {
	s.update(func(st *State) {
		st.ModalOpen = false
		st.SelectedMovieID = nil
		st.SelectedMovie = nil
	})
}

// SetPage sets the current page. Values below 1 are clamped to 1.
func (s *Store) SetPage(page int) {
	s.update(func(st *State) { st.Page = max(page, 1) })
}

// AddNotification appends a notification and returns its generated id.
func (s *Store) AddNotification(typ NotificationType, message string) string {
	n := Notification{
		ID:        s.newID(),
		Message:   message,
		Type:      typ,
		Timestamp: s.now(),
	}
	s.update(func(st *State) { st.Notifications = append(st.Notifications, n) })
	return n.ID
}

func (s *Store) RemoveNotification(id string) {
	s.update(func(st *State) {
		st.Notifications = slices.DeleteFunc(st.Notifications, func(n Notification) bool {
			return n.ID == id
		})
	})
}

func (s *Store) ClearNotifications() {
	s.update(func(st *State) { st.Notifications = []Notification{} })
}

// Favorites.

// AddFavorite saves movie. Adding a movie that is already a favorite is a no-op.
func (s *Store) AddFavorite(ctx context.Context, movie tmdb.MovieResult) error {
	if err := s.favorites.Put(ctx, favorites.Favorite{Movie: movie, AddedAt: s.now()}); err != nil {
		return err
	}
	s.update(func(*State) {})
	return nil
}

// RemoveFavorite removes id from the favorites. Removing a non-favorite is a no-op.
func (s *Store) RemoveFavorite(ctx context.Context, id int) error {
	err := s.favorites.Delete(ctx, id)
	if errors.Is(err, favorites.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.update(func(*State) {})
	return nil
}

// ToggleFavorite adds or removes movie and reports whether it is a favorite afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, movie tmdb.MovieResult) (bool, error) {
	ok, err := s.favorites.Contains(ctx, movie.ID)
	if err != nil {
		return false, err
	}
	if ok {
		return false, s.RemoveFavorite(ctx, movie.ID)
	}
	return true, s.AddFavorite(ctx, movie)
}

func (s *Store) IsFavorite(ctx context.Context, id int) (bool, error) {
	return s.favorites.Contains(ctx, id)
}

// Favorites returns the favorite movies in the order they were added.
func (s *Store) Favorites(ctx context.Context) ([]tmdb.MovieResult, error) {
	favs, err := s.favorites.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]tmdb.MovieResult, len(favs))
	for i, f := range favs {
		out[i] = f.Movie
	}
	return out, nil
}
