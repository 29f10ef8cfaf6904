package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/marquee/internal/tmdb"
)

func intPtr(v int) *int { return &v }

func TestModeOf(t *testing.T) {
	tests := []struct {
		name    string
		filters FilterState
		want    Mode
	}{
		{"defaults", DefaultFilters(), Mode{Kind: ModePopular}},
		{"blank query", FilterState{SortBy: DefaultSort, Query: "   "}, Mode{Kind: ModePopular}},
		{"query", FilterState{SortBy: DefaultSort, Query: "  batman "}, Mode{Kind: ModeSearching, Query: "batman"}},
		{"genre", FilterState{SortBy: DefaultSort, SelectedGenres: []int{28}}, Mode{Kind: ModeFiltering}},
		{"sort", FilterState{SortBy: SortTitleAsc}, Mode{Kind: ModeFiltering}},
		{"rating", FilterState{SortBy: DefaultSort, MinRating: 7}, Mode{Kind: ModeFiltering}},
		{"year", FilterState{SortBy: DefaultSort, ReleaseYear: intPtr(2020)}, Mode{Kind: ModeFiltering}},
		{"query beats filters", FilterState{SortBy: SortTitleAsc, SelectedGenres: []int{28}, Query: "x"}, Mode{Kind: ModeSearching, Query: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModeOf(tt.filters))
		})
	}
}

func TestMode_Text(t *testing.T) {
	assert.Equal(t, `Search Results for "batman"`, Mode{Kind: ModeSearching, Query: "batman"}.Title())
	assert.Equal(t, "Filtered Movies", Mode{Kind: ModeFiltering}.Title())
	assert.Equal(t, "Popular Movies", Mode{Kind: ModePopular}.Title())

	assert.Equal(t, "Found 42 movies", Mode{Kind: ModeSearching, Query: "x"}.Subtitle(42))
	assert.Equal(t, "Found 7 movies with applied filters", Mode{Kind: ModeFiltering}.Subtitle(7))
	assert.Equal(t, "Discover the most popular movies right now", Mode{Kind: ModePopular}.Subtitle(1000))
}

func TestRequestFor(t *testing.T) {
	f := FilterState{SelectedGenres: []int{28, 12}, SortBy: SortVoteAverageDesc, ReleaseYear: intPtr(1999)}
	req := RequestFor(f, 3)
	assert.Equal(t, ModeFiltering, req.Mode.Kind)
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, "28,12", req.WithGenres)
	assert.Equal(t, "vote_average.desc", req.SortBy)
	assert.Equal(t, "1999-01-01", req.ReleaseDateGte)

	rating := FilterState{SortBy: DefaultSort, MinRating: 8}
	req = RequestFor(rating, 0)
	assert.Equal(t, 1, req.Page)
	assert.Empty(t, req.WithGenres)
	assert.Empty(t, req.ReleaseDateGte)
	assert.Equal(t, "popularity.desc", req.SortBy)

	req = RequestFor(FilterState{SortBy: SortTitleAsc, Query: " dune "}, 2)
	assert.Equal(t, Request{Mode: Mode{Kind: ModeSearching, Query: "dune"}, Page: 2, Query: "dune"}, req)
}

func TestSortKey(t *testing.T) {
	assert.True(t, SortTitleDesc.Valid())
	assert.False(t, SortKey("revenue.desc").Valid())
	assert.Equal(t, "Highest Rated", SortVoteAverageDesc.Label())
	assert.Equal(t, "revenue.desc", SortKey("revenue.desc").Label())
}

func TestStore_PageReset(t *testing.T) {
	s := New(nil)

	s.SetPage(4)
	assert.Equal(t, 4, s.Snapshot().Page)

	s.SetSearchQuery("alien")
	assert.Equal(t, 1, s.Snapshot().Page, "entering a query resets the page")

	s.SetPage(3)
	s.ToggleGenre(28)
	s.SetSortBy(SortTitleAsc)
	st := s.Snapshot()
	assert.Equal(t, 3, st.Page, "filters do not affect an active search")
	assert.Equal(t, ModeSearching, st.Mode().Kind)

	s.ClearSearch()
	st = s.Snapshot()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, ModeFiltering, st.Mode().Kind)

	s.SetPage(5)
	s.SetMinRating(6.5)
	assert.Equal(t, 1, s.Snapshot().Page, "filter change while filtering resets the page")

	s.SetPage(2)
	s.ClearFilters()
	st = s.Snapshot()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, ModePopular, st.Mode().Kind)
	assert.Equal(t, DefaultFilters(), st.Filters)

	s.SetPage(6)
	s.SetSearchQuery("   ")
	assert.Equal(t, 6, s.Snapshot().Page, "blank query keeps popular mode")

	s.SetPage(0)
	assert.Equal(t, 1, s.Snapshot().Page)
}

func TestStore_Genres(t *testing.T) {
	s := New(nil)
	s.ToggleGenre(28)
	s.ToggleGenre(12)
	s.ToggleGenre(28)
	assert.Equal(t, []int{12}, s.Snapshot().Filters.SelectedGenres)

	s.SetSelectedGenres([]int{35, 35, 18})
	assert.Equal(t, []int{35, 18}, s.Snapshot().Filters.SelectedGenres)

	s.SetReleaseYear(intPtr(2001))
	require.NotNil(t, s.Snapshot().Filters.ReleaseYear)
	assert.Equal(t, "2001-01-01", s.Snapshot().Request().ReleaseDateGte)

	s.SetReleaseYear(nil)
	assert.Nil(t, s.Snapshot().Filters.ReleaseYear)
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := New(nil)
	s.SetSelectedGenres([]int{1, 2})
	snap := s.Snapshot()
	snap.Filters.SelectedGenres[0] = 99
	assert.Equal(t, []int{1, 2}, s.Snapshot().Filters.SelectedGenres)
}

func TestStore_UI(t *testing.T) {
	s := New(nil)
	st := s.Snapshot()
	assert.Equal(t, ThemeLight, st.Theme)
	assert.Equal(t, ViewGrid, st.ViewMode)
	assert.False(t, st.SidebarOpen)

	s.ToggleTheme()
	s.ToggleSidebar()
	s.SetViewMode(ViewList)
	st = s.Snapshot()
	assert.Equal(t, ThemeDark, st.Theme)
	assert.True(t, st.SidebarOpen)
	assert.Equal(t, ViewList, st.ViewMode)

	s.OpenMovieModal(550)
	s.SetSelectedMovie(&tmdb.MovieDetails{ID: 550, Title: "Fight Club"})
	st = s.Snapshot()
	assert.True(t, st.ModalOpen)
	require.NotNil(t, st.SelectedMovieID)
	assert.Equal(t, 550, *st.SelectedMovieID)

	s.CloseModal()
	st = s.Snapshot()
	assert.False(t, st.ModalOpen)
	assert.Nil(t, st.SelectedMovieID)
	assert.Nil(t, st.SelectedMovie)
}

func TestStore_Notifications(t *testing.T) {
	s := New(nil)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	a := s.AddNotification(NotifySuccess, "Added to favorites")
	b := s.AddNotification(NotifyError, "Failed to load")
	assert.NotEqual(t, a, b)

	st := s.Snapshot()
	require.Len(t, st.Notifications, 2)
	assert.Equal(t, fixed, st.Notifications[0].Timestamp)

	s.RemoveNotification(a)
	st = s.Snapshot()
	require.Len(t, st.Notifications, 1)
	assert.Equal(t, b, st.Notifications[0].ID)

	s.ClearNotifications()
	assert.Empty(t, s.Snapshot().Notifications)
}

func TestStore_Favorites(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	matrix := tmdb.MovieResult{ID: 603, Title: "The Matrix"}

	require.NoError(t, s.AddFavorite(ctx, matrix))
	require.NoError(t, s.AddFavorite(ctx, matrix))
	favs, err := s.Favorites(ctx)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	on, err := s.ToggleFavorite(ctx, matrix)
	require.NoError(t, err)
	assert.False(t, on)

	ok, err := s.IsFavorite(ctx, 603)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.RemoveFavorite(ctx, 603))

	on, err = s.ToggleFavorite(ctx, matrix)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestStore_Subscribe(t *testing.T) {
	s := New(nil)
	var calls atomic.Int32
	var last State
	unsubscribe := s.Subscribe(func(st State) {
		calls.Add(1)
		last = st
	})

	s.SetSearchQuery("heat")
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "heat", last.Filters.Query)

	unsubscribe()
	s.ClearSearch()
	assert.Equal(t, int32(1), calls.Load())
}

func TestHelpers(t *testing.T) {
	all := []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 12, Name: "Adventure"}, {ID: 35, Name: "Comedy"}}
	assert.Equal(t, []string{"Adventure", "Action"}, GenreNames([]int{12, 99, 28}, all))
	assert.Equal(t, "Action, Comedy", FormatGenres([]int{28, 35}, all))
	assert.Empty(t, FormatGenres(nil, all))

	assert.Equal(t, "7.3", FormatRating(7.25))
	assert.Equal(t, "8", FormatRating(8.0))

	assert.Equal(t, "#4caf50", RatingColor(8))
	assert.Equal(t, "#ff9800", RatingColor(6.5))
	assert.Equal(t, "#f44336", RatingColor(4))
	assert.Equal(t, "#9e9e9e", RatingColor(3.9))

	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "A long...", Truncate("A long sentence", 7))
}
