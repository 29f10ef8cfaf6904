package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/marquee/internal/movies"
	"github.com/slipstream/marquee/internal/store"
	"github.com/slipstream/marquee/internal/tmdb"
)

// fakeProxy serves the movie endpoints and records the requests it receives.
type fakeProxy struct {
	mu       sync.Mutex
	requests []string
	searches atomic.Int32
	hold     map[int]chan struct{}
}

func (p *fakeProxy) record(r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, r.URL.Path+"?"+r.URL.RawQuery)
}

func (p *fakeProxy) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return ""
	}
	return p.requests[len(p.requests)-1]
}

func (p *fakeProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.record(r)
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	switch path := strings.TrimPrefix(r.URL.Path, "/api/movies"); path {
	case "":
		writeJSON(w, http.StatusOK, movies.OK(moviesPage(page, "Popular")))
	case "/search":
		p.searches.Add(1)
		writeJSON(w, http.StatusOK, movies.OK(movies.SearchPage{MoviesPage: moviesPage(page, "Found"), SearchQuery: q.Get("q")}))
	case "/discover":
		writeJSON(w, http.StatusOK, movies.OK(movies.DiscoverPage{MoviesPage: moviesPage(page, "Filtered")}))
	case "/genres":
		writeJSON(w, http.StatusOK, movies.OK([]tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 12, Name: "Adventure"}}))
	default:
		id, err := strconv.Atoi(strings.TrimPrefix(path, "/"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, movies.Fail("Validation failed (numeric string is expected)"))
			return
		}
		if ch, ok := p.hold[id]; ok {
			<-ch
		}
		writeJSON(w, http.StatusOK, movies.OK(tmdb.MovieDetails{ID: id, Title: "Movie " + strconv.Itoa(id)}))
	}
}

func newTestSession(t *testing.T, proxy *fakeProxy, debounce time.Duration) *Session {
	t.Helper()
	c := newTestClient(t, proxy)
	s := NewSession(store.New(nil), c, debounce, zerolog.Nop())
	t.Cleanup(s.Close)
	return s
}

func TestSession_ModeTransitions(t *testing.T) {
	proxy := &fakeProxy{}
	s := newTestSession(t, proxy, 0)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx))
	view := s.Current()
	require.NotNil(t, view.Data)
	assert.Equal(t, "Popular Movies", view.Data.Title)
	assert.Equal(t, "Discover the most popular movies right now", view.Data.Subtitle)
	assert.Equal(t, "/api/movies?page=1", proxy.last())

	require.NoError(t, s.SetPage(ctx, 3))
	assert.Equal(t, "/api/movies?page=3", proxy.last())

	require.NoError(t, s.Search(ctx, "  batman "))
	view = s.Current()
	assert.Equal(t, `Search Results for "batman"`, view.Data.Title)
	assert.Equal(t, "Found 100 movies", view.Data.Subtitle)
	assert.Equal(t, 1, s.Store().Snapshot().Page)
	sent, err := url.ParseQuery(strings.SplitN(proxy.last(), "?", 2)[1])
	require.NoError(t, err)
	assert.Equal(t, "batman", sent.Get("q"))

	require.NoError(t, s.ToggleGenre(ctx, 28))
	assert.Equal(t, store.ModeSearching, s.Current().Data.Mode.Kind, "filters do not interrupt a search")

	require.NoError(t, s.ClearSearch(ctx))
	view = s.Current()
	assert.Equal(t, "Filtered Movies", view.Data.Title)
	assert.Equal(t, "Found 100 movies with applied filters", view.Data.Subtitle)
	assert.Contains(t, proxy.last(), "/api/movies/discover?")
	assert.Contains(t, proxy.last(), "with_genres=28")

	year := 1999
	require.NoError(t, s.SetReleaseYear(ctx, &year))
	assert.Contains(t, proxy.last(), "release_date_gte=1999-01-01")

	require.NoError(t, s.ClearFilters(ctx))
	assert.Equal(t, "Popular Movies", s.Current().Data.Title)
}

func TestSession_MinRatingOnlyChangesMode(t *testing.T) {
	proxy := &fakeProxy{}
	s := newTestSession(t, proxy, 0)

	require.NoError(t, s.SetMinRating(context.Background(), 7))
	assert.Equal(t, "Filtered Movies", s.Current().Data.Title)
	assert.NotContains(t, proxy.last(), "vote_average")
}

func TestSession_TypeSearchDebounced(t *testing.T) {
	proxy := &fakeProxy{}
	s := newTestSession(t, proxy, 20*time.Millisecond)
	ctx := context.Background()

	for _, q := range []string{"a", "al", "ali", "alien"} {
		s.TypeSearch(ctx, q)
	}

	require.Eventually(t, func() bool {
		v := s.Current()
		return v.Data != nil && v.Data.Mode.Query == "alien"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), proxy.searches.Load())
}

func TestSession_SearchCancelsPendingTyping(t *testing.T) {
	proxy := &fakeProxy{}
	s := newTestSession(t, proxy, 50*time.Millisecond)
	ctx := context.Background()

	s.TypeSearch(ctx, "draft")
	require.NoError(t, s.Search(ctx, "final"))
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, "final", s.Current().Data.Mode.Query)
	assert.Equal(t, int32(1), proxy.searches.Load())
}

func TestSession_LoadGenres(t *testing.T) {
	s := newTestSession(t, &fakeProxy{}, 0)

	require.NoError(t, s.LoadGenres(context.Background()))
	require.NotNil(t, s.Genres().Data)
	assert.Len(t, *s.Genres().Data, 2)
	assert.Equal(t, "Action", s.Store().Snapshot().Genres[0].Name)
}

func TestSession_MovieDetail(t *testing.T) {
	s := newTestSession(t, &fakeProxy{}, 0)
	ctx := context.Background()

	require.NoError(t, s.OpenMovie(ctx, 550))
	detail := s.Detail()
	require.NotNil(t, detail.Data)
	assert.Equal(t, "Movie 550", detail.Data.Title)

	st := s.Store().Snapshot()
	assert.True(t, st.ModalOpen)
	require.NotNil(t, st.SelectedMovie)
	assert.Equal(t, 550, st.SelectedMovie.ID)

	s.CloseMovie()
	assert.Nil(t, s.Detail().Data)
	assert.False(t, s.Store().Snapshot().ModalOpen)
}

func TestSession_StaleDetailDiscarded(t *testing.T) {
	slow := make(chan struct{})
	proxy := &fakeProxy{hold: map[int]chan struct{}{1: slow}}
	s := newTestSession(t, proxy, 0)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- s.OpenMovie(ctx, 1) }()
	require.Eventually(t, func() bool { return strings.HasPrefix(proxy.last(), "/api/movies/1?") }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.OpenMovie(ctx, 2))
	close(slow)

	assert.ErrorIs(t, <-first, ErrStale)
	assert.Equal(t, 2, s.Detail().Data.ID)
	assert.Equal(t, 2, s.Store().Snapshot().SelectedMovie.ID)
}

func TestSession_Refresh(t *testing.T) {
	proxy := &fakeProxy{}
	s := newTestSession(t, proxy, 0)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.Load(ctx))
	proxy.mu.Lock()
	before := len(proxy.requests)
	proxy.mu.Unlock()
	assert.Equal(t, 1, before, "second load is served from cache")

	require.NoError(t, s.Refresh(ctx))
	proxy.mu.Lock()
	assert.Len(t, proxy.requests, 2)
	proxy.mu.Unlock()
}
