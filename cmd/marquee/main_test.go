package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/marquee/internal/config"
	"github.com/slipstream/marquee/internal/movies"
	"github.com/slipstream/marquee/internal/tmdb"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "check", "popular", "search", "genres", "discover", "movie", "favorites", "browse"} {
		assert.True(t, names[want], want)
	}
}

func TestParseMovieID(t *testing.T) {
	id, err := parseMovieID("550")
	require.NoError(t, err)
	assert.Equal(t, 550, id)

	for _, bad := range []string{"abc", "0", "-3", ""} {
		_, err := parseMovieID(bad)
		assert.Error(t, err, bad)
	}
}

func fakeProxy(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, printJSON(w, v))
	}
	mux.HandleFunc("/api/movies", func(w http.ResponseWriter, r *http.Request) {
		write(w, movies.OK(movies.MoviesPage{
			Movies:     []tmdb.MovieResult{{ID: 603, Title: "The Matrix", VoteAverage: 8.2, GenreIDs: []int{28}}},
			Pagination: movies.Pagination{Page: 1, TotalPages: 1, TotalResults: 1},
		}))
	})
	mux.HandleFunc("/api/movies/search", func(w http.ResponseWriter, r *http.Request) {
		write(w, movies.OK(movies.SearchPage{
			MoviesPage: movies.MoviesPage{
				Movies:     []tmdb.MovieResult{{ID: 78, Title: "Blade Runner"}},
				Pagination: movies.Pagination{Page: 1, TotalPages: 1, TotalResults: 1},
			},
			SearchQuery: r.URL.Query().Get("q"),
		}))
	})
	mux.HandleFunc("/api/movies/genres", func(w http.ResponseWriter, r *http.Request) {
		write(w, movies.OK([]tmdb.Genre{{ID: 28, Name: "Action"}}))
	})
	mux.HandleFunc("/api/movies/603", func(w http.ResponseWriter, r *http.Request) {
		poster := "/p.jpg"
		write(w, movies.OK(tmdb.MovieDetails{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", VoteAverage: 8.2, PosterPath: &poster}))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunBrowse(t *testing.T) {
	srv := fakeProxy(t)
	cfg := config.Default()
	cfg.Client.BaseURL = srv.URL + "/api"
	cfg.Client.DebounceMS = 0

	in := strings.NewReader("fav 603\nfavs\nopen 603\nsearch blade runner\nquit\n")
	var out, errOut bytes.Buffer
	require.NoError(t, runBrowse(context.Background(), cfg, in, &out, &errOut))

	got := out.String()
	assert.Contains(t, got, "Popular Movies")
	assert.Contains(t, got, "The Matrix")
	assert.Contains(t, got, "Action")
	assert.Contains(t, got, "added The Matrix")
	assert.Contains(t, got, "  603  The Matrix")
	assert.Contains(t, got, "rating 8.2 [#4caf50]")
	assert.Contains(t, got, `Search Results for "blade runner"`)
	assert.Contains(t, got, "Blade Runner")
	assert.NotContains(t, got, "poster ")
}

func TestRunBrowse_ImageLinks(t *testing.T) {
	srv := fakeProxy(t)
	var configHits atomic.Int32
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			http.NotFound(w, r)
			return
		}
		configHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, printJSON(w, tmdb.Configuration{
			Images: tmdb.ImageConfiguration{SecureBaseURL: "https://image.example/"},
		}))
	}))
	t.Cleanup(provider.Close)

	cfg := config.Default()
	cfg.Client.BaseURL = srv.URL + "/api"
	cfg.Client.DebounceMS = 0
	cfg.TMDB.APIKey = "test-key"
	cfg.TMDB.BaseURL = provider.URL

	in := strings.NewReader("open 603\nopen 603\nquit\n")
	var out, errOut bytes.Buffer
	require.NoError(t, runBrowse(context.Background(), cfg, in, &out, &errOut))

	got := out.String()
	assert.Contains(t, got, "poster https://image.example/w500/p.jpg")
	assert.NotContains(t, got, "backdrop", "movies without a backdrop print no link")
	assert.Equal(t, int32(1), configHits.Load(), "image configuration is fetched once")
}

func TestFavoritesCommands(t *testing.T) {
	srv := fakeProxy(t)
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MARQUEE_CLIENT_BASE_URL", srv.URL+"/api")
	t.Setenv("MARQUEE_FAVORITES_PATH", dir+"/favorites.db")

	run := func(args ...string) string {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		require.NoError(t, root.Execute())
		return out.String()
	}

	assert.Contains(t, run("favorites", "add", "603"), `"title": "The Matrix"`)
	assert.Contains(t, run("favorites", "list"), `"title": "The Matrix"`)
	assert.Contains(t, run("favorites", "remove", "603"), "removed 603")
	assert.Equal(t, "[]\n", run("favorites", "list"))
}
