package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slipstream/marquee/internal/client"
	"github.com/slipstream/marquee/internal/config"
	"github.com/slipstream/marquee/internal/store"
	"github.com/slipstream/marquee/internal/tmdb"
)

const browseHelp = `commands:
  type <text>      search as you type (debounced)
  search <text>    search now
  clear            clear the search
  genre <id>       toggle a genre filter
  sort <key>       set the sort order
  rating <n>       set the minimum rating
  year <yyyy|->    set or clear the release year
  reset            clear all filters
  page <n>         go to a page
  open <id>        show movie details
  close            close movie details
  fav <id>         toggle a favorite from the current page
  favs             list favorites
  refresh          reload the listing
  quit`

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse movies interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runBrowse(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runBrowse(ctx context.Context, cfg *config.Config, in io.Reader, out, errOut io.Writer) error {
	favs, closer, err := openFavorites(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	c := newAPIClient(cfg, errOut)
	log := clientLogger(cfg, errOut)
	session := client.NewSession(store.New(favs), c, cfg.Client.Debounce(), log)
	defer session.Close()

	b := &browser{session: session, out: out}
	if cfg.TMDB.APIKey != "" {
		b.images = tmdb.NewClient(cfg.TMDB, log)
	}
	if err := session.LoadGenres(ctx); err != nil {
		fmt.Fprintf(out, "genres unavailable: %v\n", err)
	}
	b.report(session.Load(ctx))

	fmt.Fprintln(out, browseHelp)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		name, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		if name == "quit" || name == "exit" {
			return nil
		}
		b.report(b.exec(ctx, name, strings.TrimSpace(arg)))
	}
}

type browser struct {
	session *client.Session
	out     io.Writer
	images  *tmdb.Client // nil without a TMDB key; detail views then skip image links
}

func (b *browser) exec(ctx context.Context, name, arg string) error {
	s := b.session
	switch name {
	case "":
		return nil
	case "type":
		s.TypeSearch(ctx, arg)
		s.FlushSearch()
		return nil
	case "search":
		return s.Search(ctx, arg)
	case "clear":
		return s.ClearSearch(ctx)
	case "genre":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return err
		}
		return s.ToggleGenre(ctx, id)
	case "sort":
		key := store.SortKey(arg)
		if !key.Valid() {
			fmt.Fprintf(b.out, "unknown sort key %q, sending as-is\n", arg)
		}
		return s.SetSortBy(ctx, key)
	case "rating":
		r, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return err
		}
		return s.SetMinRating(ctx, r)
	case "year":
		if arg == "-" || arg == "" {
			return s.SetReleaseYear(ctx, nil)
		}
		y, err := strconv.Atoi(arg)
		if err != nil {
			return err
		}
		return s.SetReleaseYear(ctx, &y)
	case "reset":
		return s.ClearFilters(ctx)
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return err
		}
		return s.SetPage(ctx, n)
	case "refresh":
		return s.Refresh(ctx)
	case "open":
		id, err := parseMovieID(arg)
		if err != nil {
			return err
		}
		if err := s.OpenMovie(ctx, id); err != nil {
			return err
		}
		b.printDetail(ctx)
		return errShown
	case "close":
		s.CloseMovie()
		return nil
	case "fav":
		return b.toggleFavorite(ctx, arg)
	case "favs":
		list, err := s.Store().Favorites(ctx)
		if err != nil {
			return err
		}
		for _, m := range list {
			fmt.Fprintf(b.out, "  %d  %s\n", m.ID, m.Title)
		}
		return errShown
	case "help":
		fmt.Fprintln(b.out, browseHelp)
		return errShown
	}
	return fmt.Errorf("unknown command %q", name)
}

// errShown marks commands that printed their own output instead of the listing.
var errShown = errors.New("shown")

func (b *browser) report(err error) {
	switch {
	case errors.Is(err, errShown):
	case err != nil:
		fmt.Fprintf(b.out, "error: %v\n", err)
	default:
		b.printListing()
	}
}

func (b *browser) printListing() {
	res := b.session.Current()
	if res.Data == nil {
		return
	}
	view := res.Data
	genres := b.session.Store().Snapshot().Genres

	fmt.Fprintf(b.out, "%s\n%s\n", view.Title, view.Subtitle)
	for _, m := range view.Movies {
		fmt.Fprintf(b.out, "  %-8d %-40s %4s  %s\n",
			m.ID, store.Truncate(m.Title, 40), store.FormatRating(m.VoteAverage), store.FormatGenres(m.GenreIDs, genres))
	}
	p := view.Pagination
	fmt.Fprintf(b.out, "page %d of %d\n", p.Page, p.TotalPages)
}

func (b *browser) printDetail(ctx context.Context) {
	res := b.session.Detail()
	if res.Data == nil {
		return
	}
	m := res.Data
	fmt.Fprintf(b.out, "%s (%s)\n", m.Title, m.ReleaseDate)
	fmt.Fprintf(b.out, "rating %s [%s]\n", store.FormatRating(m.VoteAverage), store.RatingColor(m.VoteAverage))
	fmt.Fprintln(b.out, store.Truncate(m.Overview, 400))
	if b.images != nil {
		b.printImage(ctx, "poster", b.images.PosterURL, m.PosterPath)
		b.printImage(ctx, "backdrop", b.images.BackdropURL, m.BackdropPath)
	}
}

type imageURLFunc func(ctx context.Context, path *string, size tmdb.ImageSize) (string, error)

func (b *browser) printImage(ctx context.Context, label string, build imageURLFunc, path *string) {
	u, err := build(ctx, path, "")
	switch {
	case err != nil:
		fmt.Fprintf(b.out, "%s unavailable: %v\n", label, err)
	case u != "":
		fmt.Fprintf(b.out, "%s %s\n", label, u)
	}
}

func (b *browser) toggleFavorite(ctx context.Context, arg string) error {
	id, err := parseMovieID(arg)
	if err != nil {
		return err
	}
	movie, ok := b.findOnPage(id)
	if !ok {
		return fmt.Errorf("movie %d is not on the current page", id)
	}
	st := b.session.Store()
	on, err := st.ToggleFavorite(ctx, movie)
	if err != nil {
		return err
	}
	if on {
		st.AddNotification(store.NotifySuccess, "Added to favorites")
		fmt.Fprintf(b.out, "added %s\n", movie.Title)
	} else {
		st.AddNotification(store.NotifyInfo, "Removed from favorites")
		fmt.Fprintf(b.out, "removed %s\n", movie.Title)
	}
	return errShown
}

func (b *browser) findOnPage(id int) (tmdb.MovieResult, bool) {
	res := b.session.Current()
	if res.Data == nil {
		return tmdb.MovieResult{}, false
	}
	for _, m := range res.Data.Movies {
		if m.ID == id {
			return m, true
		}
	}
	return tmdb.MovieResult{}, false
}
