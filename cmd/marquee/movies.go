package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slipstream/marquee/internal/client"
)

func newPopularCmd(opts *rootOptions) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List popular movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			res, err := newAPIClient(cfg, cmd.ErrOrStderr()).Popular(cmd.Context(), page)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		page         int
		includeAdult bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			res, err := newAPIClient(cfg, cmd.ErrOrStderr()).Search(cmd.Context(), client.SearchParams{
				Query:        strings.Join(args, " "),
				Page:         page,
				IncludeAdult: includeAdult,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	cmd.Flags().BoolVar(&includeAdult, "include-adult", false, "include adult titles")
	return cmd
}

func newGenresCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List movie genres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			res, err := newAPIClient(cfg, cmd.ErrOrStderr()).Genres(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newDiscoverCmd(opts *rootOptions) *cobra.Command {
	var params client.DiscoverParams
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover movies by genre, sort order and release date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			res, err := newAPIClient(cfg, cmd.ErrOrStderr()).Discover(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "result page")
	cmd.Flags().StringVar(&params.WithGenres, "genres", "", "comma-separated genre ids, e.g. 28,12")
	cmd.Flags().StringVar(&params.SortBy, "sort-by", "", "sort key, e.g. vote_average.desc")
	cmd.Flags().StringVar(&params.ReleaseDateGte, "from", "", "earliest release date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&params.ReleaseDateLte, "to", "", "latest release date (YYYY-MM-DD)")
	return cmd
}

func newMovieCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "movie <id>",
		Short: "Show the full record of a movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			res, err := newAPIClient(cfg, cmd.ErrOrStderr()).Movie(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func parseMovieID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid movie id %q", s)
	}
	return id, nil
}
