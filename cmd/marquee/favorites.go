package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/slipstream/marquee/internal/config"
	"github.com/slipstream/marquee/internal/favorites"
)

func newFavoritesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite movies",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favorites in the order they were added",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withFavorites(cmd.Context(), opts, func(cfg *config.Config, store favorites.Store) error {
					list, err := store.List(cmd.Context())
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), list)
				})
			},
		},
		&cobra.Command{
			Use:   "add <id>",
			Short: "Fetch a movie and add it to the favorites",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseMovieID(args[0])
				if err != nil {
					return err
				}
				return withFavorites(cmd.Context(), opts, func(cfg *config.Config, store favorites.Store) error {
					movie, err := newAPIClient(cfg, cmd.ErrOrStderr()).Movie(cmd.Context(), id)
					if err != nil {
						return err
					}
					if err := store.Put(cmd.Context(), favorites.Favorite{Movie: movie.Summary()}); err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), movie.Summary())
				})
			},
		},
		&cobra.Command{
			Use:   "remove <id>",
			Short: "Remove a movie from the favorites",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseMovieID(args[0])
				if err != nil {
					return err
				}
				return withFavorites(cmd.Context(), opts, func(_ *config.Config, store favorites.Store) error {
					if err := store.Delete(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", id)
					return nil
				})
			},
		},
	)
	return cmd
}

// withFavorites opens the configured favorites store for the duration of fn.
func withFavorites(ctx context.Context, opts *rootOptions, fn func(*config.Config, favorites.Store) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	store, closer, err := openFavorites(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(cfg, store)
}

// openFavorites returns the SQLite store when favorites.path is set, otherwise an in-memory store.
func openFavorites(ctx context.Context, cfg *config.Config) (favorites.Store, io.Closer, error) {
	if cfg.Favorites.Path == "" {
		return favorites.NewMemoryStore(), nopCloser{}, nil
	}
	store, err := favorites.OpenSQLite(ctx, cfg.Favorites.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open favorites: %w", err)
	}
	return store, store, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
