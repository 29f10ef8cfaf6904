package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slipstream/marquee/internal/tmdb"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the TMDB token and connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := newLogger(cfg)
			defer log.Close()

			c := tmdb.NewClient(cfg.TMDB, log.WithComponent("tmdb"))
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.TMDB.TimeoutDuration())
			defer cancel()

			if err := c.Test(ctx); err != nil {
				return fmt.Errorf("%s check failed: %w", c.Name(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s OK (%s)\n", c.Name(), cfg.TMDB.BaseURL)
			return nil
		},
	}
}
