package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/slipstream/marquee/internal/client"
	"github.com/slipstream/marquee/internal/config"
	"github.com/slipstream/marquee/internal/logger"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "marquee",
		Short:         "Movie discovery proxy for TMDB",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file")

	cmd.AddCommand(
		newServeCmd(opts),
		newCheckCmd(opts),
		newPopularCmd(opts),
		newSearchCmd(opts),
		newGenresCmd(opts),
		newDiscoverCmd(opts),
		newMovieCmd(opts),
		newFavoritesCmd(opts),
		newBrowseCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		TailSize:   500,
	})
}

// newAPIClient builds a proxy client for the client commands. Their logs go to stderr at warn level
// so stdout stays valid JSON.
func newAPIClient(cfg *config.Config, errOut io.Writer) *client.Client {
	return client.New(client.Options{
		BaseURL:  cfg.Client.BaseURL,
		Timeout:  time.Duration(cfg.Client.Timeout) * time.Second,
		CacheTTL: time.Duration(cfg.Client.CacheTTL) * time.Second,
		Logger:   clientLogger(cfg, errOut),
	})
}

func clientLogger(cfg *config.Config, errOut io.Writer) zerolog.Logger {
	return logger.NewWithWriter(logger.Config{Level: "warn", Format: cfg.Logging.Format}, errOut).Logger
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
