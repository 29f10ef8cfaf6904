package config

// EmbeddedTMDBKey is a TMDB read access token injected at build time via ldflags.
// It is used as the default for tmdb.api_key and can be overridden by the
// environment or the config file.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/slipstream/marquee/internal/config.EmbeddedTMDBKey=xxx'" ./cmd/marquee
var EmbeddedTMDBKey string
