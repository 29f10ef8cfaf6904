package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zerolog for application logging.
type Logger struct {
	zerolog.Logger
	rotator *lumberjack.Logger
	tail    *Tail
	path    string
}

// Config holds logger configuration.
type Config struct {
	Level      string
	Format     string // "console" or "json"
	Path       string // directory for log files
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	TailSize   int // recent entries kept in memory, 0 disables
}

// FileName is the name of the rotated log file inside Config.Path.
const FileName = "marquee.log"

// New creates a new logger instance.
func New(cfg Config) *Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a logger whose console output goes to w.
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	var consoleOutput io.Writer = w
	if cfg.Format != "json" {
		consoleOutput = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	writers := []io.Writer{consoleOutput}
	l := &Logger{}

	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0o755); err == nil {
			l.path = filepath.Join(cfg.Path, FileName)
			l.rotator = &lumberjack.Logger{
				Filename:   l.path,
				MaxSize:    orDefault(cfg.MaxSizeMB, 10),
				MaxBackups: orDefault(cfg.MaxBackups, 5),
				MaxAge:     orDefault(cfg.MaxAgeDays, 30),
				Compress:   cfg.Compress,
				LocalTime:  true,
			}
			writers = append(writers, l.rotator)
		}
	}

	if cfg.TailSize > 0 {
		l.tail = NewTail(cfg.TailSize)
		writers = append(writers, l.tail)
	}

	var output io.Writer = consoleOutput
	if len(writers) > 1 {
		output = io.MultiWriter(writers...)
	}

	l.Logger = zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return l
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// Tail returns the in-memory buffer of recent entries, or nil when disabled.
func (l *Logger) Tail() *Tail {
	return l.tail
}

// FilePath returns the active log file path, empty when logging only to the console.
func (l *Logger) FilePath() string {
	return l.path
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a zerolog.Logger tagged with a component field.
func (l *Logger) WithComponent(component string) zerolog.Logger {
	return l.Logger.With().Str("component", component).Logger()
}
