package logger

import (
	"io"
	"log/slog"
	"os"
)

const (
	EMPTY     = ""
	DEBUG     = "debug"
	INFO      = "info"
	WARN      = "warn"
	ERROR     = "error"
	JSON      = "json"
	TEXT      = "text"
	SERVICE   = "service"
	COMPONENT = "component"
)

type Logger struct {
	*slog.Logger
}

type Config struct {
	Level     string
	Format    string
	Output    io.Writer
	AddSource bool
	Service   string
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Format == EMPTY {
		cfg.Format = JSON
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == TEXT {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	if cfg.Service != EMPTY {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String(SERVICE, cfg.Service),
		})
	}

	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops every record. Tests use it to keep output quiet.
func Discard() *Logger {
	return New(Config{Output: io.Discard, Level: ERROR})
}

func parseLevel(level string) slog.Level {
	switch level {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component tags every record with the background component emitting it
// (watcher, reminders, live, ...).
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With(COMPONENT, name)}
}

// With mirrors slog.Logger.With but keeps the wrapper type so Fatal stays available.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Fatal logs a critical error and exits the process with status code 1.
// Only startup code should call it.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
