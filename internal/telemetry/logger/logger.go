// Package logger provides structured logging for catdesk.
//
// It wraps log/slog with a level that can be changed at runtime, a handler
// that stamps records with the request ID carried by the context, and an
// attribute filter that redacts credentials before anything is written.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger

	// WithContext binds ctx to the returned logger. Records it writes pick
	// up the request ID set with WithRequestID.
	WithContext(ctx context.Context) Logger

	// Slog exposes the underlying *slog.Logger for libraries that want one.
	Slog() *slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level  string    // debug, info, warn or error
	Format string    // text or json
	Output io.Writer // defaults to os.Stderr
}

// DefaultConfig returns the CLI default: terse text on stderr.
func DefaultConfig() Config {
	return Config{Level: "warn", Format: "text", Output: os.Stderr}
}

// level is shared by every logger so the shell can retune it on config reload.
var level = new(slog.LevelVar)

type handle struct {
	sl  *slog.Logger
	ctx context.Context
}

// New creates a logger and sets the shared level from cfg.
func New(cfg Config) Logger {
	level.Set(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return &handle{sl: slog.New(contextHandler{h}), ctx: context.Background()}
}

// SetLevel changes the level of every logger created by New.
func SetLevel(s string) {
	level.Set(parseLevel(s))
}

func (h *handle) Debug(msg string, args ...any) { h.sl.DebugContext(h.ctx, msg, args...) }
func (h *handle) Info(msg string, args ...any)  { h.sl.InfoContext(h.ctx, msg, args...) }
func (h *handle) Warn(msg string, args ...any)  { h.sl.WarnContext(h.ctx, msg, args...) }
func (h *handle) Error(msg string, args ...any) { h.sl.ErrorContext(h.ctx, msg, args...) }

func (h *handle) With(args ...any) Logger {
	return &handle{sl: h.sl.With(args...), ctx: h.ctx}
}

func (h *handle) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return &handle{sl: h.sl, ctx: ctx}
}

func (h *handle) Slog() *slog.Logger {
	return h.sl
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var defaultLogger atomic.Pointer[handle]

func init() {
	defaultLogger.Store(New(DefaultConfig()).(*handle))
}

// SetDefault replaces the logger returned by Default. Loggers not created by
// this package are ignored.
func SetDefault(l Logger) {
	if h, ok := l.(*handle); ok {
		defaultLogger.Store(h)
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return defaultLogger.Load()
}

// Discard returns a logger that writes nothing.
func Discard() Logger {
	return &handle{sl: slog.New(slog.DiscardHandler), ctx: context.Background()}
}
