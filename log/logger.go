// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"sync/atomic"
)

const (
	timeFormat = "2006-01-02T15:04:05-0700"
)

// Levels, compatible with slog.Level.
const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12

	levelMaxVerbosity slog.Level = LevelTrace
)

// LevelString returns a 4-character string for the level.
func LevelString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "trce"
	case LevelDebug:
		return "dbug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "eror"
	case LevelCrit:
		return "crit"
	default:
		return "unknown"
	}
}

// FromLegacyLevel converts the verbosity used by command line flags (0=crit ... 5=trace).
func FromLegacyLevel(lvl int) slog.Level {
	switch lvl {
	case 0:
		return LevelCrit
	case 1:
		return LevelError
	case 2:
		return LevelWarn
	case 3:
		return LevelInfo
	case 4:
		return LevelDebug
	case 5:
		return LevelTrace
	}
	if lvl > 5 {
		return LevelTrace
	}
	return LevelCrit
}

// Logger writes key/value pairs to a handler.
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus the given attributes.
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	// Crit logs a message at the crit level and exits the process.
	Crit(msg string, ctx ...any)

	Enabled(ctx context.Context, level slog.Level) bool
}

type logger struct {
	inner *slog.Logger
}

// NewLogger returns a logger with the specified handler set.
func NewLogger(h slog.Handler) Logger {
	return &logger{slog.New(h)}
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...)}
}

func (l *logger) write(level slog.Level, msg string, ctx ...any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx...) }
func (l *logger) Crit(msg string, ctx ...any) {
	l.write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

func (l *logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.inner.Enabled(ctx, level)
}

var root atomic.Value

func init() {
	root.Store(NewLogger(DiscardHandler()))
}

// SetDefault sets the default root logger.
func SetDefault(l Logger) {
	root.Store(l)
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(Logger)
}

// WithContext returns a logger bound to the current root logger at each call,
// so package level loggers follow later SetDefault calls.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx}
}

type contextLogger struct {
	ctx []any
}

func (l *contextLogger) With(ctx ...any) Logger {
	return &contextLogger{append(slices.Clone(l.ctx), ctx...)}
}

func (l *contextLogger) write(level slog.Level, msg string, ctx []any) {
	r := Root()
	if level < LevelCrit && !r.Enabled(context.Background(), level) {
		return
	}
	args := append(slices.Clone(l.ctx), ctx...)
	switch level {
	case LevelTrace:
		r.Trace(msg, args...)
	case LevelDebug:
		r.Debug(msg, args...)
	case LevelInfo:
		r.Info(msg, args...)
	case LevelWarn:
		r.Warn(msg, args...)
	case LevelError:
		r.Error(msg, args...)
	default:
		r.Crit(msg, args...)
	}
}

func (l *contextLogger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx) }
func (l *contextLogger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx) }
func (l *contextLogger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx) }
func (l *contextLogger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx) }
func (l *contextLogger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx) }
func (l *contextLogger) Crit(msg string, ctx ...any)  { l.write(LevelCrit, msg, ctx) }

func (l *contextLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return Root().Enabled(ctx, level)
}
