// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12

	levelMaxVerbosity slog.Level = LevelTrace
)

// Legacy verbosity values accepted by the --verbosity flag.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// FromLegacyLevel converts a 0-9 verbosity into a slog level.
func FromLegacyLevel(lvl int) slog.Level {
	switch {
	case lvl <= LegacyLevelCrit:
		return LevelCrit
	case lvl == LegacyLevelError:
		return LevelError
	case lvl == LegacyLevelWarn:
		return LevelWarn
	case lvl == LegacyLevelInfo:
		return LevelInfo
	case lvl == LegacyLevelDebug:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// LevelString returns a 5-character string containing the name of a level.
func LevelString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO "
	case slog.LevelWarn:
		return "WARN "
	case slog.LevelError:
		return "ERROR"
	case LevelCrit:
		return "CRIT "
	default:
		return "unknown level"
	}
}

// Logger writes key/value pairs to a Handler.
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus the given attributes
	With(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)

	// Enabled reports whether l emits log records at the given level.
	Enabled(ctx context.Context, level slog.Level) bool
}

var root atomic.Value

func init() {
	root.Store(&rootHandler{slog.Handler(DiscardHandler())})
}

type rootHandler struct {
	h slog.Handler
}

// SetDefault sets the handler used by the root logger and every logger derived from it,
// including package loggers created before the call.
func SetDefault(h slog.Handler) {
	root.Store(&rootHandler{h})
}

func defaultHandler() slog.Handler {
	return root.Load().(*rootHandler).h
}

// Root returns the root logger.
func Root() Logger {
	return &logger{}
}

// WithContext returns a logger carrying the given attributes, usually {"pkg", name}.
func WithContext(ctx ...any) Logger {
	return &logger{attrs: ctx}
}

type logger struct {
	attrs []any
}

func (l *logger) With(ctx ...any) Logger {
	attrs := make([]any, 0, len(l.attrs)+len(ctx))
	attrs = append(attrs, l.attrs...)
	return &logger{attrs: append(attrs, ctx...)}
}

func (l *logger) write(level slog.Level, msg string, ctx ...any) {
	h := defaultHandler()
	if !h.Enabled(context.Background(), level) {
		return
	}
	r := newRecord(level, msg)
	r.Add(l.attrs...)
	r.Add(ctx...)
	_ = h.Handle(context.Background(), r)
}

func (l *logger) Enabled(ctx context.Context, level slog.Level) bool {
	return defaultHandler().Enabled(ctx, level)
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

// Package level shortcuts on the root logger.

func Trace(msg string, ctx ...any) { Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Error(msg, ctx...) }
