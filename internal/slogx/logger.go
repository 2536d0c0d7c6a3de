// Package slogx wires structured logging for programs that import it: its
// init installs a tint handler as the slog default (cmd/peetcheck imports it
// for that side effect). The library packages of this module do not log
// through it.
package slogx

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	colorable "github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// LevelTrace sits below slog.LevelDebug, a level for raw wire dumps
// (ClientHello bytes, HTTP/2 frame payloads, pool state transitions). No
// package in this module currently logs at it.
const LevelTrace slog.Level = slog.LevelDebug - ((iota + 1) * 4)

// connKey is the context key used to thread a connection identifier through
// log records, so every line emitted while handling a request carries the
// same tag as the pool's lease/evict bookkeeping.
type connKey struct{}

// WithConn returns a context carrying id for later retrieval by ContextHandler.
func WithConn(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connKey{}, id)
}

// ContextHandler decorates a slog.Handler by pulling the connection id (if
// any) out of the context and attaching it to every record.
type ContextHandler struct {
	slog.Handler
}

// Handle implements slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(connKey{}).(string); ok {
		r.AddAttrs(slog.String("conn", id))
	}
	return h.Handler.Handle(ctx, r)
}

func init() {
	w := os.Stdout
	slog.SetDefault(slog.New(
		&ContextHandler{
			Handler: tint.NewHandler(colorable.NewColorable(w), &tint.Options{
				TimeFormat: "01/02 03:04:05 pm MST",
				NoColor:    disableColor(w),
				Level:      levelFromEnv(),
				ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
					if attr.Key != slog.LevelKey || len(groups) != 0 {
						return attr
					}
					level, ok := attr.Value.Any().(slog.Level)
					if !ok {
						return attr
					}
					switch level {
					case LevelTrace:
						return tint.Attr(12, slog.String(attr.Key, "TRC"))
					default:
						return attr
					}
				},
			}),
		},
	))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "":
		return slog.LevelWarn
	default:
		return slog.LevelWarn
	}
}

func disableColor(out *os.File) bool {
	forceColor := strings.EqualFold(os.Getenv("LOG_FORCE_COLOR"), "1") ||
		strings.EqualFold(os.Getenv("LOG_FORCE_COLOR"), "true") ||
		strings.EqualFold(os.Getenv("LOG_FORCE_COLOR"), "yes")
	if forceColor {
		return false
	}
	return !isatty.IsTerminal(out.Fd())
}
