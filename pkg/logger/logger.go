// Package logger provides the structured logger shared by the service,
// built on log/slog.
//
// Request handlers use FromCtx so every line carries the request id:
//
//	log := logger.FromCtx(c.UserContext())
//	log.Info("order created", "order_id", order.ID)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// L is the process-wide base logger.
var L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

// Init replaces the base logger: JSON at info level in production, text at debug level otherwise.
func Init(env string) *slog.Logger {
	L = New(os.Stdout, env)
	slog.SetDefault(L)
	return L
}

// New builds a logger writing to w with the format chosen by env.
func New(w io.Writer, env string) *slog.Logger {
	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Discard silences all output; used by tests.
func Discard() {
	L = slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ctxKey struct{}

// WithLogger stores a request-scoped logger in ctx.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromCtx returns the request-scoped logger, or the base logger when none is set.
func FromCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}
