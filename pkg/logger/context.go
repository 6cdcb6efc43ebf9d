package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// With stores a child logger carrying the extra attributes in the context.
func With(ctx context.Context, args ...any) context.Context {
	return context.WithValue(ctx, contextKey{}, From(ctx).With(args...))
}

// From returns the request-scoped logger, or the process logger when the
// context carries none.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return L()
}
