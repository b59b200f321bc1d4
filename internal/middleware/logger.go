package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

const (
	LoggerContextKey contextKey = "logger"

	// cartSessionHeader is sent by the storefront on cart and checkout calls.
	cartSessionHeader = "X-Cart-Session"
)

// WithRequestLogger puts a logger into the request context that is already
// tagged with the route, request id, client IP and cart session. Run it
// after RequestID and WithClientIP; empty values are left out.
func WithRequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			}
			for _, tag := range [...]struct{ key, value string }{
				{"request_id", GetRequestID(ctx)},
				{"client_ip", GetClientIPFromContext(ctx)},
				{"cart_session", r.Header.Get(cartSessionHeader)},
			} {
				if tag.value != "" {
					attrs = append(attrs, slog.String(tag.key, tag.value))
				}
			}

			ctx = context.WithValue(ctx, LoggerContextKey, base.With(attrs...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLogger returns the request logger. Outside a request it falls back to
// the first non-nil fallback and then to slog.Default().
func GetLogger(ctx context.Context, fallback ...*slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*slog.Logger); ok {
		return logger
	}
	for _, l := range fallback {
		if l != nil {
			return l
		}
	}
	return slog.Default()
}
