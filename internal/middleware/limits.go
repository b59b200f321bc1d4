package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Body size limits.
const (
	KB = 1024
	MB = 1024 * KB

	// DefaultMaxBodySize covers every storefront JSON payload.
	DefaultMaxBodySize = 1 * MB

	// WebhookMaxBodySize is for Tebex webhook deliveries.
	WebhookMaxBodySize = 1 * MB
)

// Request timeouts.
const (
	DefaultTimeout = 15 * time.Second

	// CheckoutTimeout leaves room for the ledger transaction plus the email
	// fallback chain.
	CheckoutTimeout = 45 * time.Second
)

// MaxBodySize rejects bodies larger than maxBytes with 413.
// If no size is provided, DefaultMaxBodySize is used.
func MaxBodySize(maxBytes ...int64) func(http.Handler) http.Handler {
	limit := int64(DefaultMaxBodySize)
	if len(maxBytes) > 0 && maxBytes[0] > 0 {
		limit = maxBytes[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				respondTooLarge(w, r, "Request body too large")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout bounds request processing. If the handler has not written a
// response when the deadline passes, the client gets 503.
// If no duration is provided, DefaultTimeout is used.
func Timeout(timeout ...time.Duration) func(http.Handler) http.Handler {
	duration := DefaultTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		duration = timeout[0]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()

			done := make(chan struct{})
			tw := &timeoutWriter{ResponseWriter: w}

			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.timedOut = true
				if !tw.wroteHeader {
					respondTimeout(w, r)
				}
			}
		})
	}
}

// timeoutWriter drops writes once the deadline handler has answered.
type timeoutWriter struct {
	http.ResponseWriter
	mu          sync.Mutex
	wroteHeader bool
	timedOut    bool
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.ResponseWriter.Header()
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.wroteHeader || tw.timedOut {
		return
	}
	tw.wroteHeader = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut {
		return 0, context.DeadlineExceeded
	}
	if !tw.wroteHeader {
		tw.wroteHeader = true
		tw.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}
