package middleware

import (
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
)

// Option customises a guard middleware.
type Option func(*options)

type options struct {
	onError ErrorHandler
}

// WithErrorHandler replaces [DefaultErrorHandler].
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

// Guard returns middleware that verifies each request with policy before
// calling next. On success next receives the request with the guard's
// context; on failure the error handler writes the response and next is not
// called.
func Guard(g *goGuard.Guard, policy goGuard.Policy, opts ...Option) func(http.Handler) http.Handler {
	o := options{onError: DefaultErrorHandler}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				o.onError(w, r, goGuard.ErrGuardNotReady)
				return
			}

			ctx, err := g.Verify(r.Context(), r, policy)
			if err != nil {
				o.onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
