package middleware

import (
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
)

// RequireAccess admits requests carrying a valid access token.
func RequireAccess(g *goGuard.Guard, opts ...Option) func(http.Handler) http.Handler {
	return Guard(g, goGuard.PolicyRequiredAccess, opts...)
}

// OptionalAccess verifies an access token when present and otherwise lets the
// request through anonymously.
func OptionalAccess(g *goGuard.Guard, opts ...Option) func(http.Handler) http.Handler {
	return Guard(g, goGuard.PolicyOptionalAccess, opts...)
}

// RequireFreshAccess admits requests carrying a valid, fresh access token.
func RequireFreshAccess(g *goGuard.Guard, opts ...Option) func(http.Handler) http.Handler {
	return Guard(g, goGuard.PolicyFreshAccessRequired, opts...)
}

// RequireRefresh admits requests carrying a valid refresh token.
func RequireRefresh(g *goGuard.Guard, opts ...Option) func(http.Handler) http.Handler {
	return Guard(g, goGuard.PolicyRequiredRefresh, opts...)
}
