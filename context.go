package goGuard

import "context"

// RequestContext is what a successful guard publishes for the rest of the
// request. It is built once per request and never modified afterwards; an
// anonymous RequestContext (optional access without a token, exempt method)
// carries no claims.
type RequestContext struct {
	claims       Claims
	header       Header
	principal    any
	hasPrincipal bool
	identityKey  string
	location     TokenLocation
}

// Authenticated reports whether a token was verified for this request.
func (rc *RequestContext) Authenticated() bool {
	return rc != nil && rc.claims != nil
}

// Claims returns a copy of the verified claims, or nil when anonymous.
func (rc *RequestContext) Claims() Claims {
	if rc == nil {
		return nil
	}
	return rc.claims.Clone()
}

// Header returns a copy of the unverified token header, or nil.
func (rc *RequestContext) Header() Header {
	if rc == nil {
		return nil
	}
	return rc.header.Clone()
}

// Identity returns the identity claim, or nil when anonymous.
func (rc *RequestContext) Identity() any {
	if !rc.Authenticated() {
		return nil
	}
	return rc.claims.Identity(rc.identityKey)
}

// Principal returns the loaded principal. ok is false when no loader is
// configured or the request is anonymous.
func (rc *RequestContext) Principal() (principal any, ok bool) {
	if rc == nil || !rc.hasPrincipal {
		return nil, false
	}
	return rc.principal, true
}

// Location reports where the token was found. It is meaningless for
// anonymous requests.
func (rc *RequestContext) Location() TokenLocation {
	if rc == nil {
		return 0
	}
	return rc.location
}

type requestContextKey struct{}

func bindRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom returns the RequestContext published by a guard.
func RequestContextFrom(ctx context.Context) (*RequestContext, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok && rc != nil
}

// ClaimsFromContext returns the verified claims of the current request.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	rc, ok := RequestContextFrom(ctx)
	if !ok || !rc.Authenticated() {
		return nil, false
	}
	return rc.Claims(), true
}

// IdentityFromContext returns the identity claim of the current request.
func IdentityFromContext(ctx context.Context) (any, bool) {
	rc, ok := RequestContextFrom(ctx)
	if !ok || !rc.Authenticated() {
		return nil, false
	}
	return rc.Identity(), true
}

// HeaderFromContext returns the unverified token header of the current request.
func HeaderFromContext(ctx context.Context) (Header, bool) {
	rc, ok := RequestContextFrom(ctx)
	if !ok || !rc.Authenticated() {
		return nil, false
	}
	return rc.Header(), true
}

// PrincipalFromContext returns the loaded principal of the current request.
func PrincipalFromContext(ctx context.Context) (any, bool) {
	rc, ok := RequestContextFrom(ctx)
	if !ok {
		return nil, false
	}
	return rc.Principal()
}
