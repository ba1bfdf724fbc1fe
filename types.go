package goGuard

import (
	"context"
	"io"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
)

// TokenDecoder verifies a raw token (signature, expiry, CSRF binding) and
// returns its claims. It is the only component that handles key material.
//
// csrfValue is empty unless the token came from a cookie on a CSRF-protected
// request; a non-empty value must match the token's csrf claim.
type TokenDecoder interface {
	DecodeToken(ctx context.Context, encoded, csrfValue string) (Claims, error)
	UnverifiedHeader(encoded string) (Header, error)
}

// RevocationChecker reports whether an otherwise valid token was revoked.
// Implementations own their own locking and consistency; errors abort the
// request.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, claims Claims, tokenType TokenType) (bool, error)
}

// RevocationCheckerFunc adapts a function to RevocationChecker.
type RevocationCheckerFunc func(ctx context.Context, claims Claims, tokenType TokenType) (bool, error)

// IsRevoked calls f.
func (f RevocationCheckerFunc) IsRevoked(ctx context.Context, claims Claims, tokenType TokenType) (bool, error) {
	return f(ctx, claims, tokenType)
}

// PrincipalLoader resolves the application user for a verified identity.
// Returning (nil, nil) is treated as a failed load.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, identity any) (any, error)
}

// PrincipalLoaderFunc adapts a function to PrincipalLoader.
type PrincipalLoaderFunc func(ctx context.Context, identity any) (any, error)

// LoadPrincipal calls f.
func (f PrincipalLoaderFunc) LoadPrincipal(ctx context.Context, identity any) (any, error) {
	return f(ctx, identity)
}

// ClaimsValidator applies application rules to decoded access-token claims.
// Any error fails the request with ErrUserClaimsVerification.
type ClaimsValidator func(ctx context.Context, claims Claims) error

// Candidate is the raw token found in one request location.
type Candidate struct {
	Encoded  string
	CSRF     string
	Location TokenLocation
}

// Policy selects which checks a guard applies.
type Policy int

const (
	// PolicyRequiredAccess requires a valid access token.
	PolicyRequiredAccess Policy = iota
	// PolicyOptionalAccess verifies an access token when one is present and
	// proceeds anonymously when none is.
	PolicyOptionalAccess
	// PolicyFreshAccessRequired requires a valid, fresh access token.
	PolicyFreshAccessRequired
	// PolicyRequiredRefresh requires a valid refresh token.
	PolicyRequiredRefresh
)

func (p Policy) String() string {
	switch p {
	case PolicyRequiredAccess:
		return "required_access"
	case PolicyOptionalAccess:
		return "optional_access"
	case PolicyFreshAccessRequired:
		return "fresh_access_required"
	case PolicyRequiredRefresh:
		return "required_refresh"
	default:
		return "unknown"
	}
}

func (p Policy) tokenType() TokenType {
	if p == PolicyRequiredRefresh {
		return TokenRefresh
	}
	return TokenAccess
}

func (p Policy) valid() bool {
	return p >= PolicyRequiredAccess && p <= PolicyRequiredRefresh
}

// AuditEvent is the structured record emitted for each guard decision.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the guard's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
