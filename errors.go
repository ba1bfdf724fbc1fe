package goGuard

import "errors"

var (
	// ErrNoAuthorization is returned when no usable token was found in any
	// configured location.
	ErrNoAuthorization = errors.New("no authorization")
	// ErrInvalidHeader is returned when the authorization header is present
	// but malformed. It is never retried against other locations.
	ErrInvalidHeader = errors.New("invalid authorization header")
	// ErrCSRF is returned when a cookie-delivered token is missing its CSRF
	// side value or the value does not match the token's csrf claim.
	ErrCSRF = errors.New("csrf check failed")
	// ErrInvalidTokenType is returned when an access token is presented where a
	// refresh token is expected, or vice versa.
	ErrInvalidTokenType = errors.New("invalid token type")
	// ErrFreshTokenRequired is returned by fresh-only guards for stale tokens.
	ErrFreshTokenRequired = errors.New("fresh token required")
	// ErrRevokedToken is returned when the revocation checker reports the token.
	ErrRevokedToken = errors.New("token revoked")
	// ErrUserClaimsVerification is returned when a configured claims validator
	// rejects the decoded claims.
	ErrUserClaimsVerification = errors.New("user claims verification failed")
	// ErrUserLoad is returned when a configured principal loader finds no
	// principal for a valid identity.
	ErrUserLoad = errors.New("user load failed")
	// ErrInvalidToken is returned by the decode collaborator for tokens that
	// fail signature, structure or registered-claim checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned by the decode collaborator for expired tokens.
	ErrExpiredToken = errors.New("token expired")
	// ErrGuardNotReady is returned when a nil or unbuilt Guard is used.
	ErrGuardNotReady = errors.New("guard not initialized")
)

// Error carries a human readable message for one of the error kinds above.
// errors.Is matches against the kind and against Cause; Error returns the
// message verbatim so hosts can surface it in responses.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" && e.Kind != nil {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// NewError builds an *Error for collaborators (decoders, loaders, validators)
// that want to report one of the package's error kinds with their own message.
func NewError(kind error, msg string) error {
	return newError(kind, msg)
}
