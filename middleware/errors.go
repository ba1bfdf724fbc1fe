package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	goGuard "github.com/MrEthical07/goGuard"
)

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type errorBody struct {
	Msg string `json:"msg"`
}

// StatusFor maps a guard error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, goGuard.ErrNoAuthorization),
		errors.Is(err, goGuard.ErrCSRF),
		errors.Is(err, goGuard.ErrExpiredToken),
		errors.Is(err, goGuard.ErrFreshTokenRequired),
		errors.Is(err, goGuard.ErrRevokedToken),
		errors.Is(err, goGuard.ErrUserLoad):
		return http.StatusUnauthorized
	case errors.Is(err, goGuard.ErrInvalidHeader),
		errors.Is(err, goGuard.ErrInvalidToken),
		errors.Is(err, goGuard.ErrInvalidTokenType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, goGuard.ErrUserClaimsVerification):
		return http.StatusBadRequest
	case errors.Is(err, goGuard.ErrGuardNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DefaultErrorHandler writes {"msg": "..."} with the status from
// [StatusFor]. Messages of guard error kinds are returned verbatim; anything
// else is reported as an internal error. Nothing is written when the client
// has gone away.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}

	status := StatusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}

	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Msg: msg})
}
