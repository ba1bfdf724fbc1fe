package goGuard

import (
	"context"
	"errors"

	"github.com/MrEthical07/goGuard/jwt"
)

// JWTDecoder adapts a [jwt.Manager] to [TokenDecoder], translating its
// failures into this package's error kinds.
type JWTDecoder struct {
	manager *jwt.Manager
}

// NewJWTDecoder returns a TokenDecoder backed by m.
func NewJWTDecoder(m *jwt.Manager) *JWTDecoder {
	return &JWTDecoder{manager: m}
}

// DecodeToken implements [TokenDecoder].
func (d *JWTDecoder) DecodeToken(ctx context.Context, encoded, csrfValue string) (Claims, error) {
	if d == nil || d.manager == nil {
		return nil, ErrGuardNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	claims, err := d.manager.Decode(encoded, csrfValue)
	if err != nil {
		return nil, decodeError(err)
	}
	return Claims(claims), nil
}

// UnverifiedHeader implements [TokenDecoder].
func (d *JWTDecoder) UnverifiedHeader(encoded string) (Header, error) {
	if d == nil || d.manager == nil {
		return nil, ErrGuardNotReady
	}
	h, err := d.manager.UnverifiedHeader(encoded)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidToken, Message: "Invalid token header", Cause: err}
	}
	return Header(h), nil
}

func decodeError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrCSRFMismatch):
		return &Error{Kind: ErrCSRF, Message: "CSRF double submit tokens do not match", Cause: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &Error{Kind: ErrExpiredToken, Message: "Token has expired", Cause: err}
	default:
		return &Error{Kind: ErrInvalidToken, Message: err.Error(), Cause: err}
	}
}
