package goGuard

import (
	"encoding/json"
	"maps"
	"math"
	"time"
)

// Well-known claim names written by jwt.Manager and read by the verifier.
const (
	ClaimType       = "type"
	ClaimFresh      = "fresh"
	ClaimJTI        = "jti"
	ClaimCSRF       = "csrf"
	ClaimUserClaims = "user_claims"
	ClaimExpiresAt  = "exp"
	ClaimIssuedAt   = "iat"
)

// Claims is a decoded token payload. Values come from the decode collaborator
// and are untrusted until the guard pipeline has accepted them.
type Claims map[string]any

// Header is the unverified JOSE header of a token (alg, kid, typ, ...).
type Header map[string]any

// Type returns the "type" claim.
func (c Claims) Type() TokenType {
	s, _ := c[ClaimType].(string)
	return TokenType(s)
}

// JTI returns the token identifier, or "" when absent.
func (c Claims) JTI() string {
	s, _ := c[ClaimJTI].(string)
	return s
}

// Identity returns the identity claim stored under key.
func (c Claims) Identity(key string) any {
	return c[key]
}

// UserClaims returns the custom claims object, or nil.
func (c Claims) UserClaims() map[string]any {
	m, _ := c[ClaimUserClaims].(map[string]any)
	return m
}

// Clone returns a shallow copy safe to hand to request code.
func (c Claims) Clone() Claims {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}

// Clone returns a shallow copy.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	return maps.Clone(h)
}

// freshness interprets the "fresh" claim. It reports whether the token is
// fresh at now; a missing or unrecognised claim is treated as not fresh.
func freshness(v any, now time.Time) bool {
	switch f := v.(type) {
	case bool:
		return f
	case nil:
		return false
	}

	ts, ok := numericClaim(v)
	if !ok {
		return false
	}
	return ts >= now.UTC().Unix()
}

// numericClaim converts the numeric shapes a JSON decoder may produce into
// whole seconds.
func numericClaim(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return floatSeconds(n)
	case float32:
		return floatSeconds(float64(n))
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatSeconds(f)
	default:
		return 0, false
	}
}

// floatSeconds truncates f, saturating at the int64 range.
func floatSeconds(f float64) (int64, bool) {
	switch {
	case math.IsNaN(f), math.IsInf(f, 0):
		return 0, false
	case f >= math.MaxInt64:
		return math.MaxInt64, true
	case f <= math.MinInt64:
		return math.MinInt64, true
	default:
		return int64(f), true
	}
}
