package goGuard

import (
	"context"
	"errors"
	"fmt"
)

// verifyClaims applies the post-decode checks in order: token type,
// freshness (fresh policy only), claims validators (access tokens only) and
// finally revocation, which is the only check that may do I/O.
func (g *Guard) verifyClaims(ctx context.Context, claims Claims, policy Policy) error {
	expected := policy.tokenType()

	if claims.Type() != expected {
		return newError(ErrInvalidTokenType, fmt.Sprintf("Only %s tokens are allowed", expected))
	}

	if policy == PolicyFreshAccessRequired && !freshness(claims[ClaimFresh], g.now()) {
		return newError(ErrFreshTokenRequired, "Fresh token required")
	}

	if expected == TokenAccess {
		for _, validate := range g.validators {
			if err := validate(ctx, claims); err != nil {
				if errors.Is(err, ErrUserClaimsVerification) {
					return err
				}
				return &Error{
					Kind:    ErrUserClaimsVerification,
					Message: "User claims verification failed",
					Cause:   err,
				}
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if g.revocation != nil && g.revocationChecks[expected] {
		revoked, err := g.revocation.IsRevoked(ctx, claims, expected)
		if err != nil {
			return err
		}
		if revoked {
			return newError(ErrRevokedToken, "Token has been revoked")
		}
	}

	return nil
}

// RequireClaims returns a ClaimsValidator that rejects tokens whose custom
// claims object lacks any of keys.
func RequireClaims(keys ...string) ClaimsValidator {
	return func(_ context.Context, claims Claims) error {
		uc := claims.UserClaims()
		for _, k := range keys {
			if _, ok := uc[k]; !ok {
				return fmt.Errorf("missing user claim %q", k)
			}
		}
		return nil
	}
}
