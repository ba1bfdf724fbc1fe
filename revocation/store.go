package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps Redis failures.
var ErrStoreUnavailable = errors.New("revocation store unavailable")

// ErrMissingTokenID is returned for tokens without a jti. Such tokens cannot
// be revoked, so a guard that checks revocation rejects them as invalid.
var ErrMissingTokenID = goGuard.NewError(goGuard.ErrInvalidToken, "Missing claim: jti")

// DefaultTTL bounds entries for tokens that carry no exp claim.
const DefaultTTL = 30 * 24 * time.Hour

// Store is a Redis-backed revocation list keyed by token type and jti.
// Entries expire together with the token they revoke.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewStore creates a revocation [Store]. prefix sets the Redis key namespace
// and defaults to "grv".
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "grv"
	}
	return &Store{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *Store) key(tokenType goGuard.TokenType, jti string) string {
	return s.prefix + ":" + string(tokenType) + ":" + jti
}

// Revoke records jti as revoked for ttl.
//
//	Performance: 1 Redis SET.
func (s *Store) Revoke(ctx context.Context, tokenType goGuard.TokenType, jti string, ttl time.Duration) error {
	if jti == "" {
		return ErrMissingTokenID
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.redis.Set(ctx, s.key(tokenType, jti), s.now().UTC().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeClaims revokes the token described by claims until its exp. Tokens
// already past exp are not recorded.
func (s *Store) RevokeClaims(ctx context.Context, claims goGuard.Claims) error {
	jti := claims.JTI()
	if jti == "" {
		return ErrMissingTokenID
	}

	ttl := DefaultTTL
	if exp, ok := expiry(claims); ok {
		ttl = exp.Sub(s.now())
		if ttl <= 0 {
			return nil
		}
	}

	tokenType := claims.Type()
	if tokenType == "" {
		tokenType = goGuard.TokenAccess
	}
	return s.Revoke(ctx, tokenType, jti, ttl)
}

// Restore removes a revocation entry. Restoring an unknown jti is a no-op.
func (s *Store) Restore(ctx context.Context, tokenType goGuard.TokenType, jti string) error {
	if jti == "" {
		return ErrMissingTokenID
	}
	if err := s.redis.Del(ctx, s.key(tokenType, jti)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked implements [goGuard.RevocationChecker].
//
//	Performance: 1 Redis EXISTS.
func (s *Store) IsRevoked(ctx context.Context, claims goGuard.Claims, tokenType goGuard.TokenType) (bool, error) {
	jti := claims.JTI()
	if jti == "" {
		return false, ErrMissingTokenID
	}

	n, err := s.redis.Exists(ctx, s.key(tokenType, jti)).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, err
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}

func expiry(claims goGuard.Claims) (time.Time, bool) {
	switch v := claims[goGuard.ClaimExpiresAt].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case int:
		return time.Unix(int64(v), 0), true
	default:
		return time.Time{}, false
	}
}
