package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRevocationStoreTest(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewStore(rdb, "test"), mr
}

func TestRevokeAndRestore(t *testing.T) {
	store, _ := newRevocationStoreTest(t)
	ctx := context.Background()
	claims := goGuard.Claims{"jti": "j-1", "type": "access"}

	revoked, err := store.IsRevoked(ctx, claims, goGuard.TokenAccess)
	if err != nil || revoked {
		t.Fatalf("fresh token: revoked=%v err=%v", revoked, err)
	}

	if err := store.Revoke(ctx, goGuard.TokenAccess, "j-1", time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, claims, goGuard.TokenAccess)
	if err != nil || !revoked {
		t.Fatalf("after revoke: revoked=%v err=%v", revoked, err)
	}

	// Type is part of the key.
	revoked, err = store.IsRevoked(ctx, claims, goGuard.TokenRefresh)
	if err != nil || revoked {
		t.Fatalf("refresh lookup: revoked=%v err=%v", revoked, err)
	}

	if err := store.Restore(ctx, goGuard.TokenAccess, "j-1"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := store.Restore(ctx, goGuard.TokenAccess, "j-1"); err != nil {
		t.Fatalf("second restore: %v", err)
	}
	revoked, _ = store.IsRevoked(ctx, claims, goGuard.TokenAccess)
	if revoked {
		t.Fatal("expected restored token to be accepted")
	}
}

func TestRevokeClaimsExpiresWithToken(t *testing.T) {
	store, mr := newRevocationStoreTest(t)
	ctx := context.Background()
	exp := time.Now().Add(10 * time.Minute)
	claims := goGuard.Claims{"jti": "j-2", "type": "refresh", "exp": float64(exp.Unix())}

	if err := store.RevokeClaims(ctx, claims); err != nil {
		t.Fatalf("revoke claims: %v", err)
	}
	ttl := mr.TTL("test:refresh:j-2")
	if ttl <= 0 || ttl > 10*time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	mr.FastForward(11 * time.Minute)
	revoked, err := store.IsRevoked(ctx, claims, goGuard.TokenRefresh)
	if err != nil || revoked {
		t.Fatalf("after expiry: revoked=%v err=%v", revoked, err)
	}
}

func TestRevokeClaimsSkipsExpiredToken(t *testing.T) {
	store, mr := newRevocationStoreTest(t)
	claims := goGuard.Claims{"jti": "j-3", "exp": float64(time.Now().Add(-time.Minute).Unix())}

	if err := store.RevokeClaims(context.Background(), claims); err != nil {
		t.Fatalf("revoke claims: %v", err)
	}
	if mr.Exists("test:access:j-3") {
		t.Fatal("expired token should not be recorded")
	}
}

func TestMissingTokenID(t *testing.T) {
	store, _ := newRevocationStoreTest(t)
	ctx := context.Background()

	if _, err := store.IsRevoked(ctx, goGuard.Claims{"type": "access"}, goGuard.TokenAccess); !errors.Is(err, goGuard.ErrInvalidToken) {
		t.Fatalf("expected invalid token kind, got %v", err)
	}
	if err := store.Revoke(ctx, goGuard.TokenAccess, "", time.Minute); !errors.Is(err, ErrMissingTokenID) {
		t.Fatalf("expected ErrMissingTokenID, got %v", err)
	}
}

func TestStoreUnavailable(t *testing.T) {
	store, mr := newRevocationStoreTest(t)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), goGuard.Claims{"jti": "j"}, goGuard.TokenAccess)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := store.Ping(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ping to fail, got %v", err)
	}
}
