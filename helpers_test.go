package goGuard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goGuard/jwt"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t testing.TB) *jwt.Manager {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    testSecret,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

type guardFixture struct {
	guard   *Guard
	manager *jwt.Manager
}

// newFixture builds a Guard over a real HS256 manager. configure may adjust
// the builder before Build.
func newFixture(t testing.TB, cfg Config, configure ...func(*Builder)) guardFixture {
	t.Helper()
	m := newTestManager(t)
	b := New().WithConfig(cfg).WithDecoder(NewJWTDecoder(m))
	for _, fn := range configure {
		fn(b)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build guard: %v", err)
	}
	t.Cleanup(g.Close)
	return guardFixture{guard: g, manager: m}
}

func (f guardFixture) access(t testing.TB, opts ...jwt.TokenOption) string {
	t.Helper()
	tok, err := f.manager.CreateAccess("alice", opts...)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	return tok
}

func (f guardFixture) refresh(t testing.TB) string {
	t.Helper()
	tok, err := f.manager.CreateRefresh("alice")
	if err != nil {
		t.Fatalf("create refresh: %v", err)
	}
	return tok
}

func configWith(locations ...TokenLocation) Config {
	cfg := DefaultConfig()
	cfg.TokenLocation = locations
	return cfg
}

func bearerRequest(method, token string) *http.Request {
	r := httptest.NewRequest(method, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func jsonRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/protected", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	return r
}

// blockingChecker blocks every revocation lookup until ctx ends, signalling
// entered on the first call.
type blockingChecker struct {
	once    sync.Once
	entered chan struct{}
}

func newBlockingChecker() *blockingChecker {
	return &blockingChecker{entered: make(chan struct{})}
}

func (b *blockingChecker) IsRevoked(ctx context.Context, _ Claims, _ TokenType) (bool, error) {
	b.once.Do(func() { close(b.entered) })
	<-ctx.Done()
	return false, ctx.Err()
}

func expiredOption() jwt.TokenOption {
	return jwt.WithIssuedAt(time.Now().Add(-time.Hour))
}
