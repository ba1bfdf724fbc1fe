package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func newEdManager(t *testing.T, cfg Config) (*Manager, ed25519.PrivateKey) {
	t.Helper()
	pub, priv := newEdKeys(t)
	cfg.SigningMethod = MethodEd25519
	cfg.PrivateKey = priv
	cfg.PublicKey = pub
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = time.Minute
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, priv
}

func TestCreateAccessRoundTrip(t *testing.T) {
	m, _ := newEdManager(t, Config{})

	token, err := m.CreateAccess("alice", WithUserClaims(map[string]any{"role": "admin"}))
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	claims, err := m.Decode(token, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if claims["type"] != TypeAccess {
		t.Fatalf("expected access type, got %v", claims["type"])
	}
	if claims["identity"] != "alice" {
		t.Fatalf("expected identity alice, got %v", claims["identity"])
	}
	if claims["fresh"] != false {
		t.Fatalf("expected non-fresh token, got %v", claims["fresh"])
	}
	if jti, _ := claims["jti"].(string); jti == "" {
		t.Fatal("expected jti to be set")
	}
	uc, _ := claims["user_claims"].(map[string]any)
	if uc["role"] != "admin" {
		t.Fatalf("expected user claims to survive, got %v", claims["user_claims"])
	}
}

func TestCreateRefreshHasNoFreshClaim(t *testing.T) {
	m, _ := newEdManager(t, Config{})

	token, err := m.CreateRefresh("alice", WithFresh(true))
	if err != nil {
		t.Fatalf("create refresh: %v", err)
	}
	claims, err := m.Decode(token, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims["type"] != TypeRefresh {
		t.Fatalf("expected refresh type, got %v", claims["type"])
	}
	if claims["fresh"] != false {
		t.Fatalf("refresh tokens must decode as not fresh, got %v", claims["fresh"])
	}
}

func TestFreshUntilStoresTimestamp(t *testing.T) {
	m, _ := newEdManager(t, Config{})
	until := time.Now().Add(time.Hour).Truncate(time.Second)

	token, err := m.CreateAccess("alice", WithFreshUntil(until))
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	claims, err := m.Decode(token, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ts, ok := claims["fresh"].(float64)
	if !ok || int64(ts) != until.Unix() {
		t.Fatalf("expected fresh=%d, got %v", until.Unix(), claims["fresh"])
	}
}

func TestDecodeCSRF(t *testing.T) {
	m, _ := newEdManager(t, Config{})

	token, err := m.CreateAccess("alice")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	csrf, err := m.CSRFTokenFrom(token)
	if err != nil {
		t.Fatalf("csrf token: %v", err)
	}

	if _, err := m.Decode(token, csrf); err != nil {
		t.Fatalf("expected matching csrf to pass: %v", err)
	}
	if _, err := m.Decode(token, "not-the-value"); !errors.Is(err, ErrCSRFMismatch) {
		t.Fatalf("expected ErrCSRFMismatch, got %v", err)
	}
}

func TestDecodeCSRFMissingClaim(t *testing.T) {
	m, _ := newEdManager(t, Config{DisableCSRF: true})

	token, err := m.CreateAccess("alice")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.CSRFTokenFrom(token); !errors.Is(err, ErrMissingClaim) {
		t.Fatalf("expected ErrMissingClaim from CSRFTokenFrom, got %v", err)
	}
	if _, err := m.Decode(token, "anything"); !errors.Is(err, ErrMissingClaim) {
		t.Fatalf("expected ErrMissingClaim from Decode, got %v", err)
	}
}

func TestDecodeRequiresIdentityClaim(t *testing.T) {
	m, priv := newEdManager(t, Config{})

	tok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, gjwt.MapClaims{
		"type": "access",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	token, err := tok.SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Decode(token, ""); !errors.Is(err, ErrMissingClaim) {
		t.Fatalf("expected ErrMissingClaim, got %v", err)
	}
}

func TestDecodeDefaultsTypeToAccess(t *testing.T) {
	m, priv := newEdManager(t, Config{})

	tok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, gjwt.MapClaims{
		"identity": "bob",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})
	token, _ := tok.SignedString(priv)
	claims, err := m.Decode(token, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims["type"] != TypeAccess {
		t.Fatalf("expected default access type, got %v", claims["type"])
	}
}

func TestDecodeCustomIdentityClaim(t *testing.T) {
	m, _ := newEdManager(t, Config{IdentityClaim: "sub"})

	token, err := m.CreateAccess("carol")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	claims, err := m.Decode(token, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims["sub"] != "carol" {
		t.Fatalf("expected sub=carol, got %v", claims["sub"])
	}
	if m.IdentityClaim() != "sub" {
		t.Fatalf("unexpected identity claim %q", m.IdentityClaim())
	}
}

func TestDecodeRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"identity": "alice",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})
	token, err := tok.SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Decode(token, ""); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestDecodeExpiredAndLeeway(t *testing.T) {
	m, _ := newEdManager(t, Config{Leeway: 30 * time.Second})

	within, err := m.CreateAccess("alice",
		WithIssuedAt(time.Now().Add(-time.Minute)),
		WithExpiresIn(45*time.Second),
	)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.Decode(within, ""); err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}

	expired, err := m.CreateAccess("alice",
		WithIssuedAt(time.Now().Add(-3*time.Minute)),
		WithExpiresIn(time.Minute),
	)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.Decode(expired, ""); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestDecodeIssuerAndAudience(t *testing.T) {
	m, priv := newEdManager(t, Config{Issuer: "goguard", Audience: "api"})

	token, err := m.CreateAccess("alice")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.Decode(token, ""); err != nil {
		t.Fatalf("expected valid token to parse: %v", err)
	}

	for name, claims := range map[string]gjwt.MapClaims{
		"issuer":   {"identity": "a", "iss": "other", "aud": "api"},
		"audience": {"identity": "a", "iss": "goguard", "aud": "other-api"},
	} {
		claims["exp"] = time.Now().Add(time.Minute).Unix()
		signed, _ := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims).SignedString(priv)
		if _, err := m.Decode(signed, ""); err == nil {
			t.Fatalf("expected wrong %s to fail", name)
		}
	}
}

func TestDecodeUnknownKidFails(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	pub2, _ := newEdKeys(t)
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv1,
		PublicKey:     pub1,
		KeyID:         "k1",
		VerifyKeys: map[string][]byte{
			"k1": pub1,
		},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := gjwt.MapClaims{"identity": "a", "exp": time.Now().Add(time.Minute).Unix()}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = "k2"
	token, err := tok.SignedString(priv1)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Decode(token, ""); err == nil {
		t.Fatal("expected unknown kid failure")
	}

	good, err := m.CreateAccess("a")
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	if _, err := m.Decode(good, ""); err != nil {
		t.Fatalf("expected known kid token to pass: %v", err)
	}
	header, err := m.UnverifiedHeader(good)
	if err != nil {
		t.Fatalf("unverified header: %v", err)
	}
	if header["kid"] != "k1" || header["alg"] != "EdDSA" {
		t.Fatalf("unexpected header %v", header)
	}

	m2, _ := NewManager(Config{AccessTTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub2, VerifyKeys: map[string][]byte{"k1": pub2}})
	if _, err := m2.Decode(good, ""); err == nil {
		t.Fatal("expected decode failure with mismatched key set")
	}
}

func TestHS256RoundTrip(t *testing.T) {
	m, err := NewManager(Config{
		AccessTTL:     time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := m.CreateRefresh(42)
	if err != nil {
		t.Fatalf("create refresh: %v", err)
	}
	claims, err := m.Decode(token, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims["identity"] != float64(42) {
		t.Fatalf("expected numeric identity, got %v (%T)", claims["identity"], claims["identity"])
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	cases := map[string]Config{
		"no ttl":      {SigningMethod: MethodHS256, PrivateKey: []byte("k")},
		"no hs key":   {AccessTTL: time.Minute, SigningMethod: MethodHS256},
		"no ed pub":   {AccessTTL: time.Minute, SigningMethod: MethodEd25519},
		"bad method":  {AccessTTL: time.Minute, SigningMethod: "rs256"},
		"big leeway":  {AccessTTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: time.Hour},
		"neg refresh": {AccessTTL: time.Minute, RefreshTTL: -time.Second, SigningMethod: MethodHS256, PrivateKey: []byte("k")},
	}
	for name, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
