package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// MethodEd25519 signs with EdDSA over Ed25519 keys.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with HMAC-SHA256 over a shared secret.
	MethodHS256 SigningMethod = "hs256"
)

// Token types written to the "type" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

const defaultIdentityClaim = "identity"

var (
	// ErrCSRFMismatch is returned by Decode when the supplied CSRF value does
	// not match the token's csrf claim.
	ErrCSRFMismatch = errors.New("CSRF double submit tokens do not match")
	// ErrMissingClaim is returned when a required claim is absent.
	ErrMissingClaim = errors.New("missing claim")
	// ErrTokenExpired is the golang-jwt expiry error, re-exported so callers
	// need not import the parser.
	ErrTokenExpired = jwt.ErrTokenExpired
)

// Config controls token issuance and verification.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte

	// IdentityClaim names the claim holding the identity. Defaults to
	// "identity".
	IdentityClaim string
	// DisableCSRF stops issuing the csrf claim used for cookie double submit.
	DisableCSRF bool
}

// Manager issues and verifies access and refresh tokens.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid refresh TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.IdentityClaim = strings.TrimSpace(cfg.IdentityClaim)
	if cfg.IdentityClaim == "" {
		cfg.IdentityClaim = defaultIdentityClaim
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.VerifyKeys) == 0 && len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key or verify key set")
		}
		for kid, key := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify key map contains empty kid")
			}
			if _, err := parseEdPublicKey(key); err != nil {
				return nil, fmt.Errorf("invalid ed25519 verify key for kid %q: %w", kid, err)
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	}

	return &Manager{config: cfg}, nil
}

// IdentityClaim returns the claim name the manager writes identities to.
func (j *Manager) IdentityClaim() string {
	return j.config.IdentityClaim
}

type tokenOptions struct {
	fresh      any
	userClaims map[string]any
	expiresIn  time.Duration
	now        time.Time
}

// TokenOption customises one issued token.
type TokenOption func(*tokenOptions)

// WithFresh marks an access token fresh (or explicitly not fresh).
func WithFresh(fresh bool) TokenOption {
	return func(o *tokenOptions) { o.fresh = fresh }
}

// WithFreshUntil makes an access token fresh until t, stored as a unix
// timestamp.
func WithFreshUntil(t time.Time) TokenOption {
	return func(o *tokenOptions) { o.fresh = t.UTC().Unix() }
}

// WithUserClaims embeds custom claims under "user_claims".
func WithUserClaims(claims map[string]any) TokenOption {
	return func(o *tokenOptions) { o.userClaims = maps.Clone(claims) }
}

// WithExpiresIn overrides the configured TTL for one token.
func WithExpiresIn(d time.Duration) TokenOption {
	return func(o *tokenOptions) { o.expiresIn = d }
}

// WithIssuedAt overrides the issue time. Tests use it to mint expired tokens.
func WithIssuedAt(t time.Time) TokenOption {
	return func(o *tokenOptions) { o.now = t }
}

// CreateAccess issues an access token for identity. Tokens are not fresh
// unless WithFresh or WithFreshUntil says otherwise.
func (j *Manager) CreateAccess(identity any, opts ...TokenOption) (string, error) {
	o := tokenOptions{fresh: false, expiresIn: j.config.AccessTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return j.create(TypeAccess, identity, o)
}

// CreateRefresh issues a refresh token for identity. Freshness options are
// ignored.
func (j *Manager) CreateRefresh(identity any, opts ...TokenOption) (string, error) {
	o := tokenOptions{expiresIn: j.config.RefreshTTL}
	for _, opt := range opts {
		opt(&o)
	}
	o.fresh = nil
	return j.create(TypeRefresh, identity, o)
}

func (j *Manager) create(tokenType string, identity any, o tokenOptions) (string, error) {
	if identity == nil {
		return "", errors.New("identity required")
	}
	now := o.now
	if now.IsZero() {
		now = time.Now()
	}

	claims := jwt.MapClaims{
		"type":                  tokenType,
		"jti":                   uuid.NewString(),
		"iat":                   jwt.NewNumericDate(now),
		"nbf":                   jwt.NewNumericDate(now),
		j.config.IdentityClaim: identity,
	}
	if o.expiresIn > 0 {
		claims["exp"] = jwt.NewNumericDate(now.Add(o.expiresIn))
	}
	if o.fresh != nil {
		claims["fresh"] = o.fresh
	}
	if len(o.userClaims) > 0 {
		claims["user_claims"] = o.userClaims
	}
	if j.config.Issuer != "" {
		claims["iss"] = j.config.Issuer
	}
	if j.config.Audience != "" {
		claims["aud"] = j.config.Audience
	}
	if !j.config.DisableCSRF {
		csrf, err := newCSRFValue()
		if err != nil {
			return "", err
		}
		claims["csrf"] = csrf
	}

	token := jwt.NewWithClaims(j.getMethod(), claims)
	if j.config.KeyID != "" {
		token.Header["kid"] = j.config.KeyID
	}

	signKey, err := j.getSignKey()
	if err != nil {
		return "", err
	}

	return token.SignedString(signKey)
}

// Decode verifies tokenStr and returns its claims.
//
// Signature, algorithm, kid, exp/nbf (with leeway), issuer and audience are
// checked. A missing "type" claim reads as an access token and a missing
// "fresh" claim as not fresh. When csrfValue is non-empty the token must
// carry a matching csrf claim.
func (j *Manager) Decode(tokenStr, csrfValue string) (map[string]any, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.getMethod().Alg()}),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}
	if j.config.Audience != "" {
		options = append(options, jwt.WithAudience(j.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, jwt.MapClaims{}, j.keyFunc)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	if j.config.MaxFutureIAT > 0 {
		iat, err := claims.GetIssuedAt()
		if err != nil {
			return nil, err
		}
		if iat != nil && iat.Time.After(time.Now().Add(j.config.MaxFutureIAT)) {
			return nil, errors.New("token iat too far in the future")
		}
	}

	if _, ok := claims[j.config.IdentityClaim]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingClaim, j.config.IdentityClaim)
	}
	if _, ok := claims["type"]; !ok {
		claims["type"] = TypeAccess
	}
	if _, ok := claims["fresh"]; !ok {
		claims["fresh"] = false
	}

	if csrfValue != "" {
		want, ok := claims["csrf"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: csrf", ErrMissingClaim)
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(csrfValue)) != 1 {
			return nil, ErrCSRFMismatch
		}
	}

	return map[string]any(claims), nil
}

func (j *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != j.getMethod().Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}

	if len(j.config.VerifyKeys) > 0 {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := j.config.VerifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return j.keyBytesToVerifyKey(key)
	}

	if j.config.KeyID != "" {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		if kid != j.config.KeyID {
			return nil, errors.New("unknown kid")
		}
	}

	return j.getVerifyKey()
}

// UnverifiedHeader returns the JOSE header of tokenStr without checking the
// signature.
func (j *Manager) UnverifiedHeader(tokenStr string) (map[string]any, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}
	return maps.Clone(token.Header), nil
}

// CSRFTokenFrom returns the csrf claim of tokenStr without verifying it.
// Servers use it to hand the double submit value to clients after setting
// the token cookie.
func (j *Manager) CSRFTokenFrom(tokenStr string) (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return "", err
	}
	claims, _ := token.Claims.(jwt.MapClaims)
	csrf, ok := claims["csrf"].(string)
	if !ok || csrf == "" {
		return "", fmt.Errorf("%w: csrf", ErrMissingClaim)
	}
	return csrf, nil
}

func newCSRFValue() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (j *Manager) getMethod() jwt.SigningMethod {
	switch j.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (j *Manager) getSignKey() (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return j.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(j.config.PrivateKey)
	}
}

func (j *Manager) getVerifyKey() (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return j.config.PrivateKey, nil
	default:
		return parseEdPublicKey(j.config.PublicKey)
	}
}

func (j *Manager) keyBytesToVerifyKey(key []byte) (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return key, nil
	default:
		return parseEdPublicKey(key)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
