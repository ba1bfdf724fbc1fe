package goGuard

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// TokenLocation identifies one place in a request where a token may be found.
type TokenLocation int

const (
	// LocationHeaders reads the token from Config.HeaderName.
	LocationHeaders TokenLocation = iota
	// LocationCookies reads the token from the access or refresh cookie.
	LocationCookies
	// LocationQueryString reads the token from Config.QueryStringName.
	LocationQueryString
	// LocationJSON reads the token from a key of an application/json body.
	LocationJSON
)

var locationNames = [...]string{
	LocationHeaders:     "headers",
	LocationCookies:     "cookies",
	LocationQueryString: "query_string",
	LocationJSON:        "json",
}

// String returns the identifier used in composed error messages and in the
// JWT_TOKEN_LOCATION environment variable.
func (l TokenLocation) String() string {
	if l < 0 || int(l) >= len(locationNames) {
		return fmt.Sprintf("TokenLocation(%d)", int(l))
	}
	return locationNames[l]
}

// ParseTokenLocation maps an identifier ("headers", "cookies", "query_string",
// "json") to its TokenLocation.
func ParseTokenLocation(s string) (TokenLocation, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range locationNames {
		if n == name {
			return TokenLocation(i), nil
		}
	}
	return 0, fmt.Errorf("unknown token location %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler for env decoding.
func (l *TokenLocation) UnmarshalText(text []byte) error {
	parsed, err := ParseTokenLocation(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// TokenType is the value of the "type" claim.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// UnmarshalText implements encoding.TextUnmarshaler for env decoding.
func (t *TokenType) UnmarshalText(text []byte) error {
	switch TokenType(strings.ToLower(strings.TrimSpace(string(text)))) {
	case TokenAccess:
		*t = TokenAccess
	case TokenRefresh:
		*t = TokenRefresh
	default:
		return fmt.Errorf("unknown token type %q", string(text))
	}
	return nil
}

// Config is the guard configuration. A Guard copies it at Build time and
// never mutates it afterwards.
type Config struct {
	// TokenLocation lists the sources tried, in order.
	TokenLocation []TokenLocation `env:"JWT_TOKEN_LOCATION" envSeparator:","`
	// ExemptMethods skip verification entirely (CORS preflight by default).
	ExemptMethods []string `env:"JWT_EXEMPT_METHODS" envSeparator:","`

	HeaderName string `env:"JWT_HEADER_NAME"`
	// HeaderType is the scheme prefix, e.g. "Bearer". Empty means the header
	// carries the bare token.
	HeaderType string `env:"JWT_HEADER_TYPE"`

	AccessCookieName  string `env:"JWT_ACCESS_COOKIE_NAME"`
	RefreshCookieName string `env:"JWT_REFRESH_COOKIE_NAME"`

	CSRFProtect           bool     `env:"JWT_COOKIE_CSRF_PROTECT"`
	CSRFRequestMethods    []string `env:"JWT_CSRF_METHODS" envSeparator:","`
	AccessCSRFHeaderName  string   `env:"JWT_ACCESS_CSRF_HEADER_NAME"`
	RefreshCSRFHeaderName string   `env:"JWT_REFRESH_CSRF_HEADER_NAME"`
	CSRFCheckForm         bool     `env:"JWT_CSRF_CHECK_FORM"`
	AccessCSRFFieldName   string   `env:"JWT_ACCESS_CSRF_FIELD_NAME"`
	RefreshCSRFFieldName  string   `env:"JWT_REFRESH_CSRF_FIELD_NAME"`

	QueryStringName string `env:"JWT_QUERY_STRING_NAME"`

	JSONKey        string `env:"JWT_JSON_KEY"`
	RefreshJSONKey string `env:"JWT_REFRESH_JSON_KEY"`

	IdentityClaimKey string `env:"JWT_IDENTITY_CLAIM"`

	// RevocationChecks lists the token types checked against the configured
	// RevocationChecker. A nil checker disables revocation regardless.
	RevocationChecks []TokenType `env:"JWT_BLACKLIST_TOKEN_CHECKS" envSeparator:","`

	// MaxBodyBytes bounds how much of a request body the JSON and form
	// lookups will buffer.
	MaxBodyBytes int64 `env:"JWT_MAX_BODY_BYTES"`

	Audit   AuditConfig   `envPrefix:"JWT_AUDIT_"`
	Metrics MetricsConfig `envPrefix:"JWT_METRICS_"`
}

// AuditConfig controls the asynchronous guard-decision audit stream.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process guard counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		TokenLocation:         []TokenLocation{LocationHeaders},
		ExemptMethods:         []string{http.MethodOptions},
		HeaderName:            "Authorization",
		HeaderType:            "Bearer",
		AccessCookieName:      "access_token_cookie",
		RefreshCookieName:     "refresh_token_cookie",
		CSRFProtect:           true,
		CSRFRequestMethods:    []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AccessCSRFHeaderName:  "X-CSRF-TOKEN",
		RefreshCSRFHeaderName: "X-CSRF-TOKEN",
		CSRFCheckForm:         false,
		AccessCSRFFieldName:   "csrf_token",
		RefreshCSRFFieldName:  "csrf_token",
		QueryStringName:       "jwt",
		JSONKey:               "access_token",
		RefreshJSONKey:        "refresh_token",
		IdentityClaimKey:      "identity",
		RevocationChecks:      []TokenType{TokenAccess, TokenRefresh},
		MaxBodyBytes:          1 << 20,
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.TokenLocation = append([]TokenLocation(nil), cfg.TokenLocation...)
	out.ExemptMethods = append([]string(nil), cfg.ExemptMethods...)
	out.CSRFRequestMethods = append([]string(nil), cfg.CSRFRequestMethods...)
	out.RevocationChecks = append([]TokenType(nil), cfg.RevocationChecks...)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found, if any.
func (c *Config) Validate() error {
	if len(c.TokenLocation) == 0 {
		return errors.New("TokenLocation must list at least one location")
	}

	for _, loc := range c.TokenLocation {
		switch loc {
		case LocationHeaders:
			if strings.TrimSpace(c.HeaderName) == "" {
				return errors.New("HeaderName is required when headers are a token location")
			}
			if strings.ContainsAny(c.HeaderType, " \t,") {
				return errors.New("HeaderType must be a single token")
			}
		case LocationCookies:
			if c.AccessCookieName == "" || c.RefreshCookieName == "" {
				return errors.New("cookie names are required when cookies are a token location")
			}
			if c.CSRFProtect {
				if c.AccessCSRFHeaderName == "" || c.RefreshCSRFHeaderName == "" {
					return errors.New("CSRF header names are required when CSRFProtect is enabled")
				}
				if c.CSRFCheckForm && (c.AccessCSRFFieldName == "" || c.RefreshCSRFFieldName == "") {
					return errors.New("CSRF field names are required when CSRFCheckForm is enabled")
				}
			}
		case LocationQueryString:
			if c.QueryStringName == "" {
				return errors.New("QueryStringName is required when query_string is a token location")
			}
		case LocationJSON:
			if c.JSONKey == "" || c.RefreshJSONKey == "" {
				return errors.New("JSON keys are required when json is a token location")
			}
		default:
			return fmt.Errorf("unsupported token location %d", int(loc))
		}
	}

	if strings.TrimSpace(c.IdentityClaimKey) == "" {
		return errors.New("IdentityClaimKey must not be empty")
	}

	for _, t := range c.RevocationChecks {
		if t != TokenAccess && t != TokenRefresh {
			return fmt.Errorf("RevocationChecks contains unknown token type %q", string(t))
		}
	}

	if c.MaxBodyBytes <= 0 {
		return errors.New("MaxBodyBytes must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

type methodSet map[string]struct{}

func newMethodSet(methods []string) methodSet {
	set := make(methodSet, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" {
			set[m] = struct{}{}
		}
	}
	return set
}

func (s methodSet) has(method string) bool {
	_, ok := s[strings.ToUpper(method)]
	return ok
}
