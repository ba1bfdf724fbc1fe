package goGuard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elnormous/contenttype"
)

var errBodyTooLarge = errors.New("request body exceeds MaxBodyBytes")

// Located is the outcome of a successful token lookup: the first location
// whose candidate also decoded.
type Located struct {
	Candidate Candidate
	Claims    Claims
	Header    Header
}

// Locate walks the configured locations in order and returns the first
// candidate that decodes. A missing token in one location moves on to the
// next; a malformed header, CSRF failure or decode failure aborts at once.
//
// Locate does not consume the request: bodies read for the json and form
// lookups are restored, so calling it again on the same request yields the
// same result.
func (g *Guard) Locate(ctx context.Context, r *http.Request, tokenType TokenType) (Located, error) {
	if g == nil || g.decoder == nil {
		return Located{}, ErrGuardNotReady
	}

	locations := g.cfg.TokenLocation
	details := make([]string, 0, len(locations))

	for _, loc := range locations {
		candidate, err := g.extract(r, tokenType, loc)
		if err == nil {
			var claims Claims
			claims, err = g.decoder.DecodeToken(ctx, candidate.Encoded, candidate.CSRF)
			if err == nil {
				header, herr := g.decoder.UnverifiedHeader(candidate.Encoded)
				if herr != nil {
					return Located{}, herr
				}
				return Located{Candidate: candidate, Claims: claims, Header: header}, nil
			}
		}
		if errors.Is(err, ErrNoAuthorization) {
			details = append(details, err.Error())
			continue
		}
		return Located{}, err
	}

	return Located{}, newError(ErrNoAuthorization, missingTokenMessage(locations, details))
}

// missingTokenMessage composes the error for an exhausted lookup. A single
// configured location reports its own message; several are summarised as
// "Missing JWT in headers, cookies or json (detail; detail; detail)".
func missingTokenMessage(locations []TokenLocation, details []string) string {
	if len(locations) == 1 && len(details) == 1 {
		return details[0]
	}
	if len(locations) == 0 {
		return "Missing JWT"
	}

	names := make([]string, len(locations))
	for i, loc := range locations {
		names[i] = loc.String()
	}
	last := len(names) - 1
	return fmt.Sprintf("Missing JWT in %s or %s (%s)",
		strings.Join(names[:last], ", "),
		names[last],
		strings.Join(details, "; "),
	)
}

// extract dispatches to the lookup for one location. It never decodes.
func (g *Guard) extract(r *http.Request, tokenType TokenType, loc TokenLocation) (Candidate, error) {
	var (
		c   Candidate
		err error
	)
	switch loc {
	case LocationHeaders:
		c, err = tokenFromHeaders(&g.cfg, r)
	case LocationCookies:
		c, err = tokenFromCookies(&g.cfg, g.csrfMethods, r, tokenType)
	case LocationQueryString:
		c, err = tokenFromQueryString(&g.cfg, r)
	case LocationJSON:
		c, err = tokenFromJSON(&g.cfg, r, tokenType)
	default:
		return Candidate{}, newError(ErrNoAuthorization, fmt.Sprintf("Unsupported token location %s", loc))
	}
	c.Location = loc
	return c, err
}

func tokenFromHeaders(cfg *Config, r *http.Request) (Candidate, error) {
	headerName := cfg.HeaderName
	headerType := cfg.HeaderType

	authHeader := r.Header.Get(headerName)
	if authHeader == "" {
		return Candidate{}, newError(ErrNoAuthorization, fmt.Sprintf("Missing %s Header", headerName))
	}

	// Without a type the header must be the bare token.
	if headerType == "" {
		parts := strings.Fields(authHeader)
		if len(parts) != 1 {
			return Candidate{}, newError(ErrInvalidHeader,
				fmt.Sprintf("Bad %s header. Expected value '<JWT>'", headerName))
		}
		return Candidate{Encoded: parts[0]}, nil
	}

	// With a type the header may carry several comma separated
	// "<type> <value>" fields; the first field of our type is used.
	var match []string
	for _, field := range strings.Split(authHeader, ",") {
		parts := strings.Fields(field)
		if len(parts) > 0 && parts[0] == headerType {
			match = parts
			break
		}
	}
	if len(match) != 2 {
		return Candidate{}, newError(ErrInvalidHeader,
			fmt.Sprintf("Bad %s header. Expected value '%s <JWT>'", headerName, headerType))
	}
	return Candidate{Encoded: match[1]}, nil
}

func tokenFromCookies(cfg *Config, csrfMethods methodSet, r *http.Request, tokenType TokenType) (Candidate, error) {
	cookieName := cfg.AccessCookieName
	csrfHeaderName := cfg.AccessCSRFHeaderName
	csrfFieldName := cfg.AccessCSRFFieldName
	if tokenType == TokenRefresh {
		cookieName = cfg.RefreshCookieName
		csrfHeaderName = cfg.RefreshCSRFHeaderName
		csrfFieldName = cfg.RefreshCSRFFieldName
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return Candidate{}, newError(ErrNoAuthorization, fmt.Sprintf("Missing cookie %q", cookieName))
	}

	if !cfg.CSRFProtect || !csrfMethods.has(r.Method) {
		return Candidate{Encoded: cookie.Value}, nil
	}

	csrfValue := r.Header.Get(csrfHeaderName)
	if csrfValue == "" && cfg.CSRFCheckForm {
		csrfValue = formValue(r, csrfFieldName, cfg.MaxBodyBytes)
	}
	if csrfValue == "" {
		return Candidate{}, newError(ErrCSRF, "Missing CSRF token")
	}

	return Candidate{Encoded: cookie.Value, CSRF: csrfValue}, nil
}

func tokenFromQueryString(cfg *Config, r *http.Request) (Candidate, error) {
	token := ""
	if r.URL != nil {
		token = r.URL.Query().Get(cfg.QueryStringName)
	}
	if token == "" {
		return Candidate{}, newError(ErrNoAuthorization,
			fmt.Sprintf("Missing %q query parameter", cfg.QueryStringName))
	}
	return Candidate{Encoded: token}, nil
}

func tokenFromJSON(cfg *Config, r *http.Request, tokenType TokenType) (Candidate, error) {
	ctype, err := contenttype.GetMediaType(r)
	// Parameters such as charset are ignored; wildcards are not JSON.
	if err != nil || ctype.Type != "application" || ctype.Subtype != "json" {
		return Candidate{}, newError(ErrNoAuthorization, "Invalid content-type. Must be application/json.")
	}

	key := cfg.JSONKey
	if tokenType == TokenRefresh {
		key = cfg.RefreshJSONKey
	}
	missing := newError(ErrNoAuthorization, fmt.Sprintf("Missing %q key in json data.", key))

	body, err := peekBody(r, cfg.MaxBodyBytes)
	if err != nil || len(body) == 0 {
		return Candidate{}, missing
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Candidate{}, missing
	}
	token, _ := payload[key].(string)
	if token == "" {
		return Candidate{}, missing
	}
	return Candidate{Encoded: token}, nil
}

// formValue reads a urlencoded or multipart field without consuming r.Body.
func formValue(r *http.Request, field string, limit int64) string {
	if r.PostForm != nil {
		return r.PostForm.Get(field)
	}

	body, err := peekBody(r, limit)
	if err != nil || len(body) == 0 {
		return ""
	}

	clone := r.Clone(r.Context())
	clone.Body = io.NopCloser(bytes.NewReader(body))
	// net/http only parses bodies of POST, PUT and PATCH; DELETE forms carry
	// the CSRF field too.
	clone.Method = http.MethodPost
	value := clone.PostFormValue(field)
	if clone.MultipartForm != nil {
		_ = clone.MultipartForm.RemoveAll()
	}
	return value
}

type replayBody struct {
	io.Reader
	io.Closer
}

// peekBody buffers up to limit bytes of r.Body and puts them back in front of
// the unread remainder.
func peekBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	orig := r.Body
	buf, err := io.ReadAll(io.LimitReader(orig, limit+1))
	r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(buf), orig), Closer: orig}
	if err != nil {
		return nil, err
	}
	if int64(len(buf)) > limit {
		return nil, errBodyTooLarge
	}
	return buf, nil
}
