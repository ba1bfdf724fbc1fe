// Package goGuard protects HTTP handlers with JWT-based request guards.
//
// A [Guard] is built once through [Builder] and then verifies requests
// against a [Policy]: required access, optional access, fresh access or
// refresh. Verification locates a token in the configured sources (headers,
// cookies with double-submit CSRF, query string, JSON body), decodes it
// through a [TokenDecoder], checks type, freshness, application claims and
// revocation, loads the principal and finally publishes a [RequestContext]
// on the returned context.
//
// Guard methods are safe to call from multiple goroutines after Build.
//
// # Architecture boundaries
//
// goGuard is the public surface: [Guard], [Builder], [Config], the
// collaborator interfaces and the composition helpers in compose.go.
// Token minting lives in jwt/, Redis-backed revocation in revocation/,
// net/http middleware in middleware/ and metric export in metrics/export/.
// Audit dispatch lives under internal/.
//
// # What this package must NOT do
//
//   - Publish a RequestContext for a request that failed verification or
//     whose context ended before the pipeline finished.
//   - Log or audit raw token strings.
//   - Import any sub-package that re-imports goGuard (no import cycles).
//
// # Performance contract
//
// Verify performs no I/O of its own. Any round trips come from the
// collaborators it is configured with (decoder, revocation checker,
// principal loader).
package goGuard
