// Package revocation provides a Redis-backed token revocation list that
// plugs into a goGuard Guard as its RevocationChecker.
//
// Entries are keyed by token type and jti and expire with the token, so the
// list never outgrows the set of still-valid tokens.
package revocation
