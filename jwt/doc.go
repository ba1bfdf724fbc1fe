// Package jwt issues and verifies the access and refresh tokens consumed by
// goGuard. Tokens carry a type, a jti, an optional fresh marker, custom user
// claims and a csrf value for cookie double submit.
package jwt
