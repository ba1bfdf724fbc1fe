// Package middleware adapts goGuard guards to net/http middleware.
//
// # Guards
//
//   - [RequireAccess]: a valid access token is required.
//   - [OptionalAccess]: a token is verified if present, anonymous otherwise.
//   - [RequireFreshAccess]: a valid, fresh access token is required.
//   - [RequireRefresh]: a valid refresh token is required.
//
// Each guard calls Guard.Verify and passes the returned context on to the
// wrapped handler. Rejections go through an [ErrorHandler]; the default
// writes a JSON body of the form {"msg": "..."}.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the Guard's decoder).
//   - Access Redis (revocation is a Guard collaborator).
//   - Make authorization decisions beyond pass/reject from Guard.Verify.
package middleware
