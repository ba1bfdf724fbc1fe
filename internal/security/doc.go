// Package security summarises the effective protection of a configured
// guard: which token sources are live, whether cookie CSRF and revocation
// checks apply, and which settings deserve a second look.
//
// # What this package must NOT do
//
//   - Import the root goGuard package; callers flatten their configuration
//     into a ReportInput.
package security
