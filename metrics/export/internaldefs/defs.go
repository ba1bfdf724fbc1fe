package internaldefs

import (
	goGuard "github.com/MrEthical07/goGuard"
)

// CounterDef names one guard counter for export.
type CounterDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// HistogramDef names one guard histogram for export.
type HistogramDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// AuditDroppedName is the exported name of the audit backpressure counter.
const AuditDroppedName = "goguard_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// CounterDefs lists every guard counter in export order.
var CounterDefs = []CounterDef{
	{ID: goGuard.MetricGuardAllowed, Name: "goguard_allowed_total", Help: "Requests admitted with a verified token."},
	{ID: goGuard.MetricGuardAnonymous, Name: "goguard_anonymous_total", Help: "Optional-access requests admitted without a token."},
	{ID: goGuard.MetricGuardExempt, Name: "goguard_exempt_total", Help: "Requests skipped because of an exempt method."},
	{ID: goGuard.MetricGuardDenied, Name: "goguard_denied_total", Help: "Rejected requests."},
	{ID: goGuard.MetricNoAuthorization, Name: "goguard_no_authorization_total", Help: "Rejections for a missing token."},
	{ID: goGuard.MetricInvalidHeader, Name: "goguard_invalid_header_total", Help: "Rejections for a malformed authorization header."},
	{ID: goGuard.MetricCSRFFailure, Name: "goguard_csrf_failure_total", Help: "Missing or mismatched CSRF values."},
	{ID: goGuard.MetricInvalidToken, Name: "goguard_invalid_token_total", Help: "Tokens rejected by the decoder."},
	{ID: goGuard.MetricExpiredToken, Name: "goguard_expired_token_total", Help: "Expired tokens."},
	{ID: goGuard.MetricInvalidTokenType, Name: "goguard_invalid_token_type_total", Help: "Access and refresh token mix-ups."},
	{ID: goGuard.MetricFreshTokenRequired, Name: "goguard_fresh_token_required_total", Help: "Stale tokens presented to fresh-only routes."},
	{ID: goGuard.MetricUserClaimsRejected, Name: "goguard_user_claims_rejected_total", Help: "Claims validator rejections."},
	{ID: goGuard.MetricTokenRevoked, Name: "goguard_token_revoked_total", Help: "Revoked tokens."},
	{ID: goGuard.MetricUserLoadFailure, Name: "goguard_user_load_failure_total", Help: "Principal loader misses."},
	{ID: goGuard.MetricGuardAborted, Name: "goguard_aborted_total", Help: "Verifications abandoned by request cancellation."},
}

// HistogramDefs lists every guard histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: goGuard.MetricVerifyLatency, Name: "goguard_verify_latency_seconds", Help: "Guard verification latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds spelled for metric names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding with
// zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
