package goGuard

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// MetricID identifies one guard counter or histogram.
type MetricID uint16

const (
	// MetricGuardAllowed counts requests admitted with a verified token.
	MetricGuardAllowed MetricID = iota
	// MetricGuardAnonymous counts optional-access requests admitted without a token.
	MetricGuardAnonymous
	// MetricGuardExempt counts requests skipped because of their method.
	MetricGuardExempt
	// MetricGuardDenied counts every rejected request.
	MetricGuardDenied
	// MetricNoAuthorization counts rejections for a missing token.
	MetricNoAuthorization
	// MetricInvalidHeader counts rejections for a malformed header.
	MetricInvalidHeader
	// MetricCSRFFailure counts missing or mismatched CSRF values.
	MetricCSRFFailure
	// MetricInvalidToken counts tokens the decoder rejected.
	MetricInvalidToken
	// MetricExpiredToken counts expired tokens.
	MetricExpiredToken
	// MetricInvalidTokenType counts access/refresh mix-ups.
	MetricInvalidTokenType
	// MetricFreshTokenRequired counts stale tokens on fresh-only routes.
	MetricFreshTokenRequired
	// MetricUserClaimsRejected counts claims validator failures.
	MetricUserClaimsRejected
	// MetricTokenRevoked counts revoked tokens.
	MetricTokenRevoked
	// MetricUserLoadFailure counts principal loader misses.
	MetricUserLoadFailure
	// MetricGuardAborted counts pipelines abandoned by context cancellation.
	MetricGuardAborted
	// MetricVerifyLatency is the latency histogram of Guard.Verify.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free guard counters. A nil or disabled Metrics ignores
// all updates.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics instance for cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only MetricVerifyLatency has a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricVerifyLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}

// failureMetric maps a pipeline error to its specific counter.
func failureMetric(err error) (MetricID, bool) {
	switch {
	case errors.Is(err, ErrNoAuthorization):
		return MetricNoAuthorization, true
	case errors.Is(err, ErrInvalidHeader):
		return MetricInvalidHeader, true
	case errors.Is(err, ErrCSRF):
		return MetricCSRFFailure, true
	case errors.Is(err, ErrExpiredToken):
		return MetricExpiredToken, true
	case errors.Is(err, ErrInvalidToken):
		return MetricInvalidToken, true
	case errors.Is(err, ErrInvalidTokenType):
		return MetricInvalidTokenType, true
	case errors.Is(err, ErrFreshTokenRequired):
		return MetricFreshTokenRequired, true
	case errors.Is(err, ErrUserClaimsVerification):
		return MetricUserClaimsRejected, true
	case errors.Is(err, ErrRevokedToken):
		return MetricTokenRevoked, true
	case errors.Is(err, ErrUserLoad):
		return MetricUserLoadFailure, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return MetricGuardAborted, true
	default:
		return 0, false
	}
}

// ErrorKind returns a short stable name for err's kind, used in logs and
// audit events. Unknown errors report "error".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoAuthorization):
		return "no_authorization"
	case errors.Is(err, ErrInvalidHeader):
		return "invalid_header"
	case errors.Is(err, ErrCSRF):
		return "csrf"
	case errors.Is(err, ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrInvalidTokenType):
		return "invalid_token_type"
	case errors.Is(err, ErrFreshTokenRequired):
		return "fresh_token_required"
	case errors.Is(err, ErrUserClaimsVerification):
		return "user_claims_verification"
	case errors.Is(err, ErrRevokedToken):
		return "revoked_token"
	case errors.Is(err, ErrUserLoad):
		return "user_load"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "aborted"
	default:
		return "error"
	}
}
