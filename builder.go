package goGuard

import (
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"go.uber.org/zap"
)

// Builder assembles a [Guard].
//
// Builder instances are intended to be configured during initialization and
// then discarded; Build may be called only once.
type Builder struct {
	config Config

	decoder    TokenDecoder
	revocation RevocationChecker
	loader     PrincipalLoader
	validators []ClaimsValidator

	logger    *zap.Logger
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithDecoder sets the token decode collaborator. It is required.
func (b *Builder) WithDecoder(d TokenDecoder) *Builder {
	b.decoder = d
	return b
}

// WithRevocationChecker sets the revocation collaborator. Which token types
// it is consulted for is controlled by Config.RevocationChecks.
func (b *Builder) WithRevocationChecker(rc RevocationChecker) *Builder {
	b.revocation = rc
	return b
}

// WithPrincipalLoader sets the principal loader. Without one, guards publish
// no principal.
func (b *Builder) WithPrincipalLoader(l PrincipalLoader) *Builder {
	b.loader = l
	return b
}

// WithClaimsValidator appends a validator run against access-token claims.
// Validators run in the order they were added.
func (b *Builder) WithClaimsValidator(v ClaimsValidator) *Builder {
	if v != nil {
		b.validators = append(b.validators, v)
	}
	return b
}

// WithLogger sets the logger used for guard decisions. Defaults to a no-op
// logger.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the sink behind the audit dispatcher. The dispatcher
// only runs when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles guard counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Verify latency histogram. It has no
// effect unless metrics are enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the time source used for freshness checks and audit
// timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and returns an immutable Guard.
//
// Build fails when the builder was already used, the configuration is
// invalid or no decoder was supplied.
func (b *Builder) Build() (*Guard, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.decoder == nil {
		return nil, errors.New("token decoder required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	checks := make(map[TokenType]bool, len(cfg.RevocationChecks))
	for _, t := range cfg.RevocationChecks {
		checks[t] = true
	}

	g := &Guard{
		cfg:              cfg,
		exemptMethods:    newMethodSet(cfg.ExemptMethods),
		csrfMethods:      newMethodSet(cfg.CSRFRequestMethods),
		revocationChecks: checks,
		decoder:          b.decoder,
		revocation:       b.revocation,
		loader:           b.loader,
		validators:       append([]ClaimsValidator(nil), b.validators...),
		logger:           logger.Named("goguard"),
		metrics:          NewMetrics(cfg.Metrics),
		now:              clock,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	if b.revocation == nil && len(checks) > 0 {
		g.logger.Debug("revocation checks configured without a revocation checker; skipping")
	}

	b.built = true
	return g, nil
}
