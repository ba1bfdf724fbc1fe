package goGuard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	internalaudit "github.com/MrEthical07/goGuard/internal/audit"
	"go.uber.org/zap"
)

// Guard verifies requests against a Policy. It is immutable after
// [Builder.Build] and safe for concurrent use; all per-request state lives in
// the context returned by Verify.
type Guard struct {
	cfg              Config
	exemptMethods    methodSet
	csrfMethods      methodSet
	revocationChecks map[TokenType]bool

	decoder    TokenDecoder
	revocation RevocationChecker
	loader     PrincipalLoader
	validators []ClaimsValidator

	logger  *zap.Logger
	audit   *internalaudit.Dispatcher
	metrics *Metrics
	now     func() time.Time
}

// Config returns a copy of the guard's configuration.
func (g *Guard) Config() Config {
	if g == nil {
		return Config{}
	}
	return cloneConfig(g.cfg)
}

// Verify runs the pipeline for policy against r:
//
//	locate → decode → type → freshness → claims → revocation → load principal → publish
//
// On success it returns ctx carrying the published [RequestContext]. On
// failure it returns ctx unchanged together with the error; nothing is
// published. Exempt methods, and optional access without a usable token,
// publish an anonymous RequestContext.
//
// Every collaborator receives ctx. If ctx ends before the pipeline finishes,
// Verify returns ctx.Err() and publishes nothing.
func (g *Guard) Verify(ctx context.Context, r *http.Request, policy Policy) (context.Context, error) {
	if ctx == nil && r != nil {
		ctx = r.Context()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if g == nil || g.decoder == nil {
		return ctx, ErrGuardNotReady
	}
	if r == nil {
		return ctx, errors.New("goGuard: nil request")
	}
	if !policy.valid() {
		return ctx, fmt.Errorf("goGuard: unknown policy %d", int(policy))
	}

	if g.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { g.metrics.Observe(MetricVerifyLatency, time.Since(start)) }()
	}

	if err := ctx.Err(); err != nil {
		g.recordDenied(ctx, r, policy, err)
		return ctx, err
	}

	if g.exemptMethods.has(r.Method) {
		g.metrics.Inc(MetricGuardExempt)
		return bindRequestContext(ctx, &RequestContext{identityKey: g.cfg.IdentityClaimKey}), nil
	}

	rc, err := g.run(ctx, r, policy)
	// A cancelled request must not observe a published context, anonymous
	// or not.
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	if err != nil {
		if policy == PolicyOptionalAccess && optionalAccessRecoverable(err) {
			g.recordAnonymous(ctx, r, policy, err)
			return bindRequestContext(ctx, &RequestContext{identityKey: g.cfg.IdentityClaimKey}), nil
		}
		g.recordDenied(ctx, r, policy, err)
		return ctx, err
	}

	g.recordAllowed(ctx, r, policy, rc)
	return bindRequestContext(ctx, rc), nil
}

// optionalAccessRecoverable reports the errors that optional access treats as
// "no token": a missing token and a malformed header. Everything else,
// including CSRF and decode failures, still blocks the handler.
func optionalAccessRecoverable(err error) bool {
	return errors.Is(err, ErrNoAuthorization) || errors.Is(err, ErrInvalidHeader)
}

func (g *Guard) run(ctx context.Context, r *http.Request, policy Policy) (*RequestContext, error) {
	located, err := g.Locate(ctx, r, policy.tokenType())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := g.verifyClaims(ctx, located.Claims, policy); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	principal, hasPrincipal, err := g.loadPrincipal(ctx, located.Claims)
	if err != nil {
		return nil, err
	}

	return &RequestContext{
		claims:       located.Claims,
		header:       located.Header,
		principal:    principal,
		hasPrincipal: hasPrincipal,
		identityKey:  g.cfg.IdentityClaimKey,
		location:     located.Candidate.Location,
	}, nil
}

// VerifyAccess requires a valid access token.
func (g *Guard) VerifyAccess(ctx context.Context, r *http.Request) (context.Context, error) {
	return g.Verify(ctx, r, PolicyRequiredAccess)
}

// VerifyAccessOptional verifies an access token if one is present. A missing
// token or a malformed header leaves the request anonymous; any other
// failure is returned.
func (g *Guard) VerifyAccessOptional(ctx context.Context, r *http.Request) (context.Context, error) {
	return g.Verify(ctx, r, PolicyOptionalAccess)
}

// VerifyFreshAccess requires a valid access token whose fresh claim holds.
func (g *Guard) VerifyFreshAccess(ctx context.Context, r *http.Request) (context.Context, error) {
	return g.Verify(ctx, r, PolicyFreshAccessRequired)
}

// VerifyRefresh requires a valid refresh token.
func (g *Guard) VerifyRefresh(ctx context.Context, r *http.Request) (context.Context, error) {
	return g.Verify(ctx, r, PolicyRequiredRefresh)
}

// Close flushes and stops the audit dispatcher.
func (g *Guard) Close() {
	if g == nil {
		return
	}
	if g.audit != nil {
		g.audit.Close()
	}
}

// AuditDropped returns the number of audit events lost to backpressure.
func (g *Guard) AuditDropped() uint64 {
	if g == nil || g.audit == nil {
		return 0
	}
	return g.audit.Dropped()
}

// MetricsSnapshot returns the current guard metrics.
func (g *Guard) MetricsSnapshot() MetricsSnapshot {
	if g == nil || g.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return g.metrics.Snapshot()
}

/*
====================================
OUTCOME RECORDING
====================================
*/

func (g *Guard) recordAllowed(ctx context.Context, r *http.Request, policy Policy, rc *RequestContext) {
	g.metrics.Inc(MetricGuardAllowed)

	identity := fmt.Sprint(rc.Identity())
	if g.logger.Core().Enabled(zap.DebugLevel) {
		g.logger.Debug("request authenticated",
			zap.String("policy", policy.String()),
			zap.String("identity", identity),
			zap.String("jti", rc.claims.JTI()),
			zap.Stringer("location", rc.location),
			zap.String("method", r.Method),
			zap.String("path", requestPath(r)),
		)
	}

	g.emitAudit(ctx, r, AuditEvent{
		EventType: "guard_allowed",
		Policy:    policy.String(),
		Identity:  identity,
		TokenID:   rc.claims.JTI(),
		TokenType: string(rc.claims.Type()),
		Location:  rc.location.String(),
		Success:   true,
	})
}

func (g *Guard) recordAnonymous(ctx context.Context, r *http.Request, policy Policy, cause error) {
	g.metrics.Inc(MetricGuardAnonymous)

	g.logger.Debug("request proceeding anonymously",
		zap.String("policy", policy.String()),
		zap.String("reason", ErrorKind(cause)),
		zap.String("method", r.Method),
		zap.String("path", requestPath(r)),
	)

	g.emitAudit(ctx, r, AuditEvent{
		EventType: "guard_anonymous",
		Policy:    policy.String(),
		Success:   true,
		Metadata:  map[string]string{"reason": ErrorKind(cause)},
	})
}

func (g *Guard) recordDenied(ctx context.Context, r *http.Request, policy Policy, err error) {
	g.metrics.Inc(MetricGuardDenied)
	if id, ok := failureMetric(err); ok {
		g.metrics.Inc(id)
	}

	kind := ErrorKind(err)
	g.logger.Info("request rejected",
		zap.String("policy", policy.String()),
		zap.String("kind", kind),
		zap.String("method", r.Method),
		zap.String("path", requestPath(r)),
		zap.Error(err),
	)

	g.emitAudit(ctx, r, AuditEvent{
		EventType: "guard_denied",
		Policy:    policy.String(),
		Success:   false,
		Error:     kind,
	})
}

func (g *Guard) emitAudit(ctx context.Context, r *http.Request, event AuditEvent) {
	if g.audit == nil {
		return
	}
	event.Timestamp = g.now().UTC()
	event.Method = r.Method
	event.Path = requestPath(r)
	event.IP = remoteIP(r)
	// The request ctx may already be cancelled; audit delivery outlives it.
	g.audit.Emit(context.WithoutCancel(ctx), event)
}

func requestPath(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Path
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
