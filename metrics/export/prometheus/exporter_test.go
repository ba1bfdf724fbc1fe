package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goGuard "github.com/MrEthical07/goGuard"
)

type fakeSource struct {
	snapshot goGuard.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goGuard.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters:   map[goGuard.MetricID]uint64{},
			Histograms: map[goGuard.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters: map[goGuard.MetricID]uint64{
				goGuard.MetricGuardAllowed:    7,
				goGuard.MetricTokenRevoked:    2,
				goGuard.MetricNoAuthorization: 0,
			},
			Histograms: map[goGuard.MetricID][]uint64{
				goGuard.MetricVerifyLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE goguard_allowed_total counter",
		"goguard_allowed_total 7",
		"goguard_token_revoked_total 2",
		"goguard_no_authorization_total 0",
		`goguard_verify_latency_seconds_bucket{le="0.005"} 1`,
		`goguard_verify_latency_seconds_bucket{le="+Inf"} 36`,
		"goguard_verify_latency_seconds_count 36",
		"goguard_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderOmitsHistogramWhenDisabled(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters:   map[goGuard.MetricID]uint64{goGuard.MetricGuardDenied: 1},
			Histograms: map[goGuard.MetricID][]uint64{},
		},
	})

	if out := exp.Render(); strings.Contains(out, "goguard_verify_latency_seconds") {
		t.Fatalf("histogram rendered without samples:\n%s", out)
	}
}

func TestRenderFromGuard(t *testing.T) {
	g, err := goGuard.New().
		WithDecoder(stubDecoder{}).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("build guard: %v", err)
	}
	defer g.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := g.VerifyAccess(req.Context(), req); err == nil {
		t.Fatal("expected request without token to be rejected")
	}

	out := NewExporter(g).Render()
	if !strings.Contains(out, "goguard_denied_total 1") || !strings.Contains(out, "goguard_no_authorization_total 1") {
		t.Fatalf("expected denial counters, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters:   map[goGuard.MetricID]uint64{goGuard.MetricGuardAllowed: 1},
			Histograms: map[goGuard.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters: map[goGuard.MetricID]uint64{
				goGuard.MetricGuardAllowed:    1000,
				goGuard.MetricGuardDenied:     40,
				goGuard.MetricGuardAnonymous:  800,
				goGuard.MetricExpiredToken:    10,
				goGuard.MetricTokenRevoked:    3,
				goGuard.MetricInvalidHeader:   20,
				goGuard.MetricUserLoadFailure: 1,
			},
			Histograms: map[goGuard.MetricID][]uint64{
				goGuard.MetricVerifyLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
