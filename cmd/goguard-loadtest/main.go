package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/metrics/export/prometheus"
	"github.com/MrEthical07/goGuard/revocation"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type tokenState struct {
	access  string
	refresh string
	revoked bool
}

func main() {
	var (
		tokens      = flag.Int("tokens", 10000, "number of token pairs to mint")
		revokeRatio = flag.Float64("revoke-ratio", 0.1, "fraction of access tokens to revoke")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "verifications per phase (access + refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "grv", "revocation key prefix")
		dumpMetrics = flag.Bool("metrics", false, "print Prometheus metrics after the run")
	)
	flag.Parse()

	if *tokens <= 0 || *concurrency <= 0 || *ops <= 0 || *revokeRatio < 0 || *revokeRatio > 1 {
		fmt.Fprintln(os.Stderr, "tokens, concurrency and ops must be > 0; revoke-ratio must be in [0,1]")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	manager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("goguard-loadtest-secret-0123456789"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "jwt manager: %v\n", err)
		os.Exit(1)
	}

	store := revocation.NewStore(client, *prefix)
	guard, err := goGuard.New().
		WithDecoder(goGuard.NewJWTDecoder(manager)).
		WithRevocationChecker(store).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build guard: %v\n", err)
		os.Exit(1)
	}
	defer guard.Close()

	states, err := seed(ctx, manager, store, *tokens, *revokeRatio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	accessStats := runPhase(guard, states, *ops, *concurrency, goGuard.PolicyRequiredAccess)
	refreshStats := runPhase(guard, states, *ops, *concurrency, goGuard.PolicyRequiredRefresh)

	fmt.Println("---- results ----")
	printStats("access", accessStats)
	printStats("refresh", refreshStats)

	if *dumpMetrics {
		fmt.Println("---- metrics ----")
		fmt.Print(prometheus.NewExporter(guard).Render())
	}
}

func seed(ctx context.Context, manager *jwt.Manager, store *revocation.Store, n int, revokeRatio float64) ([]tokenState, error) {
	fmt.Printf("minting %d token pairs...\n", n)
	start := time.Now()
	states := make([]tokenState, n)
	revokeEvery := 0
	if revokeRatio > 0 {
		revokeEvery = int(1 / revokeRatio)
	}

	for i := range states {
		identity := fmt.Sprintf("user-%d", i)
		access, err := manager.CreateAccess(identity)
		if err != nil {
			return nil, err
		}
		refresh, err := manager.CreateRefresh(identity)
		if err != nil {
			return nil, err
		}
		states[i] = tokenState{access: access, refresh: refresh}

		if revokeEvery > 0 && i%revokeEvery == 0 {
			claims, err := manager.Decode(access, "")
			if err != nil {
				return nil, err
			}
			if err := store.RevokeClaims(ctx, goGuard.Claims(claims)); err != nil {
				return nil, err
			}
			states[i].revoked = true
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(start).Round(time.Millisecond))
	return states, nil
}

func runPhase(guard *goGuard.Guard, states []tokenState, ops, concurrency int, policy goGuard.Policy) phaseStats {
	var (
		wg         sync.WaitGroup
		cursor     int64
		failures   int64
		mismatches int64
		latencies  = make([]time.Duration, 0, ops)
		mu         sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := states[r.Intn(len(states))]
				token := state.access
				if policy == goGuard.PolicyRequiredRefresh {
					token = state.refresh
				}

				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.Header.Set("Authorization", "Bearer "+token)

				t0 := time.Now()
				_, err := guard.Verify(req.Context(), req, policy)
				d := time.Since(t0)

				expectRevoked := state.revoked && policy == goGuard.PolicyRequiredAccess
				switch {
				case err == nil && expectRevoked,
					err != nil && expectRevoked && !errors.Is(err, goGuard.ErrRevokedToken):
					atomic.AddInt64(&mismatches, 1)
				case err != nil && !expectRevoked:
					atomic.AddInt64(&failures, 1)
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	stats := computeStats(total, latencies, failures)
	stats.mismatches = mismatches
	return stats
}

type phaseStats struct {
	total      time.Duration
	ops        int
	failures   int64
	mismatches int64
	p50        time.Duration
	p95        time.Duration
	p99        time.Duration
	opsPerS    float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d revocation_mismatches=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.mismatches,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
