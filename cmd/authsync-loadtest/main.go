package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	authsync "github.com/virelio/authsync"
	"github.com/virelio/authsync/api"
	"github.com/virelio/authsync/tokenstore"
)

// instanceState is one simulated client installation: its own token store
// namespace plus the rotation generation it has reached.
type instanceState struct {
	store *tokenstore.Redis
	gen   int
	mu    sync.Mutex
}

func main() {
	var (
		instances   = flag.Int("instances", 10000, "number of client instances to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "as", "token store key prefix")
	)
	flag.Parse()

	if *instances <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "instances, concurrency, and ops must be > 0")
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

	states := make([]instanceState, *instances)
	fmt.Printf("seeding %d instance stores...\n", *instances)
	startSeed := time.Now()
	for i := 0; i < *instances; i++ {
		states[i].store = tokenstore.NewRedis(client, fmt.Sprintf("%s-%d", *prefix, i), 24*time.Hour)
		if err := states[i].store.Set(ctx, tokensFor(i, 0)); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	getStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		state := &states[r.Intn(len(states))]
		_, _, err := state.store.Get(ctx)
		return err
	})

	rotateStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		idx := r.Intn(len(states))
		state := &states[idx]
		state.mu.Lock()
		defer state.mu.Unlock()
		next := state.gen + 1
		if err := state.store.Set(ctx, tokensFor(idx, next)); err != nil {
			return err
		}
		state.gen = next
		return nil
	})

	engine, engineCleanup, err := buildEngine(ctx, client, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine setup failed: %v\n", err)
		os.Exit(1)
	}
	defer engineCleanup()

	readStats := runPhase(*ops, *concurrency, func(*rand.Rand, int) error {
		_, err := engine.CurrentUser(ctx)
		return err
	})

	refreshStats := runPhase(*ops, *concurrency, func(*rand.Rand, int) error {
		_, err := engine.Refresh(ctx)
		return err
	})

	fmt.Println("---- results ----")
	printStats("store-get", getStats)
	printStats("store-rotate", rotateStats)
	printStats("engine-read", readStats)
	printStats("engine-refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("engine cache: hits=%d stale=%d misses=%d refreshes=%d\n",
		snap.Counters[authsync.MetricCacheHit],
		snap.Counters[authsync.MetricCacheStaleHit],
		snap.Counters[authsync.MetricCacheMiss],
		snap.Counters[authsync.MetricRefreshSuccess],
	)
}

// buildEngine wires a full engine against a local stub server so the
// engine-read and engine-refresh phases measure the complete path: cache,
// single-flight, token store, HTTP round-trip.
func buildEngine(ctx context.Context, client redis.UniversalClient, prefix string) (*authsync.Engine, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, nil, err
	}

	profile := api.UserProfile{
		ID:        "u1",
		Email:     "load@example.com",
		FirstName: "Load",
		LastName:  "Tester",
		Status:    api.StatusActive,
		CreatedAt: time.Now().UTC(),
	}

	var gen atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, api.SessionPayload{
			AccessToken:  "access-0",
			RefreshToken: "refresh-0",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
			User:         profile,
		})
	})
	mux.HandleFunc("POST /refresh", func(w http.ResponseWriter, _ *http.Request) {
		n := gen.Add(1)
		writeJSON(w, api.TokenPayload{
			AccessToken:  fmt.Sprintf("access-%d", n),
			RefreshToken: fmt.Sprintf("refresh-%d", n),
			TokenType:    "Bearer",
			ExpiresIn:    3600,
		})
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, profile)
	})

	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(ln) }()

	engine, err := authsync.New().
		WithBaseURL("http://" + ln.Addr().String()).
		WithTokenStore(tokenstore.NewRedis(client, prefix+"-engine", 0)).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		_ = srv.Close()
		return nil, nil, err
	}

	if _, err := engine.Login(ctx, authsync.Credentials{Email: "load@example.com", Password: "load-pass"}); err != nil {
		engine.Close()
		_ = srv.Close()
		return nil, nil, err
	}

	cleanup := func() {
		engine.Close()
		_ = srv.Close()
	}
	return engine, cleanup, nil
}

func runPhase(ops, concurrency int, call func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
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
				t0 := time.Now()
				err := call(r, i)
				d := time.Since(t0)
				if err != nil {
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
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
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
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func tokensFor(instance, gen int) tokenstore.Tokens {
	return tokenstore.Tokens{
		AccessToken:  fmt.Sprintf("access-%d-%d", instance, gen),
		RefreshToken: fmt.Sprintf("refresh-%d-%d", instance, gen),
		TokenType:    "Bearer",
		ExpiresIn:    time.Hour,
		IssuedAt:     time.Now(),
		Class:        tokenstore.ClassSession,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
