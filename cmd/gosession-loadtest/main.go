package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/kvstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// client is one simulated installation: a manager over its own key prefix.
type client struct {
	manager *goSession.Manager
	mu      sync.Mutex
}

func main() {
	var (
		clients     = flag.Int("clients", 200, "number of simulated client installations")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase (login, check, logout)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gs", "key prefix; client i uses <prefix>-<i>")
	)
	flag.Parse()

	if *clients <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "clients, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	fmt.Printf("starting %d managers...\n", *clients)
	startBuild := time.Now()
	pool := make([]*client, *clients)
	for i := range pool {
		m, err := goSession.New().
			WithStore(kvstore.NewRedis(rdb, fmt.Sprintf("%s-%d", *prefix, i))).
			WithPermissions([]string{"sprint:read", "sprint:write"}).
			WithRoles(map[string][]string{"admin": {"*"}, "member": {"sprint:read"}}).
			WithMetricsEnabled(true).
			WithLatencyHistograms(true).
			Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build manager: %v\n", err)
			os.Exit(1)
		}
		if err := m.WaitLoaded(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "initial load: %v\n", err)
			os.Exit(1)
		}
		defer m.Close()
		pool[i] = &client{manager: m}
	}
	fmt.Printf("started in %s\n", time.Since(startBuild).Round(time.Millisecond))

	loginStats := runPhase(pool, *ops, *concurrency, 7919, func(c *client, i int) error {
		user := &goSession.User{ID: fmt.Sprintf("u%d", i), Role: "member"}
		return c.manager.Login(ctx, user, fmt.Sprintf("tok-%d", i), fmt.Sprintf("ref-%d", i))
	})
	checkStats := runPhase(pool, *ops, *concurrency, 104729, func(c *client, i int) error {
		s := c.manager.Session()
		if s.IsAuthenticated != (s.User != nil && s.AccessToken != "") {
			return fmt.Errorf("inconsistent snapshot v%d", s.Version)
		}
		_ = c.manager.HasPermission("sprint", "read")
		return nil
	})
	logoutStats := runPhase(pool, *ops, *concurrency, 6151, func(c *client, _ int) error {
		return c.manager.Logout(ctx)
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("check", checkStats)
	printStats("logout", logoutStats)

	var storageFailures uint64
	for _, c := range pool {
		if c.manager.Session().IsAuthenticated {
			fmt.Fprintln(os.Stderr, "a client is still authenticated after the logout phase")
			os.Exit(1)
		}
		storageFailures += c.manager.MetricsSnapshot().Counters[goSession.MetricLogoutStorageFailure]
	}
	fmt.Printf("logout storage failures: %d\n", storageFailures)
}

// runPhase spreads ops operations over concurrency workers. Each operation
// picks a random client; operations on one client are serialized so latency
// measures the manager, not contention on its mutation slot.
func runPhase(pool []*client, ops, concurrency int, seed int64, op func(*client, int) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				c := pool[r.Intn(len(pool))]

				c.mu.Lock()
				t0 := time.Now()
				err := op(c, i)
				d := time.Since(t0)
				c.mu.Unlock()
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
