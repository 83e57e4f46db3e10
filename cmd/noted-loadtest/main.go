package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	noted "github.com/MrEthical07/noted"
	"github.com/MrEthical07/noted/internal/apitest"
	"github.com/MrEthical07/noted/notes"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "requests per phase")
		seedNotes   = flag.Int("notes", 50, "notes created before the read phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "noted-loadtest", "session key prefix")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 || *seedNotes <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency, ops, and notes must be > 0")
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

	api := apitest.New()
	if err := api.AddUser("load", "load@example.com", "load-password", "USER"); err != nil {
		fmt.Fprintf(os.Stderr, "seed user: %v\n", err)
		os.Exit(1)
	}
	srv := httptest.NewServer(api)
	defer srv.Close()

	cfg := noted.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.Session.Backend = noted.SessionRedis
	cfg.Session.RedisPrefix = *prefix

	client, err := noted.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := client.Login(ctx, "load", "load-password"); err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}

	ids := make([]int64, 0, *seedNotes)
	startSeed := time.Now()
	for i := 0; i < *seedNotes; i++ {
		n, err := client.CreateNote(ctx, notes.NoteRequest{
			Title:   fmt.Sprintf("note %d", i),
			Content: "load test body",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create note: %v\n", err)
			os.Exit(1)
		}
		ids = append(ids, n.ID)
	}
	fmt.Printf("seeded %d notes in %s\n", len(ids), time.Since(startSeed).Round(time.Millisecond))

	readStats := runPhase(*ops, *concurrency, func(i int) error {
		_, err := client.GetNote(ctx, ids[i%len(ids)])
		return err
	})

	api.Revoke()
	var unauthorized int64
	expiryStats := runPhase(*ops, *concurrency, func(int) error {
		_, err := client.ListNotes(ctx)
		if errors.Is(err, noted.ErrUnauthorized) {
			atomic.AddInt64(&unauthorized, 1)
			return nil
		}
		if err == nil {
			return errors.New("request succeeded after revoke")
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("read", readStats)
	printStats("expired", expiryStats)

	snap := client.MetricsSnapshot()
	cleared := snap.Counters[noted.MetricSessionCleared]
	fmt.Printf("401s=%d sessions_cleared=%d final_route=%s\n", unauthorized, cleared, client.Current().Route.Name)
	if cleared != 1 {
		fmt.Fprintf(os.Stderr, "expected exactly one session clear, got %d\n", cleared)
		os.Exit(1)
	}
}

func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
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
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
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
	return samples[(len(samples)-1)*p/100]
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
