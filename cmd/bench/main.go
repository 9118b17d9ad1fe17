// Command bench runs a synthetic workload against a chosen eviction
// policy and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/polycache/arc"
	"github.com/IvanBrykalov/polycache/cache"
	"github.com/IvanBrykalov/polycache/lfu"
	"github.com/IvanBrykalov/polycache/lru"
	"github.com/IvanBrykalov/polycache/lruk"
	pmet "github.com/IvanBrykalov/polycache/metrics/prom"
	"github.com/IvanBrykalov/polycache/sharded"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")
		shards   = flag.Int("shards", 0, "number of shards (0=auto)")
		policy   = flag.String("policy", "lru", "eviction policy: lru | lruk | lfu | arc")

		kRefs      = flag.Int("k", 2, "lruk: promotion threshold")
		histFactor = flag.Int("hist", 2, "lruk: history capacity as a multiple of cap")
		maxAverage = flag.Int("max_avg", 10, "lfu: tolerated average frequency before aging")
		transform  = flag.Int("transform", 2, "arc: T1 access count (admission + reads) that promotes to T2")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		workload = flag.String("workload", "zipf", "access pattern: zipf | scan | shift")
		keys     = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS    = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV    = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload  = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "polycache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	// Engines serialize behind one mutex each, so the benchmark shards
	// the keyspace across instances; policy state is sized per shard.
	var build func(capacity int) cache.Cache[string, string]
	switch *policy {
	case "lru":
		build = func(capacity int) cache.Cache[string, string] {
			return lru.New[string, string](capacity, lru.WithMetrics[string, string](metrics))
		}
	case "lruk":
		build = func(capacity int) cache.Cache[string, string] {
			return lruk.New[string, string](capacity, capacity*(*histFactor), *kRefs,
				lruk.WithMetrics[string, string](metrics))
		}
	case "lfu":
		build = func(capacity int) cache.Cache[string, string] {
			return lfu.New[string, string](capacity, *maxAverage,
				lfu.WithMetrics[string, string](metrics))
		}
	case "arc":
		build = func(capacity int) cache.Cache[string, string] {
			return arc.New[string, string](capacity, *transform,
				arc.WithMetrics[string, string](metrics))
		}
	default:
		log.Fatalf("unknown policy: %q (use lru, lruk, lfu or arc)", *policy)
	}
	c := sharded.New[string, string](*capacity, *shards, build)

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *capacity / 2
	}
	for i := 0; i < pl; i++ {
		k := "k:" + strconv.Itoa(i)
		c.Set(k, "v"+strconv.Itoa(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}
	pattern := *workload

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			nextKey := keyGen(pattern, localR, localZipf, int(keysMax)+1, start)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if _, ok := c.Get(nextKey()); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					k := nextKey()
					c.Set(k, "v"+strconv.Itoa(localR.Int()))
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("policy=%s workload=%s cap=%d shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		*policy, pattern, *capacity, c.Shards(), workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)
	fmt.Printf("Len()=%d\n", c.Len())
}

// keyGen builds a per-worker key generator for the chosen pattern.
//
//   - zipf:  skewed stationary popularity
//   - scan:  sequential sweep over the keyspace (defeats pure LRU,
//     favors admission filters and frequency arms)
//   - shift: popularity migrates to a new hot region every few seconds
//     (favors adaptive and aging policies over frozen frequencies)
func keyGen(pattern string, r *rand.Rand, z *rand.Zipf, keyspace int, start time.Time) func() string {
	switch pattern {
	case "scan":
		i := r.Intn(keyspace)
		return func() string {
			i = (i + 1) % keyspace
			return "k:" + strconv.Itoa(i)
		}
	case "shift":
		const (
			phaseEvery = 5 * time.Second
			hotSpan    = 1 << 12
		)
		return func() string {
			phase := int(time.Since(start) / phaseEvery)
			base := (phase * hotSpan * 7) % keyspace
			return "k:" + strconv.Itoa(base+int(z.Uint64())%hotSpan)
		}
	default: // zipf
		return func() string {
			return "k:" + strconv.FormatUint(z.Uint64(), 10)
		}
	}
}
