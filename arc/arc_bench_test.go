package arc_test

import (
	"math/rand"
	"strconv"
	"testing"

	hashiarc "github.com/hashicorp/golang-lru/arc/v2"

	"github.com/IvanBrykalov/polycache/arc"
)

// benchCache is the minimal surface shared by our ARC and the external
// comparator.
type benchCache interface {
	Set(int, int)
	Get(int) (int, bool)
}

type hashiWrapper struct {
	*hashiarc.ARCCache[int, int]
}

func (w hashiWrapper) Set(k, v int) { w.Add(k, v) }

// Fixed RNG seed for reproducibility.
const rngSeed = 1

func constructors(b *testing.B) map[string]func(capacity int) benchCache {
	return map[string]func(capacity int) benchCache{
		"polycache/arc": func(capacity int) benchCache {
			return arc.New[int, int](capacity, 2)
		},
		"hashicorp/arc": func(capacity int) benchCache {
			c, err := hashiarc.NewARC[int, int](capacity)
			if err != nil {
				b.Fatal(err)
			}
			return hashiWrapper{c}
		},
	}
}

// zipfPattern pre-generates a skewed access trace.
func zipfPattern(n int) []int {
	r := rand.New(rand.NewSource(rngSeed))
	z := rand.NewZipf(r, 1.2, 1.0, 1<<16-1)
	trace := make([]int, n)
	for i := range trace {
		trace[i] = int(z.Uint64())
	}
	return trace
}

// scanPattern pre-generates a sequential sweep larger than any cache.
func scanPattern(n int) []int {
	trace := make([]int, n)
	for i := range trace {
		trace[i] = i % (1 << 14)
	}
	return trace
}

func BenchmarkARC(b *testing.B) {
	patterns := map[string][]int{
		"zipf": zipfPattern(1 << 16),
		"scan": scanPattern(1 << 16),
	}
	for ctorName, ctor := range constructors(b) {
		for patName, trace := range patterns {
			for _, capacity := range []int{128, 512, 2048} {
				name := ctorName + "/" + patName + "/cap=" + strconv.Itoa(capacity)
				b.Run(name, func(b *testing.B) {
					c := ctor(capacity)
					// Warm with one pass so steady-state behavior is measured.
					for _, k := range trace {
						if _, ok := c.Get(k); !ok {
							c.Set(k, k)
						}
					}
					b.ReportAllocs()
					b.ResetTimer()
					for i := 0; i < b.N; i++ {
						k := trace[i%len(trace)]
						if _, ok := c.Get(k); !ok {
							c.Set(k, k)
						}
					}
				})
			}
		}
	}
}

// Both implementations must retain a small hot set under zipf traffic;
// this guards against gross regressions in the adaptation loop rather
// than asserting bit-identical replacement decisions.
func TestARC_HotSetRetention(t *testing.T) {
	t.Parallel()

	hashi, err := hashiarc.NewARC[int, int](128)
	if err != nil {
		t.Fatal(err)
	}
	caches := map[string]benchCache{
		"polycache/arc": arc.New[int, int](128, 2),
		"hashicorp/arc": hashiWrapper{hashi},
	}
	trace := zipfPattern(1 << 14)

	for name, c := range caches {
		for _, k := range trace {
			if _, ok := c.Get(k); !ok {
				c.Set(k, k)
			}
		}
		hits := 0
		for k := 0; k < 16; k++ { // the zipf head
			if _, ok := c.Get(k); ok {
				hits++
			}
		}
		if hits < 10 {
			t.Fatalf("%s: only %d/16 of the zipf head resident", name, hits)
		}
	}
}
