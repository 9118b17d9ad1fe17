package arc

import (
	"testing"
)

// checkInvariants verifies arm/ghost disjointness, ghost bounds, and
// capacity conservation.
func checkInvariants[K comparable, V any](t *testing.T, c *Cache[K, V]) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	if got := c.t1.capacity + c.t2.capacity; got != c.capacity {
		t.Fatalf("arm capacities sum to %d, want %d", got, c.capacity)
	}
	for k := range c.t1.items {
		if c.t2.contains(k) {
			t.Fatalf("key %v resident in both arms", k)
		}
		if c.t1.ghost.contains(k) {
			t.Fatalf("key %v in T1 and B1 simultaneously", k)
		}
	}
	for k := range c.t2.items {
		if c.t2.ghost.contains(k) {
			t.Fatalf("key %v in T2 and B2 simultaneously", k)
		}
	}
	if c.t1.ghost.len() > c.t1.ghost.capacity {
		t.Fatalf("B1 len %d exceeds bound %d", c.t1.ghost.len(), c.t1.ghost.capacity)
	}
	if c.t2.ghost.len() > c.t2.ghost.capacity {
		t.Fatalf("B2 len %d exceeds bound %d", c.t2.ghost.len(), c.t2.ghost.capacity)
	}
	if c.t1.len() > c.t1.capacity {
		t.Fatalf("T1 holds %d entries with capacity %d", c.t1.len(), c.t1.capacity)
	}
	if c.t2.len() > c.t2.capacity {
		t.Fatalf("T2 holds %d entries with capacity %d", c.t2.len(), c.t2.capacity)
	}
}

func TestARC_RoundTrip(t *testing.T) {
	t.Parallel()

	c := New[int, string](4, 2)
	c.Set(1, "a")
	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("Get(1) = %q ok=%v, want a", v, ok)
	}
	c.Set(1, "a2")
	if v, ok := c.Get(1); !ok || v != "a2" {
		t.Fatalf("Get(1) = %q ok=%v, want a2", v, ok)
	}
	checkInvariants(t, c)
}

// A T1 entry crossing the transform threshold moves into T2.
func TestARC_PromotionToFrequencyArm(t *testing.T) {
	t.Parallel()

	c := New[int, string](4, 2)
	c.Set(1, "a") // T1, one access recorded on admission

	if !c.t1.contains(1) || c.t2.contains(1) {
		t.Fatal("fresh insert must land in T1")
	}
	if v, ok := c.Get(1); !ok || v != "a" { // second access: promote
		t.Fatalf("Get(1) = %q ok=%v", v, ok)
	}
	if c.t1.contains(1) || !c.t2.contains(1) {
		t.Fatal("key must move to T2 at the transform threshold")
	}
	// The promoted entry keeps serving reads from T2.
	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("Get(1) after promotion = %q ok=%v", v, ok)
	}
	checkInvariants(t, c)
}

// Writes refresh a T1 resident but never advance it toward promotion.
func TestARC_SetDoesNotPromote(t *testing.T) {
	t.Parallel()

	c := New[int, string](4, 2)
	c.Set(1, "a")
	for i := 0; i < 10; i++ {
		c.Set(1, "a*")
	}
	if !c.t1.contains(1) {
		t.Fatal("write-only key must stay in the recency arm")
	}
	checkInvariants(t, c)
}

// Evicting from T1 records the key in B1, bounded by the arm's
// initial capacity.
func TestARC_EvictionGhostsIntoB1(t *testing.T) {
	t.Parallel()

	c := New[int, string](4, 25) // high threshold: keys stay in T1
	for i := 1; i <= 8; i++ {
		c.Set(i, "v")
	}
	checkInvariants(t, c)

	c.mu.Lock()
	b1 := c.t1.ghost.len()
	c.mu.Unlock()
	if b1 == 0 {
		t.Fatal("T1 evictions must populate B1")
	}
}

// A read miss landing in B1 moves one unit of capacity from T2 to T1.
// The miss is still a miss: ghosts carry no values. The arm capacities
// sum to the declared total across the whole sequence.
func TestARC_GhostHitAdaptsPartition(t *testing.T) {
	t.Parallel()

	c := New[int, string](4, 25)

	for i := 1; i <= 4; i++ {
		c.Set(i, "v")
	}
	// T1 capacity is 2, so keys 1 and 2 were evicted into B1.
	c.mu.Lock()
	inB1 := c.t1.ghost.contains(1)
	r0, f0 := c.t1.capacity, c.t2.capacity
	c.mu.Unlock()
	if !inB1 {
		t.Fatal("key 1 must be in B1 after T1 evictions")
	}

	if _, ok := c.Get(1); ok {
		t.Fatal("ghost hit must still report a miss")
	}
	checkInvariants(t, c)

	r1, f1 := c.Partition()
	if r1 != r0+1 || f1 != f0-1 {
		t.Fatalf("partition (%d,%d) -> (%d,%d), want T1 +1 / T2 -1", r0, f0, r1, f1)
	}

	c.mu.Lock()
	stillGhost := c.t1.ghost.contains(1)
	c.mu.Unlock()
	if stillGhost {
		t.Fatal("adaptation must consume the ghost entry")
	}

	// A re-Set of the key is admitted into the grown recency arm.
	c.Set(1, "back")
	if v, ok := c.Get(1); !ok || v != "back" {
		t.Fatalf("Get(1) = %q ok=%v after re-admission", v, ok)
	}
}

// Adaptation cannot shrink an empty-capacity arm: once T2 reaches zero,
// further B1 hits leave the partition alone and the ghost entry stays.
func TestARC_AdaptationStopsAtZero(t *testing.T) {
	t.Parallel()

	c := New[int, string](4, 25)
	for i := 1; i <= 4; i++ {
		c.Set(i, "v")
	}
	c.Get(1) // B1 hit: partition 3/1
	c.Get(2) // B1 hit: partition 4/0
	checkInvariants(t, c)

	r, f := c.Partition()
	if r != 4 || f != 0 {
		t.Fatalf("partition = (%d,%d), want (4,0)", r, f)
	}

	// Push fresh keys through T1 under pressure so B1 gains fresh ghosts.
	for i := 5; i <= 10; i++ {
		c.Set(i, "v")
	}
	c.mu.Lock()
	var ghostKey int
	found := false
	for k := range c.t1.ghost.items {
		ghostKey, found = k, true
		break
	}
	c.mu.Unlock()
	if !found {
		t.Fatal("expected ghosts in B1")
	}

	if _, ok := c.Get(ghostKey); ok {
		t.Fatal("ghost hit must miss")
	}
	if r, f = c.Partition(); r != 4 || f != 0 {
		t.Fatalf("partition moved to (%d,%d) with T2 already empty", r, f)
	}
	checkInvariants(t, c)
}

// Frequency-arm evictions land in B2, and a B2 recurrence moves
// capacity back toward T2.
func TestARC_B2HitGrowsFrequencyArm(t *testing.T) {
	t.Parallel()

	c := New[int, string](4, 2)

	// Earn T2 residency for keys 1 and 2, then flood T2.
	for _, k := range []int{1, 2, 3} {
		c.Set(k, "v")
		c.Get(k) // promote at threshold 2
	}
	checkInvariants(t, c)

	c.mu.Lock()
	b2 := c.t2.ghost.len()
	c.mu.Unlock()
	if b2 == 0 {
		t.Fatal("T2 overflow must populate B2")
	}

	c.mu.Lock()
	var ghostKey int
	for k := range c.t2.ghost.items {
		ghostKey = k
		break
	}
	r0, f0 := c.t1.capacity, c.t2.capacity
	c.mu.Unlock()

	if _, ok := c.Get(ghostKey); ok {
		t.Fatal("B2 ghost hit must still miss")
	}
	r1, f1 := c.Partition()
	if f1 != f0+1 || r1 != r0-1 {
		t.Fatalf("partition (%d,%d) -> (%d,%d), want T2 +1 / T1 -1", r0, f0, r1, f1)
	}
	checkInvariants(t, c)
}

// Re-admitting a key that is still ghosted must drop the ghost record:
// a resident may never coexist with its ghost.
func TestARC_ReadmissionConsumesGhost(t *testing.T) {
	t.Parallel()

	c := New[int, string](4, 25) // high threshold: keys stay in T1
	for i := 1; i <= 4; i++ {
		c.Set(i, "v")
	}
	c.mu.Lock()
	inB1 := c.t1.ghost.contains(1)
	c.mu.Unlock()
	if !inB1 {
		t.Fatal("key 1 must be in B1 after T1 evictions")
	}

	c.Set(1, "back") // fresh T1 admission while ghosted in B1
	checkInvariants(t, c)

	c.mu.Lock()
	stillGhost := c.t1.ghost.contains(1)
	c.mu.Unlock()
	if stillGhost {
		t.Fatal("T1 admission must drop the key's B1 record")
	}
	if v, ok := c.Get(1); !ok || v != "back" {
		t.Fatalf("Get(1) = %q ok=%v after re-admission", v, ok)
	}
}

// Promotion into T2 of a key that still has a B2 record (evicted from
// T2, re-admitted via T1, promoted again) must consume that record.
func TestARC_PromotionConsumesB2Ghost(t *testing.T) {
	t.Parallel()

	c := New[int, string](4, 2)

	// Earn T2 residency for 1 and 2, then push 1 out of T2 into B2.
	for _, k := range []int{1, 2, 3} {
		c.Set(k, "v")
		c.Get(k) // promote at threshold 2
	}
	c.mu.Lock()
	inB2 := c.t2.ghost.contains(1)
	c.mu.Unlock()
	if !inB2 {
		t.Fatal("key 1 must be in B2 after T2 overflow")
	}

	// Re-admit 1 through T1 and promote it back into T2.
	c.Set(1, "again")
	c.Get(1) // second access: crosses the threshold, t2.add runs
	checkInvariants(t, c)

	c.mu.Lock()
	resident := c.t2.contains(1)
	stillGhost := c.t2.ghost.contains(1)
	c.mu.Unlock()
	if !resident {
		t.Fatal("key 1 must be back in T2 after promotion")
	}
	if stillGhost {
		t.Fatal("promotion into T2 must drop the key's B2 record")
	}
}

func TestARC_RemoveAndPurge(t *testing.T) {
	t.Parallel()

	c := New[int, string](4, 2)
	c.Set(1, "a")
	c.Set(2, "b")
	c.Get(2) // 2 now in T2

	if !c.Remove(1) || !c.Remove(2) {
		t.Fatal("Remove must clear residents of either arm")
	}
	if c.Remove(1) {
		t.Fatal("second Remove must be false")
	}
	checkInvariants(t, c)

	c.Set(3, "c")
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("Len=%d after Purge, want 0", c.Len())
	}
	c.mu.Lock()
	ghosts := c.t1.ghost.len() + c.t2.ghost.len()
	c.mu.Unlock()
	if ghosts != 0 {
		t.Fatal("Purge must clear the ghost lists")
	}
}

func TestARC_ZeroCapacity(t *testing.T) {
	t.Parallel()

	c := New[string, int](0, 2)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatal("zero-capacity cache must not store anything")
	}
	if c.Len() != 0 {
		t.Fatalf("Len=%d, want 0", c.Len())
	}
}

// Capacity bound and invariants hold across a mixed random-ish sweep.
func TestARC_MixedSweep(t *testing.T) {
	t.Parallel()

	const capN = 8
	c := New[int, int](capN, 2)
	for i := 0; i < 2000; i++ {
		switch i % 5 {
		case 0, 1:
			c.Set(i%23, i)
		case 2, 3:
			c.Get((i * 7) % 23)
		default:
			c.Remove(i % 23)
		}
		if got := c.Len(); got > capN {
			t.Fatalf("Len=%d exceeds capacity %d at op %d", got, capN, i)
		}
	}
	checkInvariants(t, c)
}
