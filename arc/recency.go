package arc

import "github.com/IvanBrykalov/polycache/internal/dlist"

// rentry is a recency-arm resident. hits counts accesses (1 on
// admission, plus one per read) and feeds the promotion decision made
// by the owning Cache.
type rentry[K comparable, V any] struct {
	key  K
	val  V
	hits int
}

// recencyArm is the T1 side of ARC: LRU ordering plus a ghost list of
// recently evicted keys. All methods run under the owning Cache's mutex.
type recencyArm[K comparable, V any] struct {
	capacity int
	items    map[K]*dlist.Node[*rentry[K, V]]
	order    *dlist.List[*rentry[K, V]] // front = MRU, back = LRU
	ghost    *ghostList[K]
}

func newRecencyArm[K comparable, V any](capacity int) *recencyArm[K, V] {
	return &recencyArm[K, V]{
		capacity: capacity,
		items:    make(map[K]*dlist.Node[*rentry[K, V]], capacity),
		order:    dlist.New[*rentry[K, V]](),
		ghost:    newGhostList[K](capacity),
	}
}

// get promotes the entry to MRU, bumps its hit count, and returns the
// value along with the updated count.
func (a *recencyArm[K, V]) get(k K) (v V, hits int, ok bool) {
	n, found := a.items[k]
	if !found {
		return v, 0, false
	}
	a.order.MoveToFront(n)
	e := n.Value
	e.hits++
	return e.val, e.hits, true
}

// update overwrites the value and refreshes recency. The hit count is
// left alone: writes do not argue for promotion.
func (a *recencyArm[K, V]) update(k K, v V) bool {
	n, ok := a.items[k]
	if !ok {
		return false
	}
	n.Value.val = v
	a.order.MoveToFront(n)
	return true
}

// add admits a fresh entry at MRU, evicting the LRU side into the ghost
// list as needed. Returns the evicted entry, if any. Admission drops any
// ghost record for the key: a resident may never coexist with its ghost.
func (a *recencyArm[K, V]) add(k K, v V) (evicted *rentry[K, V]) {
	a.ghost.remove(k)
	for len(a.items) >= a.capacity {
		evicted = a.evictOne()
		if evicted == nil {
			break
		}
	}
	a.items[k] = a.order.PushFront(&rentry[K, V]{key: k, val: v, hits: 1})
	return evicted
}

// evictOne drops the LRU entry and records its key as a ghost.
func (a *recencyArm[K, V]) evictOne() *rentry[K, V] {
	n := a.order.Back()
	if n == nil {
		return nil
	}
	e := a.order.Remove(n)
	delete(a.items, e.key)
	a.ghost.push(e.key)
	return e
}

// take removes k without ghosting it; used when an entry is promoted to
// the frequency arm rather than evicted.
func (a *recencyArm[K, V]) take(k K) (*rentry[K, V], bool) {
	n, ok := a.items[k]
	if !ok {
		return nil, false
	}
	e := a.order.Remove(n)
	delete(a.items, k)
	return e, true
}

// remove drops k without ghosting (explicit removal).
func (a *recencyArm[K, V]) remove(k K) bool {
	_, ok := a.take(k)
	return ok
}

func (a *recencyArm[K, V]) contains(k K) bool {
	_, ok := a.items[k]
	return ok
}

func (a *recencyArm[K, V]) len() int { return len(a.items) }

func (a *recencyArm[K, V]) purge() {
	a.items = make(map[K]*dlist.Node[*rentry[K, V]], a.capacity)
	a.order = dlist.New[*rentry[K, V]]()
	a.ghost.purge()
}
