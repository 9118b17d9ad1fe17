package arc

import "github.com/IvanBrykalov/polycache/internal/dlist"

// ghostList is a bounded FIFO of keys recently evicted from an arm.
// Values are discarded on entry; the list exists purely to detect
// "we just threw this out" recurrence. front = newest, back = oldest.
type ghostList[K comparable] struct {
	capacity int
	items    map[K]*dlist.Node[K]
	order    *dlist.List[K]
}

func newGhostList[K comparable](capacity int) *ghostList[K] {
	return &ghostList[K]{
		capacity: capacity,
		items:    make(map[K]*dlist.Node[K], capacity),
		order:    dlist.New[K](),
	}
}

func (g *ghostList[K]) contains(k K) bool {
	_, ok := g.items[k]
	return ok
}

// push records k as the newest ghost and trims the oldest past capacity.
func (g *ghostList[K]) push(k K) {
	if g.capacity <= 0 {
		return
	}
	if n, ok := g.items[k]; ok {
		g.order.MoveToFront(n)
		return
	}
	g.items[k] = g.order.PushFront(k)
	for g.order.Len() > g.capacity {
		oldest := g.order.Back()
		delete(g.items, g.order.Remove(oldest))
	}
}

func (g *ghostList[K]) remove(k K) {
	if n, ok := g.items[k]; ok {
		g.order.Remove(n)
		delete(g.items, k)
	}
}

func (g *ghostList[K]) len() int { return g.order.Len() }

func (g *ghostList[K]) purge() {
	g.items = make(map[K]*dlist.Node[K], g.capacity)
	g.order = dlist.New[K]()
}
