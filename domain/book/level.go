package book

import "sync/atomic"

// node is one residency of an order in a level's queue. The resting
// quantity lives in the node's seat, not on the order: takers claim units
// from the seat by CAS, and a seat is never refilled, so a node whose seat
// has reached zero is dead forever. That single-use property is what makes
// it safe to recycle orders through the pool; a stale node left in a level
// can never come back to life and expose a recycled order at the wrong
// price.
type node struct {
	order *Order
	qty   atomic.Int64
	next  atomic.Pointer[node]
}

// claim takes up to want units from the node's seat. It returns the amount
// claimed; zero means the seat was already drained by concurrent takers.
// A failed CAS retries with the freshly observed seat, it never blocks.
func (n *node) claim(want int64) int64 {
	for {
		q := n.qty.Load()
		if q <= 0 {
			return 0
		}
		take := want
		if q < take {
			take = q
		}
		if n.qty.CompareAndSwap(q, q-take) {
			return take
		}
	}
}

// revoke empties the seat and returns what was left in it. Used by the
// submitter to withdraw its own freshly rested order when the opposite side
// crossed it concurrently; units already claimed by takers stay claimed.
func (n *node) revoke() int64 {
	for {
		q := n.qty.Load()
		if q <= 0 {
			return 0
		}
		if n.qty.CompareAndSwap(q, 0) {
			return q
		}
	}
}

// Level is the FIFO queue of resting orders sharing one price on one side.
// It is a Michael-Scott queue with a permanent dummy head: enqueue appends
// through CAS on the tail, and consumption is peek-and-claim on the front
// node, so a partially filled maker never loses its queue position. Arrival
// order is the order in which the linking CAS succeeds.
type Level struct {
	price int64
	head  atomic.Pointer[node]
	tail  atomic.Pointer[node]
}

func newLevel(price int64) *Level {
	l := &Level{price: price}
	d := &node{}
	l.head.Store(d)
	l.tail.Store(d)
	return l
}

func (l *Level) Price() int64 { return l.price }

// enqueue appends a seat of qty units for o and returns the node so the
// submitter can revoke it later if needed.
func (l *Level) enqueue(o *Order, qty int64) *node {
	n := &node{order: o}
	n.qty.Store(qty)
	for {
		t := l.tail.Load()
		next := t.next.Load()
		if t != l.tail.Load() {
			continue
		}
		if next != nil {
			// Tail is lagging, help it forward and retry.
			l.tail.CompareAndSwap(t, next)
			continue
		}
		if t.next.CompareAndSwap(nil, n) {
			l.tail.CompareAndSwap(t, n)
			return n
		}
	}
}

// front returns the oldest live node at this level, or nil if the level is
// empty. Dead nodes found at the head are unlinked on the way; a failed CAS
// means another thread already advanced the queue.
func (l *Level) front() *node {
	for {
		h := l.head.Load()
		first := h.next.Load()
		if first == nil {
			return nil
		}
		if first.qty.Load() <= 0 {
			if t := l.tail.Load(); t == h {
				l.tail.CompareAndSwap(t, first)
			}
			l.head.CompareAndSwap(h, first)
			continue
		}
		return first
	}
}

// each visits the live seats in queue order until visit returns false.
// Callers must hold an epoch pin; the walk tolerates concurrent enqueues
// and fills but is not a consistent snapshot.
func (l *Level) each(visit func(o *Order, qty int64) bool) bool {
	for n := l.head.Load().next.Load(); n != nil; n = n.next.Load() {
		q := n.qty.Load()
		if q <= 0 {
			continue
		}
		if !visit(n.order, q) {
			return false
		}
	}
	return true
}
