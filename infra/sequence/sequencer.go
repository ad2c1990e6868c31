package sequence

import "sync/atomic"

// Sequencer issues strictly monotonic ids from a single atomically
// incremented counter. The order-entry sequencer is the one intentionally
// centralized piece of shared mutable state in the system; everything else
// is sharded by symbol.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer whose first issued id is start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next id.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued id.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
