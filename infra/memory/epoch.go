package memory

import (
	"runtime"
	"sync/atomic"
)

const idle = ^uint64(0)

// pinSlot is padded to its own cache line so pin churn on one slot does not
// invalidate its neighbours.
type pinSlot struct {
	value atomic.Uint64
	_     [56]byte
}

// EpochRegistry tracks a monotonically increasing global epoch and the epoch
// at which every in-flight reader or submitter entered its critical section.
// A retired object may be recycled once every pinned slot has moved past the
// epoch it was retired under.
//
// Unlike a per-reader epoch wired at construction time, the registry serves
// an arbitrary number of concurrent callers: Pin claims a free slot with a
// single CAS and Unpin releases it. When every slot is taken the claim loop
// yields and retries; it never parks on a lock.
type EpochRegistry struct {
	epoch atomic.Uint64
	slots []pinSlot
}

// NewEpochRegistry creates a registry with the given number of pin slots
// (rounded up to at least 1). Slots bound the number of simultaneously
// pinned goroutines, not the number of goroutines overall.
func NewEpochRegistry(slots int) *EpochRegistry {
	if slots < 1 {
		slots = 1
	}
	r := &EpochRegistry{slots: make([]pinSlot, slots)}
	for i := range r.slots {
		r.slots[i].value.Store(idle)
	}
	return r
}

// Guard is an active pin. Release it with Unpin.
type Guard struct {
	reg *EpochRegistry
	idx int
}

// Pin marks the caller as active at the current epoch. Objects retired at or
// after this epoch will not be recycled until the guard is released.
func (r *EpochRegistry) Pin() Guard {
	for {
		for i := range r.slots {
			if r.slots[i].value.CompareAndSwap(idle, r.epoch.Load()) {
				return Guard{reg: r, idx: i}
			}
		}
		runtime.Gosched()
	}
}

func (g Guard) Unpin() {
	g.reg.slots[g.idx].value.Store(idle)
}

// Advance bumps the global epoch and returns the new value.
func (r *EpochRegistry) Advance() uint64 { return r.epoch.Add(1) }

// Current returns the global epoch.
func (r *EpochRegistry) Current() uint64 { return r.epoch.Load() }

// MinPinned returns the oldest epoch any active pin entered at, or idle when
// nothing is pinned.
func (r *EpochRegistry) MinPinned() uint64 {
	min := idle
	for i := range r.slots {
		if v := r.slots[i].value.Load(); v < min {
			min = v
		}
	}
	return min
}
