package book

import "sync/atomic"

// Ladder holds the resting price levels for one side of one symbol's book.
// Prices are bounded integer ticks, so levels live in a direct-indexed array
// rather than an ordered map; the array is installed with a one-shot CAS on
// first use so idle symbols cost two pointers. An atomic cursor tracks the
// best candidate price; levels are never physically removed, an empty level
// is skipped by advancing the cursor past it.
type Ladder struct {
	side    Side
	maxTick int64
	slots   atomic.Pointer[[]atomic.Pointer[Level]]
	best    atomic.Int64
}

func NewLadder(side Side, maxTick int64) *Ladder {
	l := &Ladder{side: side, maxTick: maxTick}
	l.best.Store(l.sentinel())
	return l
}

// sentinel is the cursor value meaning "side empty": one step worse than the
// worst representable price for the side.
func (l *Ladder) sentinel() int64 {
	if l.side == Buy {
		return 0
	}
	return l.maxTick + 1
}

// better reports whether price a is more favorable than b for this side.
func (l *Ladder) better(a, b int64) bool {
	if l.side == Buy {
		return a > b
	}
	return a < b
}

// worse is one cursor step away from the top of book.
func (l *Ladder) worse(tick int64) int64 {
	if l.side == Buy {
		return tick - 1
	}
	return tick + 1
}

func (l *Ladder) inRange(tick int64) bool { return tick >= 1 && tick <= l.maxTick }

func (l *Ladder) levels() []atomic.Pointer[Level] {
	if s := l.slots.Load(); s != nil {
		return *s
	}
	fresh := make([]atomic.Pointer[Level], l.maxTick+1)
	l.slots.CompareAndSwap(nil, &fresh)
	return *l.slots.Load()
}

// level returns the level at tick without allocating, or nil.
func (l *Ladder) level(tick int64) *Level {
	s := l.slots.Load()
	if s == nil {
		return nil
	}
	return (*s)[tick].Load()
}

// levelAt returns the level at tick, installing it if absent.
func (l *Ladder) levelAt(tick int64) *Level {
	slots := l.levels()
	if lvl := slots[tick].Load(); lvl != nil {
		return lvl
	}
	fresh := newLevel(tick)
	if slots[tick].CompareAndSwap(nil, fresh) {
		return fresh
	}
	return slots[tick].Load()
}

// Enqueue rests a seat of qty units for o at its limit price. The price is
// published to the best cursor only after the seat is linked, so a
// concurrent best-price scan either sees the seat or sees the cursor
// improvement.
func (l *Ladder) Enqueue(o *Order, qty int64) *node {
	n := l.levelAt(o.Price).enqueue(o, qty)
	l.promote(o.Price)
	return n
}

// promote moves the cursor toward tick if tick is more favorable.
func (l *Ladder) promote(tick int64) {
	for {
		cur := l.best.Load()
		if !l.better(tick, cur) {
			return
		}
		if l.best.CompareAndSwap(cur, tick) {
			return
		}
	}
}

// BestLevel scans from the cursor toward worse prices until it finds a level
// holding a live order, lazily retiring empty levels by stepping the cursor
// past them. After each successful step the vacated level is re-checked: an
// enqueue that linked an order there between the emptiness observation and
// the step republishes the price, and the re-check restores it if the
// enqueue's own promote lost that race.
func (l *Ladder) BestLevel() (*Level, bool) {
	for {
		cur := l.best.Load()
		if !l.inRange(cur) {
			return nil, false
		}
		lvl := l.level(cur)
		if lvl != nil && lvl.front() != nil {
			return lvl, true
		}
		next := l.worse(cur)
		if !l.inRange(next) {
			next = l.sentinel()
		}
		if l.best.CompareAndSwap(cur, next) {
			if again := l.level(cur); again != nil && again.front() != nil {
				l.promote(cur)
			}
		}
	}
}

// BestPrice returns the most favorable resting price for this side. The
// second return is false when the side is empty.
func (l *Ladder) BestPrice() (int64, bool) {
	lvl, ok := l.BestLevel()
	if !ok {
		return 0, false
	}
	return lvl.price, true
}

// Walk visits allocated levels from the best price toward worse ones until
// visit returns false or the price range is exhausted. A visited level may
// hold no live quantity; callers filter. Callers must hold an epoch pin.
func (l *Ladder) Walk(visit func(*Level) bool) {
	start := l.best.Load()
	if !l.inRange(start) {
		return
	}
	for tick := start; l.inRange(tick); tick = l.worse(tick) {
		lvl := l.level(tick)
		if lvl == nil {
			continue
		}
		if !visit(lvl) {
			return
		}
	}
}
