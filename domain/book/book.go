package book

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrFaulted marks a book whose consistency invariants were violated. A
// faulted book rejects all further submissions; other symbols' books are
// unaffected.
var ErrFaulted = errors.New("book: consistency fault")

// Fill is one unit of matching work: qty units taken from maker at the
// maker's resting price. The caller turns fills into sequenced trades.
type Fill struct {
	Maker *Order
	Price int64
	Qty   int64
}

// Book owns the two price ladders for one symbol and runs price-time
// matching against them. Many submissions for the same symbol may be
// mid-match concurrently; correctness rests on the CAS claim against each
// maker's queue seat (no unit of quantity is ever allocated twice) and on
// re-reading the best price after every claim instead of trusting a stale
// snapshot.
type Book struct {
	slot   uint32
	bids   *Ladder
	asks   *Ladder
	fault  atomic.Pointer[error]
	retire func(*Order)
}

// New creates an empty book for one symbol. retire receives every order
// whose quantity has been fully consumed; it may be nil.
func New(slot uint32, maxTick int64, retire func(*Order)) *Book {
	return &Book{
		slot:   slot,
		bids:   NewLadder(Buy, maxTick),
		asks:   NewLadder(Sell, maxTick),
		retire: retire,
	}
}

func (b *Book) Slot() uint32  { return b.slot }
func (b *Book) Bids() *Ladder { return b.bids }
func (b *Book) Asks() *Ladder { return b.asks }

// Err returns the fault that poisoned this book, or nil.
func (b *Book) Err() error {
	if p := b.fault.Load(); p != nil {
		return *p
	}
	return nil
}

func (b *Book) fail(err error) {
	b.fault.CompareAndSwap(nil, &err)
}

// crosses reports whether an order with the given side and limit is willing
// to trade at the resting price.
func crosses(side Side, limit, resting int64) bool {
	if side == Buy {
		return limit >= resting
	}
	return limit <= resting
}

// Submit matches o against the opposite side and rests any remainder at its
// limit price. It returns the fills generated, in match order. The caller
// must hold an epoch pin and must not touch o after the pin is released:
// once the order rests, the book owns it until it is drained and retired.
func (b *Book) Submit(o *Order) ([]Fill, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}
	opp, own := b.sides(o.Side)

	fills, left := b.match(o, o.Remaining(), opp, nil)
	if left > 0 {
		n := own.Enqueue(o, left)
		fills = b.uncross(o, n, opp, own, fills)
	}
	if err := b.Err(); err != nil {
		return fills, err
	}
	return fills, nil
}

func (b *Book) sides(s Side) (opp, own *Ladder) {
	if s == Buy {
		return b.asks, b.bids
	}
	return b.bids, b.asks
}

// match consumes resting orders while budget units are still unspent and the
// opposite best price is compatible, returning the fills and the unspent
// budget. Losing a race on a drained seat or a drained level just re-reads
// the top of book; that optimistic retry is what replaces locking here.
func (b *Book) match(o *Order, budget int64, opp *Ladder, fills []Fill) ([]Fill, int64) {
	for budget > 0 {
		lvl, ok := opp.BestLevel()
		if !ok || !crosses(o.Side, o.Price, lvl.price) {
			break
		}
		mn := lvl.front()
		if mn == nil {
			// A concurrent taker drained the level between the scan and the
			// peek. Re-read the best price.
			continue
		}
		take := mn.claim(budget)
		if take == 0 {
			continue
		}
		budget -= take
		fills = append(fills, Fill{Maker: mn.order, Price: lvl.price, Qty: take})
		b.settle(mn.order, take)
		b.settle(o, take)
	}
	return fills, budget
}

// settle records take claimed units against the order's remaining quantity.
// The add that reaches zero is unique across all concurrent participants,
// so exactly one of them retires the order. A negative result means some
// unit was allocated twice, which is an implementation defect.
func (b *Book) settle(o *Order, take int64) {
	left := o.remaining.Add(-take)
	switch {
	case left == 0:
		if b.retire != nil {
			b.retire(o)
		}
	case left < 0:
		b.fail(fmt.Errorf("%w: order %d remaining %d after fill of %d",
			ErrFaulted, o.ID, left, take))
	}
}

// uncross runs after o has rested. If the opposite side crossed o's limit in
// the window between the last best-price read and the enqueue, the seat is
// withdrawn with a CAS (takers that already claimed part of it keep their
// claims), the reclaimed units resume matching, and any leftover rests in a
// fresh seat. This keeps "best bid >= best ask" a transient state of the
// matching operation only, never a resting one.
func (b *Book) uncross(o *Order, n *node, opp, own *Ladder, fills []Fill) []Fill {
	for {
		best, ok := opp.BestPrice()
		if !ok || !crosses(o.Side, o.Price, best) {
			return fills
		}
		r := n.revoke()
		if r == 0 {
			// Concurrent takers already consumed the seat.
			return fills
		}
		var left int64
		fills, left = b.match(o, r, opp, fills)
		if left == 0 {
			return fills
		}
		n = own.Enqueue(o, left)
	}
}

// TopOfBook returns the best bid and ask. Under concurrent mutation the pair
// is advisory; matching re-validates at the moment of each claim.
func (b *Book) TopOfBook() (bid, ask int64, hasBid, hasAsk bool) {
	bid, hasBid = b.bids.BestPrice()
	ask, hasAsk = b.asks.BestPrice()
	return
}

// Verify checks the resting-state invariant best bid < best ask. It is
// meaningful only at quiescence, with no submission in flight; a violation
// is an implementation defect and poisons the book.
func (b *Book) Verify() error {
	bid, ask, hasBid, hasAsk := b.TopOfBook()
	if hasBid && hasAsk && bid >= ask {
		err := fmt.Errorf("%w: crossed book, bid %d >= ask %d", ErrFaulted, bid, ask)
		b.fail(err)
		return err
	}
	return b.Err()
}

// DepthLevel summarises one price level for market-data queries.
type DepthLevel struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int   `json:"orders"`
}

// Depth aggregates up to maxLevels non-empty levels per side, best first.
// Callers must hold an epoch pin for the duration of the call.
func (b *Book) Depth(maxLevels int) (bids, asks []DepthLevel) {
	return depth(b.bids, maxLevels), depth(b.asks, maxLevels)
}

func depth(l *Ladder, maxLevels int) []DepthLevel {
	var out []DepthLevel
	l.Walk(func(lvl *Level) bool {
		var qty int64
		var n int
		lvl.each(func(_ *Order, q int64) bool {
			qty += q
			n++
			return true
		})
		if qty > 0 {
			out = append(out, DepthLevel{Price: lvl.price, Qty: qty, Orders: n})
		}
		return len(out) < maxLevels
	})
	return out
}
