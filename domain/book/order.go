package book

import "sync/atomic"

type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Order is a resting or incoming limit order. Every field except the
// remaining quantity is immutable after Prime. The remaining quantity only
// ever decreases: concurrent takers claim units from the order's queue seat
// and settle the claim here with an atomic add, so the add that reaches zero
// is unique and marks the order fully filled.
type Order struct {
	ID        uint64 // entry sequence id, the time-priority tie-break
	Slot      uint32 // registry slot of the symbol
	Side      Side
	Price     int64 // limit price in ticks, worst acceptable
	Original  int64
	Timestamp int64 // monotonic entry time, diagnostics only

	remaining   atomic.Int64
	retireEpoch uint64
}

// Prime initialises a (possibly recycled) order for a new submission.
func (o *Order) Prime(id uint64, slot uint32, side Side, price, qty, ts int64) {
	o.ID = id
	o.Slot = slot
	o.Side = side
	o.Price = price
	o.Original = qty
	o.Timestamp = ts
	o.retireEpoch = 0
	o.remaining.Store(qty)
}

func (o *Order) Remaining() int64 { return o.remaining.Load() }

// FilledQty is the quantity matched so far.
func (o *Order) FilledQty() int64 { return o.Original - o.remaining.Load() }

// Reset and the retire-epoch accessors satisfy the reclamation contract of
// the memory package.
func (o *Order) Reset()                  { *o = Order{} }
func (o *Order) RetireEpoch() uint64     { return o.retireEpoch }
func (o *Order) SetRetireEpoch(v uint64) { o.retireEpoch = v }

// Trade is an immutable execution record. Price is always the maker's
// resting price, never the taker's limit.
type Trade struct {
	Seq     uint64 `json:"seq"`
	TakerID uint64 `json:"taker_id"`
	MakerID uint64 `json:"maker_id"`
	Slot    uint32 `json:"slot"`
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
}
