package engine

import (
	"fmt"
	"time"

	"matchbook/domain/book"
	"matchbook/infra/memory"
	"matchbook/infra/sequence"
)

// DefaultMaxPriceTick bounds the price range per symbol. Prices are integer
// ticks, so each ladder is a direct-indexed array of this many slots,
// installed lazily per side on first use.
const DefaultMaxPriceTick = 1 << 15

// Config carries the startup parameters of the engine. The symbol universe
// is fixed for the engine's lifetime.
type Config struct {
	Symbols      []string
	MaxPriceTick int64
	// EpochSlots bounds the number of simultaneously pinned goroutines for
	// reclamation purposes; zero selects a default.
	EpochSlots int
}

// Result is returned to the caller of Submit, synchronously.
// Filled+Resting always equals the submitted quantity at the time Submit
// returned; a rested remainder may of course fill later.
type Result struct {
	OrderID uint64
	Filled  int64
	Resting int64
	Trades  []book.Trade
}

// Engine is the sole entry point for new orders. It validates the request,
// assigns the entry sequence id, resolves the symbol to its book, and runs
// the matching loop. Submissions for different symbols never contend;
// submissions for the same symbol contend only on that symbol's ladders.
type Engine struct {
	registry *Registry
	books    []*book.Book
	orderSeq *sequence.Sequencer
	tradeSeq *sequence.Sequencer
	maxTick  int64

	epochs  *memory.EpochRegistry
	pool    *memory.Pool[book.Order]
	retired *memory.RetireStack[*book.Order]
}

// New builds an engine over the configured symbol universe, one book per
// symbol.
func New(cfg Config) (*Engine, error) {
	reg, err := NewRegistry(cfg.Symbols)
	if err != nil {
		return nil, err
	}
	maxTick := cfg.MaxPriceTick
	if maxTick <= 0 {
		maxTick = DefaultMaxPriceTick
	}
	slots := cfg.EpochSlots
	if slots <= 0 {
		slots = 1024
	}

	e := &Engine{
		registry: reg,
		orderSeq: sequence.New(0),
		tradeSeq: sequence.New(0),
		maxTick:  maxTick,
		epochs:   memory.NewEpochRegistry(slots),
		pool:     memory.NewPool(func() *book.Order { return &book.Order{} }),
	}
	e.retired = memory.NewRetireStack[*book.Order](e.epochs)

	e.books = make([]*book.Book, reg.Len())
	for i := range e.books {
		e.books[i] = book.New(uint32(i), maxTick, e.retireOrder)
	}
	return e, nil
}

func (e *Engine) retireOrder(o *book.Order) { e.retired.Push(o) }

// Registry exposes the immutable symbol table.
func (e *Engine) Registry() *Registry { return e.registry }

// Submit validates and normalizes an order request, assigns it the next
// entry sequence id, and matches it against the resolved book. Client errors
// are returned before any book mutation. The call is synchronous and safe
// for any number of concurrent callers.
func (e *Engine) Submit(side book.Side, symbol string, qty, price int64) (Result, error) {
	if qty <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if price <= 0 || price > e.maxTick {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidPrice, price)
	}
	slot, ok := e.registry.Lookup(symbol)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}

	guard := e.epochs.Pin()
	defer guard.Unpin()

	o := e.pool.Get()
	o.Prime(e.orderSeq.Next(), slot, side, price, qty, time.Now().UnixNano())

	fills, err := e.books[slot].Submit(o)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		OrderID: o.ID,
		Resting: o.Remaining(),
	}
	res.Filled = qty - res.Resting
	if len(fills) > 0 {
		res.Trades = make([]book.Trade, len(fills))
		for i, f := range fills {
			res.Trades[i] = book.Trade{
				Seq:     e.tradeSeq.Next(),
				TakerID: o.ID,
				MakerID: f.Maker.ID,
				Slot:    slot,
				Price:   f.Price,
				Qty:     f.Qty,
			}
		}
	}
	return res, nil
}

// TopOfBook returns the advisory best bid/ask for a symbol.
func (e *Engine) TopOfBook(symbol string) (bid, ask int64, hasBid, hasAsk bool, err error) {
	slot, ok := e.registry.Lookup(symbol)
	if !ok {
		err = fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
		return
	}
	bid, ask, hasBid, hasAsk = e.books[slot].TopOfBook()
	return
}

// Depth aggregates the resting liquidity of one symbol's book, best levels
// first, under an epoch pin.
func (e *Engine) Depth(symbol string, maxLevels int) (bids, asks []book.DepthLevel, err error) {
	slot, ok := e.registry.Lookup(symbol)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	if maxLevels <= 0 {
		maxLevels = 32
	}
	guard := e.epochs.Pin()
	defer guard.Unpin()
	bids, asks = e.books[slot].Depth(maxLevels)
	return bids, asks, nil
}

// Verify runs the quiescent consistency check over every book and returns
// the first fault found. Intended for tests and operational probes when no
// submission is in flight.
func (e *Engine) Verify() error {
	for _, b := range e.books {
		if err := b.Verify(); err != nil {
			return err
		}
	}
	return nil
}

// Reclaim advances the reclamation epoch and recycles retired orders that
// are no longer reachable. Intended to be called periodically by a
// background job; returns the number of orders recycled.
func (e *Engine) Reclaim() int {
	return e.retired.Reclaim(e.pool.Put)
}

// LastOrderSeq returns the most recently issued entry sequence id.
func (e *Engine) LastOrderSeq() uint64 { return e.orderSeq.Current() }

// LastTradeSeq returns the most recently issued trade sequence id.
func (e *Engine) LastTradeSeq() uint64 { return e.tradeSeq.Current() }
