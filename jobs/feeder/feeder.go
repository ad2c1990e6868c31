// Package feeder simulates market activity: independent workers submit
// randomized orders across the whole symbol universe through the same entry
// point as any other caller. It is purely a load generator and has no
// bearing on matching correctness.
package feeder

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"matchbook/domain/book"
	"matchbook/engine"
)

// Submitter is the order-entry surface the feeder drives.
type Submitter interface {
	Submit(side book.Side, symbol string, qty, price int64) (engine.Result, error)
}

type Config struct {
	Symbols  []string
	Workers  int
	Interval time.Duration // pause between orders per worker; zero means flat out
	MinQty   int64
	MaxQty   int64
	MinPrice int64
	MaxPrice int64
	Seed     int64
}

func (c *Config) defaults() {
	if c.Workers <= 0 {
		c.Workers = 3
	}
	if c.MinQty <= 0 {
		c.MinQty = 10
	}
	if c.MaxQty < c.MinQty {
		c.MaxQty = c.MinQty + 490
	}
	if c.MinPrice <= 0 {
		c.MinPrice = 10000
	}
	if c.MaxPrice < c.MinPrice {
		c.MaxPrice = c.MinPrice + 5000
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
}

type Feeder struct {
	log       *zap.Logger
	submit    Submitter
	cfg       Config
	submitted atomic.Uint64
	rejected  atomic.Uint64
}

func New(log *zap.Logger, submit Submitter, cfg Config) *Feeder {
	cfg.defaults()
	return &Feeder{log: log, submit: submit, cfg: cfg}
}

// Run starts the configured workers and blocks until the context is
// cancelled.
func (f *Feeder) Run(ctx context.Context) {
	f.log.Info("feeder started",
		zap.Int("workers", f.cfg.Workers),
		zap.Int("symbols", len(f.cfg.Symbols)),
		zap.Duration("interval", f.cfg.Interval))

	var wg sync.WaitGroup
	for i := 0; i < f.cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			f.work(ctx, rand.New(rand.NewSource(f.cfg.Seed+int64(worker))))
		}(i)
	}
	wg.Wait()

	f.log.Info("feeder stopped",
		zap.Uint64("submitted", f.submitted.Load()),
		zap.Uint64("rejected", f.rejected.Load()))
}

func (f *Feeder) work(ctx context.Context, rng *rand.Rand) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		side := book.Buy
		if rng.Intn(2) == 1 {
			side = book.Sell
		}
		symbol := f.cfg.Symbols[rng.Intn(len(f.cfg.Symbols))]
		qty := f.cfg.MinQty + rng.Int63n(f.cfg.MaxQty-f.cfg.MinQty+1)
		price := f.cfg.MinPrice + rng.Int63n(f.cfg.MaxPrice-f.cfg.MinPrice+1)

		if _, err := f.submit.Submit(side, symbol, qty, price); err != nil {
			f.rejected.Add(1)
		} else {
			f.submitted.Add(1)
		}

		if f.cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.cfg.Interval):
			}
		}
	}
}

// Submitted returns the number of accepted orders so far.
func (f *Feeder) Submitted() uint64 { return f.submitted.Load() }

// Rejected returns the number of rejected orders so far.
func (f *Feeder) Rejected() uint64 { return f.rejected.Load() }
