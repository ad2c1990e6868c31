package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"matchbook/domain/book"
	"matchbook/engine"
	"matchbook/infra/journal"
	"matchbook/infra/kafka"
	"matchbook/infra/metrics"
	"matchbook/infra/tradelog"
)

// TradeSink receives every executed trade, in the submitting goroutine.
// Implementations must be fast and non-blocking; slow consumers hang off
// the feed channel instead.
type TradeSink func(book.Trade)

// Service wires the engine to its collaborators. Matching stays correct if
// every collaborator is nil; they only observe trades, they never gate them.
type Service struct {
	log     *zap.Logger
	eng     *engine.Engine
	journal *journal.Journal
	feed    *kafka.Producer
	trades  *tradelog.Log
	metrics *metrics.Metrics
	sinks   []TradeSink

	feedCh chan book.Trade
}

type Options struct {
	Journal *journal.Journal
	Feed    *kafka.Producer
	Trades  *tradelog.Log
	Metrics *metrics.Metrics
	// FeedBuffer sizes the channel between the hot path and the Kafka
	// publisher; when full, trades are dropped from the live feed (the
	// journal still has them).
	FeedBuffer int
}

func New(log *zap.Logger, eng *engine.Engine, opts Options) *Service {
	s := &Service{
		log:     log,
		eng:     eng,
		journal: opts.Journal,
		feed:    opts.Feed,
		trades:  opts.Trades,
		metrics: opts.Metrics,
	}
	if s.feed != nil {
		n := opts.FeedBuffer
		if n <= 0 {
			n = 4096
		}
		s.feedCh = make(chan book.Trade, n)
	}
	return s
}

// AddTradeSink registers an in-process observer. Not safe to call once
// submissions have started.
func (s *Service) AddTradeSink(sink TradeSink) {
	s.sinks = append(s.sinks, sink)
}

// Engine exposes the underlying engine for read-side queries.
func (s *Service) Engine() *engine.Engine { return s.eng }

// Submit forwards an order to the engine and fans executed trades out to
// the journal, the trade log, the live feed and any registered sinks.
func (s *Service) Submit(side book.Side, symbol string, qty, price int64) (engine.Result, error) {
	res, err := s.eng.Submit(side, symbol, qty, price)
	if err != nil {
		s.countReject(err)
		return res, err
	}
	s.countAccept(res)

	for _, t := range res.Trades {
		if s.trades != nil {
			s.trades.Append(t)
		}
		if s.journal != nil {
			if jerr := s.journal.Append(t); jerr != nil {
				s.log.Error("trade journal append failed",
					zap.Uint64("trade_seq", t.Seq), zap.Error(jerr))
			}
		}
		if s.feedCh != nil {
			select {
			case s.feedCh <- t:
			default:
				// Feed buffer full; durable delivery is the journal's job.
			}
		}
		for _, sink := range s.sinks {
			sink(t)
		}
	}
	return res, nil
}

func (s *Service) countAccept(res engine.Result) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.OutcomeRested
	switch {
	case res.Resting == 0:
		outcome = metrics.OutcomeFilled
	case res.Filled > 0:
		outcome = metrics.OutcomePartial
	}
	s.metrics.OrdersSubmitted.WithLabelValues(outcome).Inc()
	if n := len(res.Trades); n > 0 {
		s.metrics.Trades.Add(float64(n))
		var qty int64
		for _, t := range res.Trades {
			qty += t.Qty
		}
		s.metrics.TradedQty.Add(float64(qty))
	}
}

func (s *Service) countReject(err error) {
	if s.metrics == nil {
		return
	}
	reason := "fault"
	switch {
	case errors.Is(err, engine.ErrInvalidSymbol):
		reason = "invalid_symbol"
	case errors.Is(err, engine.ErrInvalidQuantity):
		reason = "invalid_quantity"
	case errors.Is(err, engine.ErrInvalidPrice):
		reason = "invalid_price"
	}
	s.metrics.OrdersRejected.WithLabelValues(reason).Inc()
}

// RecentTrades returns up to n recent executions, newest first.
func (s *Service) RecentTrades(n int) []book.Trade {
	if s.trades == nil {
		return nil
	}
	return s.trades.Recent(n)
}

// Run drives the background duties: the live-feed publisher and periodic
// epoch reclamation. It blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context, reclaimEvery time.Duration) {
	if reclaimEvery <= 0 {
		reclaimEvery = 2 * time.Second
	}
	ticker := time.NewTicker(reclaimEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.feedCh: // nil when no feed is configured; never fires
			if err := s.feed.Publish(ctx, t); err != nil {
				s.log.Warn("live feed publish failed",
					zap.Uint64("trade_seq", t.Seq), zap.Error(err))
			}
		case <-ticker.C:
			if n := s.eng.Reclaim(); n > 0 && s.metrics != nil {
				s.metrics.RetiredOrders.Add(float64(n))
			}
		}
	}
}
