// Package tradelog keeps the in-memory execution record: a fixed-capacity
// concurrent ring of the most recent trades. The engine hands trades to the
// caller and retains no ownership of them; this log is the lightweight
// collaborator that makes recent executions queryable without any
// persistence.
package tradelog

import (
	"sync/atomic"

	"matchbook/domain/book"
)

// Log is a lock-free multi-producer ring. Writers take a ticket from the
// cursor and publish into their slot; readers walk backwards from the
// cursor. A reader racing a writer on the same slot sees either the old or
// the new trade, both of which were valid recent entries.
type Log struct {
	buf    []atomic.Pointer[book.Trade]
	mask   uint64
	cursor atomic.Uint64
}

// New creates a log holding the last capacity trades, rounded up to a power
// of two.
func New(capacity int) *Log {
	if capacity < 1 {
		capacity = 1
	}
	size := uint64(1)
	for size < uint64(capacity) {
		size <<= 1
	}
	return &Log{
		buf:  make([]atomic.Pointer[book.Trade], size),
		mask: size - 1,
	}
}

// Append records a trade, overwriting the oldest entry once the ring is
// full.
func (l *Log) Append(t book.Trade) {
	i := l.cursor.Add(1) - 1
	l.buf[i&l.mask].Store(&t)
}

// Total returns the number of trades ever appended.
func (l *Log) Total() uint64 { return l.cursor.Load() }

// Recent returns up to n trades, newest first.
func (l *Log) Recent(n int) []book.Trade {
	total := l.cursor.Load()
	if n <= 0 {
		return nil
	}
	if uint64(n) > total {
		n = int(total)
	}
	if uint64(n) > uint64(len(l.buf)) {
		n = len(l.buf)
	}
	out := make([]book.Trade, 0, n)
	for i := 0; i < n; i++ {
		p := l.buf[(total-1-uint64(i))&l.mask].Load()
		if p == nil {
			break
		}
		out = append(out, *p)
	}
	return out
}
