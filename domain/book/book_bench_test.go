package book

import (
	"sync/atomic"
	"testing"
)

// ---------------- Basic Benchmarks ---------------- //

func BenchmarkSubmitRest(b *testing.B) {
	bk := newBenchBook()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		o := &Order{}
		o.Prime(uint64(i+1), 0, Buy, 100, 1, int64(i))
		_, _ = bk.Submit(o)
	}
}

func BenchmarkSubmitMatch(b *testing.B) {
	bk := newBenchBook()
	// Preload resting asks so every submission trades.
	for i := 0; i < b.N; i++ {
		o := &Order{}
		o.Prime(uint64(i+1), 0, Sell, 100, 1, int64(i))
		_, _ = bk.Submit(o)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		o := &Order{}
		o.Prime(uint64(b.N+i+1), 0, Buy, 100, 1, int64(b.N+i))
		_, _ = bk.Submit(o)
	}
}

func BenchmarkSubmitParallel(b *testing.B) {
	bk := newBenchBook()
	var seq atomic.Uint64
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			id := seq.Add(1)
			side := Buy
			if id%2 == 0 {
				side = Sell
			}
			o := &Order{}
			o.Prime(id, 0, side, 100, 1, int64(id))
			_, _ = bk.Submit(o)
		}
	})
}

func BenchmarkDepth(b *testing.B) {
	bk := newBenchBook()
	for i := 0; i < 50000; i++ {
		o := &Order{}
		if i%2 == 0 {
			o.Prime(uint64(i+1), 0, Buy, int64(90+i%10), 10, int64(i))
		} else {
			o.Prime(uint64(i+1), 0, Sell, int64(101+i%10), 10, int64(i))
		}
		_, _ = bk.Submit(o)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bids, asks := bk.Depth(20)
		_ = bids
		_ = asks
	}
}

func newBenchBook() *Book {
	return New(0, 1<<15, nil)
}
