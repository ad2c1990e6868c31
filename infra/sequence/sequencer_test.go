package sequence

import (
	"sync"
	"testing"
)

func TestSequencerMonotonic(t *testing.T) {
	s := New(0)
	if s.Current() != 0 {
		t.Fatalf("current %d, want 0 before any Next", s.Current())
	}
	for want := uint64(1); want <= 100; want++ {
		if got := s.Next(); got != want {
			t.Fatalf("next %d, want %d", got, want)
		}
	}
	if s.Current() != 100 {
		t.Fatalf("current %d, want 100", s.Current())
	}
}

func TestSequencerStart(t *testing.T) {
	s := New(500)
	if got := s.Next(); got != 501 {
		t.Fatalf("next %d, want 501", got)
	}
}

func TestSequencerConcurrent(t *testing.T) {
	s := New(0)
	const workers = 8
	const perWorker = 10000

	ids := make([][]uint64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			own := make([]uint64, perWorker)
			for i := range own {
				own[i] = s.Next()
			}
			ids[w] = own
		}(w)
	}
	wg.Wait()

	seen := make(map[uint64]bool, workers*perWorker)
	for _, own := range ids {
		for _, id := range own {
			if id == 0 || seen[id] {
				t.Fatalf("id %d duplicated or zero", id)
			}
			seen[id] = true
		}
	}
	if s.Current() != workers*perWorker {
		t.Fatalf("current %d, want %d", s.Current(), workers*perWorker)
	}
}
