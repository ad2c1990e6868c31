package journal

import (
	"testing"

	"matchbook/domain/book"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleTrade(seq uint64) book.Trade {
	return book.Trade{
		Seq:     seq,
		TakerID: 10,
		MakerID: 20,
		Slot:    3,
		Price:   10050,
		Qty:     7,
	}
}

func TestAppendAndGet(t *testing.T) {
	j := openTestJournal(t)
	want := sampleTrade(1)
	if err := j.Append(want); err != nil {
		t.Fatal(err)
	}

	rec, err := j.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != StateNew {
		t.Fatalf("state %v, want NEW", rec.State)
	}
	if rec.Trade != want {
		t.Fatalf("trade %+v, want %+v", rec.Trade, want)
	}
}

func TestStateTransitions(t *testing.T) {
	j := openTestJournal(t)
	if err := j.Append(sampleTrade(1)); err != nil {
		t.Fatal(err)
	}

	if err := j.MarkSent(1); err != nil {
		t.Fatal(err)
	}
	rec, err := j.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != StateSent || rec.Retries != 1 || rec.LastAttempt == 0 {
		t.Fatalf("after MarkSent: %+v", rec)
	}

	if err := j.MarkAcked(1); err != nil {
		t.Fatal(err)
	}
	rec, err = j.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != StateAcked {
		t.Fatalf("state %v, want ACKED", rec.State)
	}
}

func TestScanPendingSkipsAcked(t *testing.T) {
	j := openTestJournal(t)
	for seq := uint64(1); seq <= 5; seq++ {
		if err := j.Append(sampleTrade(seq)); err != nil {
			t.Fatal(err)
		}
	}
	if err := j.MarkAcked(2); err != nil {
		t.Fatal(err)
	}
	if err := j.MarkAcked(4); err != nil {
		t.Fatal(err)
	}

	var seqs []uint64
	err := j.ScanPending(func(r Record) error {
		seqs = append(seqs, r.Trade.Seq)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{1, 3, 5}
	if len(seqs) != len(want) {
		t.Fatalf("pending %v, want %v", seqs, want)
	}
	for i := range want {
		if seqs[i] != want[i] {
			t.Fatalf("pending %v, want %v in sequence order", seqs, want)
		}
	}
}

func TestScanPendingEarlyStop(t *testing.T) {
	j := openTestJournal(t)
	for seq := uint64(1); seq <= 10; seq++ {
		if err := j.Append(sampleTrade(seq)); err != nil {
			t.Fatal(err)
		}
	}

	count := 0
	err := j.ScanPending(func(Record) error {
		count++
		if count == 3 {
			return ErrStopScan
		}
		return nil
	})
	if err != nil {
		t.Fatalf("early stop must not surface an error, got %v", err)
	}
	if count != 3 {
		t.Fatalf("visited %d records, want 3", count)
	}
}

func TestAppendIdempotent(t *testing.T) {
	j := openTestJournal(t)
	tr := sampleTrade(1)
	if err := j.Append(tr); err != nil {
		t.Fatal(err)
	}
	if err := j.MarkSent(1); err != nil {
		t.Fatal(err)
	}
	// A replayed append resets the record to NEW without duplicating it.
	if err := j.Append(tr); err != nil {
		t.Fatal(err)
	}

	count := 0
	if err := j.ScanPending(func(Record) error { count++; return nil }); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("found %d records for one trade, want 1", count)
	}
}

func TestDelete(t *testing.T) {
	j := openTestJournal(t)
	if err := j.Append(sampleTrade(1)); err != nil {
		t.Fatal(err)
	}
	if err := j.Delete(1); err != nil {
		t.Fatal(err)
	}
	if _, err := j.Get(1); err == nil {
		t.Fatal("deleted record must not be readable")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	rec := Record{
		Trade:       sampleTrade(42),
		State:       StateSent,
		Retries:     3,
		LastAttempt: 1700000000000000000,
	}
	got, err := decodeRecord(encodeRecord(rec))
	if err != nil {
		t.Fatal(err)
	}
	if got != rec {
		t.Fatalf("round trip %+v, want %+v", got, rec)
	}

	if _, err := decodeRecord([]byte{1, 2, 3}); err == nil {
		t.Fatal("short buffer must be rejected")
	}
}
