// Package journal persists executed trades to a pebble-backed outbox. It is
// the out-of-engine collaborator that owns trade history: the matching core
// never reads it, and a journal failure never affects matching.
//
// Each record moves through NEW -> SENT -> ACKED as the broadcaster drains
// it to Kafka, giving at-least-once delivery across restarts.
package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"matchbook/domain/book"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

// Record is one journaled trade plus its delivery state.
type Record struct {
	Trade       book.Trade
	State       State
	Retries     uint32
	LastAttempt int64
}

const (
	// value layout: [state:1][retries:4][lastAttempt:8][trade:44]
	headerLen = 1 + 4 + 8
	tradeLen  = 8 + 8 + 8 + 4 + 8 + 8
	recordLen = headerLen + tradeLen
)

func encodeRecord(r Record) []byte {
	buf := make([]byte, recordLen)
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	t := r.Trade
	binary.BigEndian.PutUint64(buf[13:21], t.Seq)
	binary.BigEndian.PutUint64(buf[21:29], t.TakerID)
	binary.BigEndian.PutUint64(buf[29:37], t.MakerID)
	binary.BigEndian.PutUint32(buf[37:41], t.Slot)
	binary.BigEndian.PutUint64(buf[41:49], uint64(t.Price))
	binary.BigEndian.PutUint64(buf[49:57], uint64(t.Qty))
	return buf
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) != recordLen {
		return Record{}, fmt.Errorf("journal: invalid record length %d", len(b))
	}
	return Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Trade: book.Trade{
			Seq:     binary.BigEndian.Uint64(b[13:21]),
			TakerID: binary.BigEndian.Uint64(b[21:29]),
			MakerID: binary.BigEndian.Uint64(b[29:37]),
			Slot:    binary.BigEndian.Uint32(b[37:41]),
			Price:   int64(binary.BigEndian.Uint64(b[41:49])),
			Qty:     int64(binary.BigEndian.Uint64(b[49:57])),
		},
	}, nil
}

// Journal is the pebble-backed outbox.
type Journal struct {
	db *pebble.DB
}

func Open(dir string) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Append journals a freshly executed trade in state NEW. Keyed by trade
// sequence, so replays of the same trade are idempotent.
func (j *Journal) Append(t book.Trade) error {
	rec := Record{Trade: t, State: StateNew}
	return j.db.Set(keyFor(t.Seq), encodeRecord(rec), pebble.NoSync)
}

// Get returns the record for a trade sequence.
func (j *Journal) Get(seq uint64) (Record, error) {
	val, closer, err := j.db.Get(keyFor(seq))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	return decodeRecord(val)
}

// MarkSent transitions a record to SENT and bumps its retry count.
func (j *Journal) MarkSent(seq uint64) error {
	return j.transition(seq, StateSent)
}

// MarkAcked transitions a record to ACKED.
func (j *Journal) MarkAcked(seq uint64) error {
	return j.transition(seq, StateAcked)
}

func (j *Journal) transition(seq uint64, state State) error {
	rec, err := j.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries++
	rec.LastAttempt = time.Now().UnixNano()
	return j.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// Delete removes an acked record during cleanup.
func (j *Journal) Delete(seq uint64) error {
	return j.db.Delete(keyFor(seq), pebble.Sync)
}

// ErrStopScan lets a scan callback stop the iteration early.
var ErrStopScan = errors.New("journal: stop scan")

// ScanPending iterates every record not yet ACKED, in trade-sequence order.
func (j *Journal) ScanPending(fn func(Record) error) error {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State == StateAcked {
			continue
		}
		if err := fn(rec); err != nil {
			if errors.Is(err, ErrStopScan) {
				return nil
			}
			return err
		}
	}
	return iter.Error()
}

const keyPrefix = "trade/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}
