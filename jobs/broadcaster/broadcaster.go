// Package broadcaster drains the trade journal to Kafka with at-least-once
// semantics: mark SENT, publish, mark ACKED. A crash between SENT and ACKED
// re-publishes the trade on the next pass; consumers deduplicate on the
// trade sequence.
package broadcaster

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"matchbook/infra/journal"
)

type Broadcaster struct {
	log      *zap.Logger
	journal  *journal.Journal
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
}

func New(log *zap.Logger, j *journal.Journal, brokers []string, topic string, interval time.Duration) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Broadcaster{
		log:      log,
		journal:  j,
		producer: producer,
		topic:    topic,
		interval: interval,
	}, nil
}

// Run drains pending journal records until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.drainOnce()
		}
	}
}

func (b *Broadcaster) drainOnce() {
	err := b.journal.ScanPending(func(rec journal.Record) error {
		if err := b.journal.MarkSent(rec.Trade.Seq); err != nil {
			return err
		}

		payload, err := json.Marshal(rec.Trade)
		if err != nil {
			return err
		}
		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(strconv.FormatUint(uint64(rec.Trade.Slot), 10)),
			Value: sarama.ByteEncoder(payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			// Leave the record in SENT; the next pass retries it.
			b.log.Warn("trade publish failed",
				zap.Uint64("trade_seq", rec.Trade.Seq), zap.Error(err))
			return nil
		}
		return b.journal.MarkAcked(rec.Trade.Seq)
	})
	if err != nil {
		b.log.Error("journal drain failed", zap.Error(err))
	}
}

// Close shuts down the Kafka producer.
func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
