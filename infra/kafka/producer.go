// Package kafka holds the live trade-feed producer. This is the
// fire-and-forget stream for market-data consumers; durable delivery goes
// through the journal and the broadcaster instead.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"matchbook/domain/book"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish sends one trade, keyed by symbol slot so per-symbol ordering is
// preserved across partitions.
func (p *Producer) Publish(ctx context.Context, t book.Trade) error {
	value, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(t.Slot), 10)),
		Value: value,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
