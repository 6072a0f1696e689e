package events

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Consumer reads event envelopes from Kafka and hands them to the dispatcher
type Consumer struct {
	reader     *kafka.Reader
	dispatcher *Dispatcher
	logger     *zap.SugaredLogger
}

func NewConsumer(brokers []string, topic, groupID string, dispatcher *Dispatcher, logger *zap.SugaredLogger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: r, dispatcher: dispatcher, logger: logger}
}

// Start blocks until ctx is cancelled. Messages are handled one at a time so
// offsets are committed in order; a malformed message is logged and skipped.
// A message already read is processed to the end even if ctx is cancelled meanwhile.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Errorw("kafka read error", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if err := c.dispatcher.Handle(context.WithoutCancel(ctx), m.Value); err != nil {
			c.logger.Warnw("dropping event", "partition", m.Partition, "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) Close() error {
	if c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
