// Package kafka emits a notification message for each published year
// partition so downstream consumers can refresh without polling the bucket.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/gv-dashboard-data/internal/config"
	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
)

// Notifier produces partition-published events to a Kafka topic.
// It implements pipeline.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured notification topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaNotifyTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Notifier{writer: w, logger: logger}
}

// PartitionPublished emits one notification for an uploaded year partition.
func (n *Notifier) PartitionPublished(ctx context.Context, year int, object string, rows int) error {
	msg, err := serializeToMessage(year, object, rows, domain.Now())
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("notify partition %d: %w", year, err)
	}
	n.logger.Debug("partition notification sent", "year", year, "object", object)
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// notification is the wire format of a partition-published event.
type notification struct {
	Year        int    `json:"year"`
	Object      string `json:"object"`
	Rows        int    `json:"rows"`
	PublishedAt string `json:"published_at"`
}

// serializeToMessage marshals a partition notification into a Kafka message
// keyed by year so per-year updates stay ordered.
func serializeToMessage(year int, object string, rows int, at time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(notification{
		Year:        year,
		Object:      object,
		Rows:        rows,
		PublishedAt: at.Format(time.RFC3339),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(year)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "object", Value: []byte(object)},
		},
	}, nil
}
