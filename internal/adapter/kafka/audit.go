// Package kafka publishes committed download events to the audit topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/synopticdata/station-bot/internal/config"
	"github.com/synopticdata/station-bot/internal/domain"
)

// AuditWriter produces download events to the audit Kafka topic.
// It implements service.AuditPublisher.
type AuditWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAuditWriter creates a Kafka producer for the configured audit topic.
func NewAuditWriter(cfg *config.Config, logger *slog.Logger) *AuditWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAuditTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &AuditWriter{writer: w, logger: logger}
}

// Publish serializes one download event and writes it to the audit topic.
// Keyed by user id so one user's events stay in order within a partition.
func (w *AuditWriter) Publish(ctx context.Context, ev domain.DownloadEvent) error {
	msg, err := serializeToMessage(ev)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *AuditWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DownloadEvent into a Kafka message.
func serializeToMessage(ev domain.DownloadEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize download event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(ev.UserID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station_id", Value: []byte(ev.StationID)},
			{Key: "event_date", Value: []byte(ev.Date)},
		},
	}, nil
}
