//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/synopticdata/station-bot/internal/adapter/kafka"
	"github.com/synopticdata/station-bot/internal/config"
	"github.com/synopticdata/station-bot/internal/domain"
)

const testAuditTopic = "test-download-audit"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial kafka broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	ctrlConn, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestAuditRoundTrip verifies the audit writer end to end: a committed
// download event published through the adapter arrives on the audit topic
// with its key, value, and headers intact.
func TestAuditRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAuditTopic)

	cfg := &config.Config{
		KafkaBrokers:    []string{broker},
		KafkaAuditTopic: testAuditTopic,
	}

	writer := kafkaadapter.NewAuditWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	events := []domain.DownloadEvent{
		{UserID: 100, DisplayName: "Sara", StationID: "40754", Date: "2024-04-26"},
		{UserID: 200, DisplayName: "Reza", StationID: "40848", Date: "2024-04-26"},
	}
	for _, ev := range events {
		require.NoError(t, writer.Publish(ctx, ev))
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAuditTopic,
		GroupID:     fmt.Sprintf("test-audit-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	byUser := make(map[string]domain.DownloadEvent, len(events))
	for range events {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from audit topic")

		var ev domain.DownloadEvent
		require.NoError(t, json.Unmarshal(msg.Value, &ev), "unmarshal audit message")
		byUser[string(msg.Key)] = ev

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, ev.StationID, headers["station_id"])
		assert.Equal(t, string(ev.Date), headers["event_date"])
	}

	require.Len(t, byUser, 2)
	assert.Equal(t, events[0], byUser["100"])
	assert.Equal(t, events[1], byUser["200"])
}
