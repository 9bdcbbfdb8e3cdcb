//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/remodel-estimate-service/internal/adapter/kafka"
	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

const testTopic = "test-remodel-estimates"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("remodel-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// TestPublishEstimate_RoundTrip publishes a record through the real producer
// and reads it back from the topic.
func TestPublishEstimate_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	pub := kafka.NewPublisher([]string{broker}, testTopic, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer pub.Close()

	rec := domain.RemodelRecord{
		ID:            "integration-1",
		Address:       domain.Address{DisplayName: "1600 Grant St, Denver, Colorado", Lat: 39.74, Lon: -104.98},
		Measurements:  domain.BuildingMeasurement{Area: 1800},
		Components:    []domain.Component{domain.ComponentRoof},
		CostEstimates: domain.CostEstimate{TotalLow: 5000, TotalHigh: 9000},
		TimelineWeeks: 8,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, pub.PublishEstimate(ctx, rec))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     time.Second,
	})
	defer reader.Close()

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read from topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "integration-1", string(msg.Key))
	assert.Equal(t, kafka.EventTypeEstimated, headers["event_type"])
	assert.Equal(t, "2026-01-02T03:04:05Z", headers["created_at"])

	var event kafka.EstimateEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, rec.ID, event.RemodelID)
	assert.Equal(t, 9000.0, event.CostHigh)
	assert.Equal(t, []domain.Component{domain.ComponentRoof}, event.Components)
}
