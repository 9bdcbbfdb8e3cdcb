package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func sampleRecord() domain.RemodelRecord {
	return domain.RemodelRecord{
		ID:                     "rec-1",
		Address:                domain.Address{DisplayName: "1100 Congress Ave, Austin, Texas", Lat: 30.27, Lon: -97.74},
		Measurements:           domain.BuildingMeasurement{Area: 2000},
		IsMeasurementsReliable: true,
		WindowDoorCount:        domain.WindowDoorCount{Windows: 8, Doors: 2},
		Components:             []domain.Component{domain.ComponentSiding},
		CostEstimates:          domain.CostEstimate{TotalLow: 10000, TotalHigh: 22000},
		TimelineWeeks:          4,
		ProcessedImages:        map[domain.Direction]string{domain.North: "https://signed"},
		CreatedAt:              time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	rec := sampleRecord()

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("rec-1"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte(EventTypeEstimated), msg.Headers[0].Value)
	assert.Equal(t, "created_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(rec.CreatedAt.Format(time.RFC3339)), msg.Headers[1].Value)

	var event EstimateEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, EventTypeEstimated, event.Type)
	assert.Equal(t, "rec-1", event.RemodelID)
	assert.Equal(t, 2000.0, event.Area)
	assert.Equal(t, 22000.0, event.CostHigh)
	assert.Equal(t, 8, event.Windows)
	assert.NotContains(t, string(msg.Value), "https://signed", "expiring URLs stay out of events")
}

func TestPublishEstimate(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, p.PublishEstimate(context.Background(), sampleRecord()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("rec-1"), w.msgs[0].Key)
}

func TestPublishEstimate_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &Publisher{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := p.PublishEstimate(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rec-1")
}
