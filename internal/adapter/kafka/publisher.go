package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/remodel-estimate-service/internal/domain"
)

// EventTypeEstimated is the event_type header of completed-estimate events.
const EventTypeEstimated = "remodel.estimated"

// EstimateEvent is the message body published for each completed estimate.
// Image URLs are left out since they expire.
type EstimateEvent struct {
	Type          string             `json:"type"`
	RemodelID     string             `json:"remodelId"`
	Address       domain.Address     `json:"address"`
	Area          float64            `json:"area"`
	IsReliable    bool               `json:"isMeasurementsReliable"`
	Components    []domain.Component `json:"components"`
	CostLow       float64            `json:"costLow"`
	CostHigh      float64            `json:"costHigh"`
	TimelineWeeks int                `json:"timelineWeeks"`
	Windows       int                `json:"windows"`
	Doors         int                `json:"doors"`
	CreatedAt     time.Time          `json:"createdAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces estimate events to a Kafka topic.
// It implements domain.EventPublisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the given topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishEstimate serializes rec and writes it keyed by remodel ID.
func (p *Publisher) PublishEstimate(ctx context.Context, rec domain.RemodelRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish estimate %s: %w", rec.ID, err)
	}
	p.logger.Debug("estimate event published", "remodel_id", rec.ID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func serializeToMessage(rec domain.RemodelRecord) (kafkago.Message, error) {
	event := EstimateEvent{
		Type:          EventTypeEstimated,
		RemodelID:     rec.ID,
		Address:       rec.Address,
		Area:          rec.Measurements.Area,
		IsReliable:    rec.IsMeasurementsReliable,
		Components:    rec.Components,
		CostLow:       rec.CostEstimates.TotalLow,
		CostHigh:      rec.CostEstimates.TotalHigh,
		TimelineWeeks: rec.TimelineWeeks,
		Windows:       rec.WindowDoorCount.Windows,
		Doors:         rec.WindowDoorCount.Doors,
		CreatedAt:     rec.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize estimate event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventTypeEstimated)},
			{Key: "created_at", Value: []byte(rec.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
