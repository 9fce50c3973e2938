package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/hazard-risk-service/internal/config"
	"github.com/couchcryptid/hazard-risk-service/internal/domain"
)

// Writer publishes query results and event snapshots. It implements
// pipeline.ResultSink and pipeline.SnapshotPublisher.
type Writer struct {
	writer       *kafkago.Writer
	resultsTopic string
	eventsTopic  string
	logger       *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topics. The topic is
// set per message, so one writer serves both.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Writer{
		writer:       w,
		resultsTopic: cfg.KafkaResultsTopic,
		eventsTopic:  cfg.KafkaEventsTopic,
		logger:       logger,
	}
}

// PublishResult writes one completed query result to the results topic.
func (w *Writer) PublishResult(ctx context.Context, result domain.QueryResult) error {
	msg, err := serializeResult(result)
	if err != nil {
		return err
	}
	msg.Topic = w.resultsTopic
	return w.writer.WriteMessages(ctx, msg)
}

// PublishSnapshot writes every event of a snapshot to the events topic in a
// single WriteMessages call.
func (w *Writer) PublishSnapshot(ctx context.Context, snap domain.EventSnapshot) error {
	events := snap.All()
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeEvent(events[i], snap.RefreshedAt)
		if err != nil {
			return err
		}
		msg.Topic = w.eventsTopic
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("event snapshot published", "topic", w.eventsTopic, "events", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeResult marshals a QueryResult keyed by its coordinate.
func serializeResult(r domain.QueryResult) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize query result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.Location.Coordinate.String()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_banner", Value: []byte(riskBanner(r))},
			{Key: "completed_at", Value: []byte(r.CompletedAt.Format(time.RFC3339))},
		},
	}, nil
}

// serializeEvent marshals a GlobalHazardEvent keyed by feed and title.
func serializeEvent(e domain.GlobalHazardEvent, refreshedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hazard event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(e.Feed + ":" + e.Title),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "feed", Value: []byte(e.Feed)},
			{Key: "refreshed_at", Value: []byte(refreshedAt.Format(time.RFC3339))},
		},
	}, nil
}

func riskBanner(r domain.QueryResult) string {
	if r.Risk.Value == nil {
		return string(r.Risk.Status)
	}
	return string(r.Risk.Value.Banner)
}
