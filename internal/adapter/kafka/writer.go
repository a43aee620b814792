package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/config"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by ReportWriter.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ReportWriter produces report runs to a Kafka topic.
// It implements pipeline.ReportPublisher.
type ReportWriter struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewReportWriter creates a Kafka producer for the configured report topic.
func NewReportWriter(cfg *config.Config, logger *slog.Logger) *ReportWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &ReportWriter{writer: w, topic: cfg.KafkaReportTopic, logger: logger}
}

// Publish serializes a report run and writes it as a single message.
func (w *ReportWriter) Publish(ctx context.Context, run domain.ReportRun) error {
	msg, err := serializeToMessage(run)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report to %s: %w", w.topic, err)
	}
	w.logger.Info("report published", "topic", w.topic, "run_id", run.RunID)
	return nil
}

func (w *ReportWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ReportRun into a Kafka message keyed by run ID.
func serializeToMessage(run domain.ReportRun) (kafkago.Message, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report run: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(run.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "generated_at", Value: []byte(run.GeneratedAt.Format(time.RFC3339))},
			{Key: "fingerprint", Value: []byte(run.Fingerprint)},
		},
	}, nil
}
