package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/streamflow-etl/internal/config"
	"github.com/couchcryptid/streamflow-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces comparison results to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes multiple comparison events to the sink topic in a
// single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.OutputEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msgs[i] = eventToMessage(events[i])
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// eventToMessage converts an OutputEvent into a Kafka message with headers
// in a stable key order.
func eventToMessage(event domain.OutputEvent) kafkago.Message {
	keys := make([]string, 0, len(event.Headers))
	for k := range event.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(event.Headers[k])})
	}
	return kafkago.Message{
		Key:     event.Key,
		Value:   event.Value,
		Headers: headers,
	}
}

// RequestWriter publishes analysis requests to the source topic. The
// scheduler uses it to enqueue work for the pipeline.
type RequestWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewRequestWriter creates a Kafka producer for the configured source topic.
func NewRequestWriter(cfg *config.Config, logger *slog.Logger) *RequestWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSourceTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &RequestWriter{writer: w, logger: logger}
}

// Publish writes each request as its own message keyed by site code.
func (w *RequestWriter) Publish(ctx context.Context, reqs ...domain.AnalysisRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(reqs))
	for i := range reqs {
		msg, err := requestToMessage(reqs[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *RequestWriter) Close() error {
	return w.writer.Close()
}

func requestToMessage(req domain.AnalysisRequest) (kafkago.Message, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analysis request: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(req.SiteCode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "request_id", Value: []byte(req.ID)},
			{Key: "requested_at", Value: []byte(req.RequestedAt.Format(time.RFC3339))},
		},
	}, nil
}
