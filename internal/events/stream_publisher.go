package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultStream is the Redis stream key ticket events are appended to.
const DefaultStream = "ticket-events"

// StreamPublisher appends events to a Redis stream. Consumers read the
// stream with consumer groups, giving at-least-once delivery.
type StreamPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamPublisher creates a publisher for the given stream. An empty
// stream name falls back to DefaultStream.
func NewStreamPublisher(client *redis.Client, stream string, logger *zap.Logger) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{client: client, stream: stream, logger: logger}
}

// Publish appends a single event to the stream.
func (p *StreamPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_type":   string(event.EventType),
			"aggregate_id": event.AggregateID,
			"event":        body,
		},
	}).Err()
	if err != nil {
		p.logger.Error("stream publish failed",
			zap.String("stream", p.stream),
			zap.String("event_type", string(event.EventType)),
			zap.Error(err))
		return err
	}
	return nil
}

// PublishBatch appends events in order using a single pipeline round trip.
func (p *StreamPublisher) PublishBatch(ctx context.Context, batch []Event) error {
	if len(batch) == 0 {
		return nil
	}
	pipe := p.client.Pipeline()
	for _, event := range batch {
		body, err := json.Marshal(event)
		if err != nil {
			return err
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]any{
				"event_type":   string(event.EventType),
				"aggregate_id": event.AggregateID,
				"event":        body,
			},
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Error("stream batch publish failed",
			zap.String("stream", p.stream),
			zap.Int("count", len(batch)),
			zap.Error(err))
		return err
	}
	return nil
}
