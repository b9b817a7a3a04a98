package observability

import (
	"context"

	"github.com/spec-kit/techsupport-manager/internal/events"
)

type countedPublisher struct {
	next    events.Publisher
	metrics *Metrics
}

// CountPublishes wraps a publisher so every delivered event increments the
// per-type counter. Failed publishes are not counted.
func CountPublishes(next events.Publisher, m *Metrics) events.Publisher {
	return &countedPublisher{next: next, metrics: m}
}

func (p *countedPublisher) Publish(ctx context.Context, event events.Event) error {
	if err := p.next.Publish(ctx, event); err != nil {
		return err
	}
	p.metrics.RecordEventPublished(string(event.EventType))
	return nil
}

func (p *countedPublisher) PublishBatch(ctx context.Context, batch []events.Event) error {
	if err := p.next.PublishBatch(ctx, batch); err != nil {
		return err
	}
	for _, event := range batch {
		p.metrics.RecordEventPublished(string(event.EventType))
	}
	return nil
}
