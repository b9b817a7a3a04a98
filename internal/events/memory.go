package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/techsupport-manager/internal/domain"
)

// MemoryStore keeps events per aggregate in memory. It backs tests and
// DSN-less development runs.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[string][]StoredEvent
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[string][]StoredEvent)}
}

// Append records the event, rejecting sequence collisions.
func (s *MemoryStore) Append(_ context.Context, event Event, sequence int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stored := range s.streams[event.AggregateID] {
		if stored.Sequence == sequence {
			return domain.NewConcurrencyConflict(
				fmt.Sprintf("sequence %d already recorded for aggregate %s", sequence, event.AggregateID))
		}
	}
	s.streams[event.AggregateID] = append(s.streams[event.AggregateID], StoredEvent{Event: event, Sequence: sequence})
	return nil
}

// Discard removes the event recorded at the given sequence, if any. The
// in-memory unit of work uses it to undo partial appends when a commit
// aborts, matching the atomicity of a transactional store.
func (s *MemoryStore) Discard(_ context.Context, aggregateID string, sequence int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream := s.streams[aggregateID]
	for i, stored := range stream {
		if stored.Sequence == sequence {
			s.streams[aggregateID] = append(stream[:i], stream[i+1:]...)
			return
		}
	}
}

// EventsForAggregate returns events after the given sequence, in order.
func (s *MemoryStore) EventsForAggregate(_ context.Context, aggregateID string, sinceSequence int64) ([]StoredEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []StoredEvent
	for _, stored := range s.streams[aggregateID] {
		if stored.Sequence > sinceSequence {
			result = append(result, stored)
		}
	}
	return result, nil
}

// LastSequence returns the highest sequence recorded for the aggregate.
func (s *MemoryStore) LastSequence(_ context.Context, aggregateID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last int64
	for _, stored := range s.streams[aggregateID] {
		if stored.Sequence > last {
			last = stored.Sequence
		}
	}
	return last, nil
}

// CollectingPublisher records published events. Setting FailWith makes every
// publish attempt return that error while still recording nothing.
type CollectingPublisher struct {
	mu       sync.Mutex
	FailWith error
	events   []Event
}

// NewCollectingPublisher creates an empty collector.
func NewCollectingPublisher() *CollectingPublisher {
	return &CollectingPublisher{}
}

// Publish records the event unless FailWith is set.
func (p *CollectingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	p.events = append(p.events, event)
	return nil
}

// PublishBatch records the events in order unless FailWith is set.
func (p *CollectingPublisher) PublishBatch(ctx context.Context, batch []Event) error {
	for _, event := range batch {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Events returns a copy of everything published so far.
func (p *CollectingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}
