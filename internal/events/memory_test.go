package events

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/techsupport-manager/internal/domain"
)

func TestMemoryStoreRejectsSequenceCollision(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, newEvent("t-1", EventTicketCreated, nil), 1); err != nil {
		t.Fatalf("Append: %v", err)
	}
	err := store.Append(ctx, newEvent("t-1", EventTicketAssigned, nil), 1)
	var conflict *domain.ConcurrencyConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConcurrencyConflict", err)
	}

	// Same sequence on a different aggregate is fine.
	if err := store.Append(ctx, newEvent("t-2", EventTicketCreated, nil), 1); err != nil {
		t.Errorf("Append other aggregate: %v", err)
	}
}

func TestMemoryStoreSinceSequence(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for seq := int64(1); seq <= 3; seq++ {
		if err := store.Append(ctx, newEvent("t-1", EventTicketReopened, nil), seq); err != nil {
			t.Fatalf("Append %d: %v", seq, err)
		}
	}

	tail, err := store.EventsForAggregate(ctx, "t-1", 1)
	if err != nil {
		t.Fatalf("EventsForAggregate: %v", err)
	}
	if len(tail) != 2 || tail[0].Sequence != 2 || tail[1].Sequence != 3 {
		t.Errorf("tail = %+v, want sequences 2 and 3", tail)
	}

	last, err := store.LastSequence(ctx, "t-1")
	if err != nil || last != 3 {
		t.Errorf("LastSequence = %d, %v, want 3", last, err)
	}
	if last, _ := store.LastSequence(ctx, "unknown"); last != 0 {
		t.Errorf("LastSequence unknown aggregate = %d, want 0", last)
	}
}
