package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/techsupport-manager/internal/domain"
	"github.com/spec-kit/techsupport-manager/internal/events"
	"github.com/spec-kit/techsupport-manager/internal/repository"
)

func saveOverdueTicket(t *testing.T, repo *repository.MemoryTicketRepository) *domain.Ticket {
	t.Helper()
	ticket, err := domain.NewTicket("Mail server down", "Nobody can send or receive email.", "user-1", domain.TicketPriorityCritical, "", nil)
	if err != nil {
		t.Fatalf("NewTicket: %v", err)
	}
	ticket.SLADeadline = time.Now().Add(-time.Hour)
	if err := repo.Save(context.Background(), ticket); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return ticket
}

func TestScanPublishesViolationOnce(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	publisher := events.NewCollectingPublisher()
	monitor := NewSLAMonitor(repo, publisher, zap.NewNop())
	ctx := context.Background()

	ticket := saveOverdueTicket(t, repo)

	count, err := monitor.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 1 {
		t.Errorf("violations = %d, want 1", count)
	}

	got := published(t, publisher, 1)
	if got[0].EventType != events.EventTicketSLAViolated {
		t.Errorf("event type = %s, want %s", got[0].EventType, events.EventTicketSLAViolated)
	}
	if got[0].AggregateID != ticket.ID {
		t.Errorf("aggregate = %s, want %s", got[0].AggregateID, ticket.ID)
	}
	payload, ok := got[0].Payload.(events.TicketSLAViolatedPayload)
	if !ok || payload.HoursOverdue <= 0 {
		t.Errorf("payload = %+v", got[0].Payload)
	}

	// Second scan stays quiet for the same ticket.
	count, err = monitor.Scan(ctx)
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if count != 0 {
		t.Errorf("violations on rescan = %d, want 0", count)
	}
	published(t, publisher, 1)
}

func TestScanSkipsHealthyAndClosedTickets(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	publisher := events.NewCollectingPublisher()
	monitor := NewSLAMonitor(repo, publisher, zap.NewNop())
	ctx := context.Background()

	healthy, err := domain.NewTicket("Slow laptop", "Laptop takes ten minutes to start up.", "user-1", domain.TicketPriorityLow, "", nil)
	if err != nil {
		t.Fatalf("NewTicket: %v", err)
	}
	if err := repo.Save(ctx, healthy); err != nil {
		t.Fatalf("Save: %v", err)
	}

	closed := saveOverdueTicket(t, repo)
	if err := closed.Assign("tech-1"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := closed.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := repo.Save(ctx, closed); err != nil {
		t.Fatalf("Save closed: %v", err)
	}

	count, err := monitor.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 0 {
		t.Errorf("violations = %d, want 0", count)
	}
	published(t, publisher, 0)
}

func TestScanRetriesAfterPublishFailure(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	publisher := events.NewCollectingPublisher()
	monitor := NewSLAMonitor(repo, publisher, zap.NewNop())
	ctx := context.Background()

	saveOverdueTicket(t, repo)

	publisher.FailWith = errors.New("broker down")
	count, err := monitor.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 0 {
		t.Errorf("violations with failing publisher = %d, want 0", count)
	}

	publisher.FailWith = nil
	count, err = monitor.Scan(ctx)
	if err != nil {
		t.Fatalf("retry Scan: %v", err)
	}
	if count != 1 {
		t.Errorf("violations on retry = %d, want 1", count)
	}
	published(t, publisher, 1)
}

func published(t *testing.T, p *events.CollectingPublisher, want int) []events.Event {
	t.Helper()
	got := p.Events()
	if len(got) != want {
		t.Fatalf("published = %d events, want %d", len(got), want)
	}
	return got
}
