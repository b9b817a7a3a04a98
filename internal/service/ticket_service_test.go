package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/techsupport-manager/internal/domain"
	"github.com/spec-kit/techsupport-manager/internal/events"
	"github.com/spec-kit/techsupport-manager/internal/repository"
	"github.com/spec-kit/techsupport-manager/internal/uow"
)

type serviceFixture struct {
	service   *TicketService
	repo      *repository.MemoryTicketRepository
	store     *events.MemoryStore
	publisher *events.CollectingPublisher
}

func newServiceFixture() *serviceFixture {
	repo := repository.NewMemoryTicketRepository()
	store := events.NewMemoryStore()
	publisher := events.NewCollectingPublisher()
	factory := uow.NewMemoryFactory(store, publisher, nil)

	svc := NewTicketService(TicketDependencies{
		TicketRepo: repo,
		UnitOfWork: factory,
		Logger:     zap.NewNop(),
	})
	return &serviceFixture{service: svc, repo: repo, store: store, publisher: publisher}
}

func (f *serviceFixture) createTicket(t *testing.T, priority string) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.CreateTicket(context.Background(), CreateTicketInput{
		Title:       "VPN keeps dropping",
		Description: "Connection drops every few minutes on the office network.",
		CreatorID:   "user-1",
		Priority:    priority,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	return ticket
}

func TestTicketLifecycleEmitsOrderedEvents(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	ticket := f.createTicket(t, "high")

	if _, err := f.service.AssignTicket(ctx, AssignTicketInput{TicketID: ticket.ID, TechnicianID: "tech-1"}); err != nil {
		t.Fatalf("AssignTicket: %v", err)
	}
	closed, err := f.service.CloseTicket(ctx, CloseTicketInput{TicketID: ticket.ID, ClosedByID: "tech-1"})
	if err != nil {
		t.Fatalf("CloseTicket: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed {
		t.Errorf("status = %s, want %s", closed.Status, domain.TicketStatusClosed)
	}

	published := f.publisher.Events()
	wantTypes := []events.EventType{events.EventTicketCreated, events.EventTicketAssigned, events.EventTicketClosed}
	if len(published) != len(wantTypes) {
		t.Fatalf("published = %d events, want %d", len(published), len(wantTypes))
	}
	for i, want := range wantTypes {
		if published[i].EventType != want {
			t.Errorf("event[%d] = %s, want %s", i, published[i].EventType, want)
		}
		if published[i].AggregateID != ticket.ID {
			t.Errorf("event[%d] aggregate = %s, want %s", i, published[i].AggregateID, ticket.ID)
		}
	}

	stored, err := f.store.EventsForAggregate(ctx, ticket.ID, 0)
	if err != nil {
		t.Fatalf("EventsForAggregate: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored = %d events, want 3", len(stored))
	}
	for i, event := range stored {
		if event.Sequence != int64(i+1) {
			t.Errorf("sequence[%d] = %d, want %d", i, event.Sequence, i+1)
		}
	}

	payload, ok := published[2].Payload.(events.TicketClosedPayload)
	if !ok {
		t.Fatalf("closed payload type = %T", published[2].Payload)
	}
	if !payload.WithinSLA {
		t.Error("closed immediately, want WithinSLA = true")
	}
	if payload.ClosedByID != "tech-1" {
		t.Errorf("closed_by = %s, want tech-1", payload.ClosedByID)
	}
}

func TestCloseBeforeAssignRejectedWithoutEvents(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	ticket := f.createTicket(t, "")
	before := len(f.publisher.Events())

	_, err := f.service.CloseTicket(ctx, CloseTicketInput{TicketID: ticket.ID, ClosedByID: "user-1"})
	var violation *domain.BusinessRuleViolation
	if !errors.As(err, &violation) || violation.Rule != domain.RuleAssignmentRequired {
		t.Fatalf("err = %v, want rule %s", err, domain.RuleAssignmentRequired)
	}

	if got := len(f.publisher.Events()); got != before {
		t.Errorf("published = %d events after failed close, want %d", got, before)
	}
	stored, _ := f.store.EventsForAggregate(ctx, ticket.ID, 0)
	if len(stored) != 1 {
		t.Errorf("stored = %d events, want only the creation event", len(stored))
	}

	current, err := f.service.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if current.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s after failed close, want %s", current.Status, domain.TicketStatusOpen)
	}
}

func TestCreateTicketValidationFailureLeavesNoTrace(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	_, err := f.service.CreateTicket(ctx, CreateTicketInput{
		Title:       "ab",
		Description: "Valid enough description text.",
		CreatorID:   "user-1",
	})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Field != "title" {
		t.Fatalf("err = %v, want ValidationError on title", err)
	}

	count, err := f.repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if len(f.publisher.Events()) != 0 {
		t.Errorf("published = %d events, want 0", len(f.publisher.Events()))
	}
}

func TestCreateTicketRejectsUnknownPriority(t *testing.T) {
	f := newServiceFixture()
	_, err := f.service.CreateTicket(context.Background(), CreateTicketInput{
		Title:       "Valid title",
		Description: "Valid enough description text.",
		CreatorID:   "user-1",
		Priority:    "EXTREME",
	})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Field != "priority" {
		t.Fatalf("err = %v, want ValidationError on priority", err)
	}
}

func TestReopenEmitsEventAndClearsAssignee(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	ticket := f.createTicket(t, "medium")
	if _, err := f.service.AssignTicket(ctx, AssignTicketInput{TicketID: ticket.ID, TechnicianID: "tech-1"}); err != nil {
		t.Fatalf("AssignTicket: %v", err)
	}
	if _, err := f.service.CloseTicket(ctx, CloseTicketInput{TicketID: ticket.ID, ClosedByID: "tech-1"}); err != nil {
		t.Fatalf("CloseTicket: %v", err)
	}

	reason := "issue came back"
	reopened, err := f.service.ReopenTicket(ctx, ReopenTicketInput{TicketID: ticket.ID, ReopenedByID: "user-1", Reason: &reason})
	if err != nil {
		t.Fatalf("ReopenTicket: %v", err)
	}
	if reopened.Status != domain.TicketStatusOpen || reopened.AssigneeID != nil {
		t.Errorf("reopened = %s/%v, want OPEN with no assignee", reopened.Status, reopened.AssigneeID)
	}

	published := f.publisher.Events()
	last := published[len(published)-1]
	if last.EventType != events.EventTicketReopened {
		t.Errorf("last event = %s, want %s", last.EventType, events.EventTicketReopened)
	}
	payload, ok := last.Payload.(events.TicketReopenedPayload)
	if !ok || payload.Reason == nil || *payload.Reason != reason {
		t.Errorf("reopen payload = %+v", last.Payload)
	}
}

func TestChangePriorityEmitsOldAndNew(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	ticket := f.createTicket(t, "low")
	updated, err := f.service.ChangeTicketPriority(ctx, ChangePriorityInput{
		TicketID:    ticket.ID,
		NewPriority: "critical",
		ChangedByID: "agent-1",
	})
	if err != nil {
		t.Fatalf("ChangeTicketPriority: %v", err)
	}
	if updated.Priority != domain.TicketPriorityCritical {
		t.Errorf("priority = %s, want %s", updated.Priority, domain.TicketPriorityCritical)
	}
	wantDeadline := updated.CreatedAt.Add(domain.SLADuration(domain.TicketPriorityCritical))
	if !updated.SLADeadline.Equal(wantDeadline) {
		t.Errorf("sla deadline = %v, want %v", updated.SLADeadline, wantDeadline)
	}

	published := f.publisher.Events()
	payload, ok := published[len(published)-1].Payload.(events.TicketPriorityChangedPayload)
	if !ok {
		t.Fatalf("payload type = %T", published[len(published)-1].Payload)
	}
	if payload.OldPriority != domain.TicketPriorityLow || payload.NewPriority != domain.TicketPriorityCritical {
		t.Errorf("payload priorities = %s -> %s", payload.OldPriority, payload.NewPriority)
	}
}

func TestOperationsOnMissingTicket(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	var notFound *domain.EntityNotFound
	if _, err := f.service.GetTicket(ctx, "missing"); !errors.As(err, &notFound) {
		t.Errorf("GetTicket err = %v, want EntityNotFound", err)
	}
	if _, err := f.service.AssignTicket(ctx, AssignTicketInput{TicketID: "missing", TechnicianID: "tech-1"}); !errors.As(err, &notFound) {
		t.Errorf("AssignTicket err = %v, want EntityNotFound", err)
	}
	if _, err := f.service.CloseTicket(ctx, CloseTicketInput{TicketID: "missing", ClosedByID: "x"}); !errors.As(err, &notFound) {
		t.Errorf("CloseTicket err = %v, want EntityNotFound", err)
	}
}

func TestChangeStatusFollowsStateMachine(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	ticket := f.createTicket(t, "")

	updated, err := f.service.ChangeTicketStatus(ctx, ticket.ID, "waiting_on_customer")
	if err != nil {
		t.Fatalf("ChangeTicketStatus: %v", err)
	}
	if updated.Status != domain.TicketStatusWaitingCustomer {
		t.Errorf("status = %s, want %s", updated.Status, domain.TicketStatusWaitingCustomer)
	}

	_, err = f.service.ChangeTicketStatus(ctx, ticket.ID, "closed")
	var violation *domain.BusinessRuleViolation
	if !errors.As(err, &violation) || violation.Rule != domain.RuleInvalidTransition {
		t.Errorf("err = %v, want rule %s", err, domain.RuleInvalidTransition)
	}

	if _, err := f.service.ChangeTicketStatus(ctx, ticket.ID, "destroyed"); err == nil {
		t.Error("unknown status accepted")
	}
}

func TestTagOperations(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	ticket := f.createTicket(t, "")
	before := len(f.publisher.Events())

	tagged, err := f.service.AddTag(ctx, ticket.ID, " Network ")
	if err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	if len(tagged.Tags) != 1 || tagged.Tags[0] != "network" {
		t.Errorf("tags = %v, want [network]", tagged.Tags)
	}

	untagged, err := f.service.RemoveTag(ctx, ticket.ID, "network")
	if err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	if len(untagged.Tags) != 0 {
		t.Errorf("tags = %v after removal", untagged.Tags)
	}

	// Tag changes persist without emitting events.
	if got := len(f.publisher.Events()); got != before {
		t.Errorf("published = %d events after tag changes, want %d", got, before)
	}
	stored, err := f.service.GetTicket(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if len(stored.Tags) != 0 {
		t.Errorf("stored tags = %v", stored.Tags)
	}
}

func TestListAndCount(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	first := f.createTicket(t, "high")
	f.createTicket(t, "low")
	if _, err := f.service.AssignTicket(ctx, AssignTicketInput{TicketID: first.ID, TechnicianID: "tech-1"}); err != nil {
		t.Fatalf("AssignTicket: %v", err)
	}

	status := "in_progress"
	inProgress, err := f.service.ListTickets(ctx, ListTicketsInput{Status: &status})
	if err != nil {
		t.Fatalf("ListTickets: %v", err)
	}
	if len(inProgress) != 1 || inProgress[0].ID != first.ID {
		t.Errorf("in-progress list = %d tickets", len(inProgress))
	}

	bogus := "destroyed"
	if _, err := f.service.ListTickets(ctx, ListTicketsInput{Status: &bogus}); err == nil {
		t.Error("ListTickets accepted unknown status")
	}

	stats, err := f.service.CountTickets(ctx)
	if err != nil {
		t.Fatalf("CountTickets: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.ByStatus[domain.TicketStatusOpen] != 1 || stats.ByStatus[domain.TicketStatusInProgress] != 1 {
		t.Errorf("by status = %v", stats.ByStatus)
	}
	if _, ok := stats.ByStatus[domain.TicketStatusClosed]; !ok {
		t.Error("by-status map missing zero-count entry for CLOSED")
	}
}
