package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/techsupport-manager/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketClosed          EventType = "ticket_closed"
	EventTicketReopened        EventType = "ticket_reopened"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketSLAViolated     EventType = "ticket_sla_violated"
)

// AggregateTypeTicket tags events originating from the Ticket aggregate.
const AggregateTypeTicket = "Ticket"

// SchemaVersion is the current payload schema version stamped on new events.
const SchemaVersion = 1

// Event is an immutable record of a business fact. OccurredAt reflects the
// moment of the fact, not of persistence or delivery.
type Event struct {
	EventID       string    `json:"event_id"`
	AggregateID   string    `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	EventType     EventType `json:"event_type"`
	OccurredAt    time.Time `json:"occurred_at"`
	SchemaVersion int       `json:"schema_version"`
	Payload       any       `json:"payload"`
}

func newEvent(aggregateID string, eventType EventType, payload any) Event {
	return Event{
		EventID:       uuid.NewString(),
		AggregateID:   aggregateID,
		AggregateType: AggregateTypeTicket,
		EventType:     eventType,
		OccurredAt:    time.Now(),
		SchemaVersion: SchemaVersion,
		Payload:       payload,
	}
}

// TicketCreatedPayload carries the creation facts.
type TicketCreatedPayload struct {
	CreatorID string                `json:"creator_id"`
	Title     string                `json:"title"`
	Priority  domain.TicketPriority `json:"priority"`
	Category  string                `json:"category"`
}

// NewTicketCreated builds the event for a freshly created ticket.
func NewTicketCreated(ticket *domain.Ticket) Event {
	return newEvent(ticket.ID, EventTicketCreated, TicketCreatedPayload{
		CreatorID: ticket.CreatorID,
		Title:     ticket.Title,
		Priority:  ticket.Priority,
		Category:  ticket.Category,
	})
}

// TicketAssignedPayload carries the assignment facts.
type TicketAssignedPayload struct {
	TechnicianID string  `json:"technician_id"`
	AssignedByID *string `json:"assigned_by_id,omitempty"`
}

// NewTicketAssigned builds the event for a ticket handed to a technician.
func NewTicketAssigned(ticketID, technicianID string, assignedByID *string) Event {
	return newEvent(ticketID, EventTicketAssigned, TicketAssignedPayload{
		TechnicianID: technicianID,
		AssignedByID: assignedByID,
	})
}

// TicketClosedPayload carries the closure facts, including resolution
// metrics computed at close time.
type TicketClosedPayload struct {
	ClosedByID      string  `json:"closed_by_id"`
	ResolutionHours float64 `json:"resolution_hours"`
	WithinSLA       bool    `json:"within_sla"`
}

// NewTicketClosed builds the event for a closed ticket.
func NewTicketClosed(ticketID, closedByID string, resolutionHours float64, withinSLA bool) Event {
	return newEvent(ticketID, EventTicketClosed, TicketClosedPayload{
		ClosedByID:      closedByID,
		ResolutionHours: resolutionHours,
		WithinSLA:       withinSLA,
	})
}

// TicketReopenedPayload carries the reopen facts.
type TicketReopenedPayload struct {
	ReopenedByID string  `json:"reopened_by_id"`
	Reason       *string `json:"reason,omitempty"`
}

// NewTicketReopened builds the event for a reopened ticket.
func NewTicketReopened(ticketID, reopenedByID string, reason *string) Event {
	return newEvent(ticketID, EventTicketReopened, TicketReopenedPayload{
		ReopenedByID: reopenedByID,
		Reason:       reason,
	})
}

// TicketPriorityChangedPayload carries the old and new priority.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
	ChangedByID string                `json:"changed_by_id"`
}

// NewTicketPriorityChanged builds the event for a priority change.
func NewTicketPriorityChanged(ticketID string, oldPriority, newPriority domain.TicketPriority, changedByID string) Event {
	return newEvent(ticketID, EventTicketPriorityChanged, TicketPriorityChangedPayload{
		OldPriority: oldPriority,
		NewPriority: newPriority,
		ChangedByID: changedByID,
	})
}

// TicketSLAViolatedPayload carries the facts of a blown deadline.
type TicketSLAViolatedPayload struct {
	Deadline     time.Time `json:"deadline"`
	HoursOverdue float64   `json:"hours_overdue"`
	AssigneeID   *string   `json:"assignee_id,omitempty"`
}

// NewTicketSLAViolated builds the event for a ticket past its deadline.
func NewTicketSLAViolated(ticket *domain.Ticket, now time.Time) Event {
	return newEvent(ticket.ID, EventTicketSLAViolated, TicketSLAViolatedPayload{
		Deadline:     ticket.SLADeadline,
		HoursOverdue: now.Sub(ticket.SLADeadline).Hours(),
		AssigneeID:   ticket.AssigneeID,
	})
}
