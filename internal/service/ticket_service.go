package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/techsupport-manager/internal/domain"
	"github.com/spec-kit/techsupport-manager/internal/events"
	"github.com/spec-kit/techsupport-manager/internal/repository"
	"github.com/spec-kit/techsupport-manager/internal/uow"
)

// TicketService orchestrates ticket use cases. Each mutating method runs a
// single unit-of-work scope: load or construct the aggregate, apply the
// operation, save, enqueue the event, commit. Domain errors propagate to the
// caller untranslated.
type TicketService struct {
	tickets repository.TicketRepository
	uow     uow.Factory
	logger  *zap.Logger
}

// TicketDependencies bundles the service's collaborators.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UnitOfWork uow.Factory
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets: deps.TicketRepo,
		uow:     deps.UnitOfWork,
		logger:  deps.Logger,
	}
}

// CreateTicketInput describes the creation payload. Priority is optional and
// defaults to Medium; Category defaults to "General".
type CreateTicketInput struct {
	Title       string
	Description string
	CreatorID   string
	Priority    string
	Category    string
	Tags        []string
}

// CreateTicket validates input, constructs the aggregate and persists it
// together with a ticket_created event.
func (s *TicketService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	var priority domain.TicketPriority
	if input.Priority != "" {
		parsed, err := domain.ParsePriority(input.Priority)
		if err != nil {
			return nil, err
		}
		priority = parsed
	}

	ticket, err := domain.NewTicket(input.Title, input.Description, input.CreatorID, priority, input.Category, input.Tags)
	if err != nil {
		return nil, err
	}

	txCtx, u, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback(txCtx) //nolint:errcheck

	if err := s.tickets.Save(txCtx, ticket); err != nil {
		return nil, err
	}
	u.Enqueue(events.NewTicketCreated(ticket))
	if err := u.Commit(txCtx); err != nil {
		return nil, err
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("priority", string(ticket.Priority)))
	return ticket, nil
}

// AssignTicketInput describes the assignment payload.
type AssignTicketInput struct {
	TicketID     string
	TechnicianID string
	AssignedByID *string
}

// AssignTicket hands a ticket to a technician.
func (s *TicketService) AssignTicket(ctx context.Context, input AssignTicketInput) (*domain.Ticket, error) {
	txCtx, u, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback(txCtx) //nolint:errcheck

	ticket, err := s.tickets.GetByID(txCtx, input.TicketID)
	if err != nil {
		return nil, err
	}
	if err := ticket.Assign(input.TechnicianID); err != nil {
		return nil, err
	}
	if err := s.tickets.Save(txCtx, ticket); err != nil {
		return nil, err
	}
	u.Enqueue(events.NewTicketAssigned(ticket.ID, input.TechnicianID, input.AssignedByID))
	if err := u.Commit(txCtx); err != nil {
		return nil, err
	}

	s.logger.Info("ticket assigned",
		zap.String("ticket_id", ticket.ID),
		zap.String("technician_id", input.TechnicianID))
	return ticket, nil
}

// CloseTicketInput describes the closure payload.
type CloseTicketInput struct {
	TicketID   string
	ClosedByID string
}

// CloseTicket closes a ticket, attaching resolution time and SLA compliance
// to the event payload. Both metrics are measured before the close mutation.
func (s *TicketService) CloseTicket(ctx context.Context, input CloseTicketInput) (*domain.Ticket, error) {
	txCtx, u, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback(txCtx) //nolint:errcheck

	ticket, err := s.tickets.GetByID(txCtx, input.TicketID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	resolutionHours := now.Sub(ticket.CreatedAt).Hours()
	withinSLA := !ticket.IsOverdueAt(now)

	if err := ticket.Close(); err != nil {
		return nil, err
	}
	if err := s.tickets.Save(txCtx, ticket); err != nil {
		return nil, err
	}
	u.Enqueue(events.NewTicketClosed(ticket.ID, input.ClosedByID, resolutionHours, withinSLA))
	if err := u.Commit(txCtx); err != nil {
		return nil, err
	}

	s.logger.Info("ticket closed",
		zap.String("ticket_id", ticket.ID),
		zap.Float64("resolution_hours", resolutionHours),
		zap.Bool("within_sla", withinSLA))
	return ticket, nil
}

// ReopenTicketInput describes the reopen payload.
type ReopenTicketInput struct {
	TicketID     string
	ReopenedByID string
	Reason       *string
}

// ReopenTicket returns a closed ticket to the Open state.
func (s *TicketService) ReopenTicket(ctx context.Context, input ReopenTicketInput) (*domain.Ticket, error) {
	txCtx, u, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback(txCtx) //nolint:errcheck

	ticket, err := s.tickets.GetByID(txCtx, input.TicketID)
	if err != nil {
		return nil, err
	}
	if err := ticket.Reopen(); err != nil {
		return nil, err
	}
	if err := s.tickets.Save(txCtx, ticket); err != nil {
		return nil, err
	}
	u.Enqueue(events.NewTicketReopened(ticket.ID, input.ReopenedByID, input.Reason))
	if err := u.Commit(txCtx); err != nil {
		return nil, err
	}

	s.logger.Info("ticket reopened", zap.String("ticket_id", ticket.ID))
	return ticket, nil
}

// ChangePriorityInput describes the priority-change payload.
type ChangePriorityInput struct {
	TicketID    string
	NewPriority string
	ChangedByID string
}

// ChangeTicketPriority updates the priority and recomputed SLA deadline.
func (s *TicketService) ChangeTicketPriority(ctx context.Context, input ChangePriorityInput) (*domain.Ticket, error) {
	newPriority, err := domain.ParsePriority(input.NewPriority)
	if err != nil {
		return nil, err
	}

	txCtx, u, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback(txCtx) //nolint:errcheck

	ticket, err := s.tickets.GetByID(txCtx, input.TicketID)
	if err != nil {
		return nil, err
	}
	oldPriority := ticket.Priority
	if err := ticket.ChangePriority(newPriority); err != nil {
		return nil, err
	}
	if err := s.tickets.Save(txCtx, ticket); err != nil {
		return nil, err
	}
	u.Enqueue(events.NewTicketPriorityChanged(ticket.ID, oldPriority, newPriority, input.ChangedByID))
	if err := u.Commit(txCtx); err != nil {
		return nil, err
	}

	s.logger.Info("ticket priority changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("old_priority", string(oldPriority)),
		zap.String("new_priority", string(newPriority)))
	return ticket, nil
}

// ChangeTicketStatus moves a ticket along the workflow state machine. Close
// and Reopen have dedicated operations with their own events; this covers the
// intermediate states (waiting on customer, resolved, back in progress) which
// carry no event of their own.
func (s *TicketService) ChangeTicketStatus(ctx context.Context, ticketID, status string) (*domain.Ticket, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	txCtx, u, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback(txCtx) //nolint:errcheck

	ticket, err := s.tickets.GetByID(txCtx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ticket.ChangeStatus(next); err != nil {
		return nil, err
	}
	if err := s.tickets.Save(txCtx, ticket); err != nil {
		return nil, err
	}
	if err := u.Commit(txCtx); err != nil {
		return nil, err
	}

	s.logger.Info("ticket status changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("status", string(next)))
	return ticket, nil
}

// AddTag attaches a tag to a ticket. Tag changes are not event-worthy; the
// write still runs in a unit-of-work scope for transactional consistency.
func (s *TicketService) AddTag(ctx context.Context, ticketID, tag string) (*domain.Ticket, error) {
	return s.updateTags(ctx, ticketID, func(t *domain.Ticket) { t.AddTag(tag) })
}

// RemoveTag detaches a tag from a ticket.
func (s *TicketService) RemoveTag(ctx context.Context, ticketID, tag string) (*domain.Ticket, error) {
	return s.updateTags(ctx, ticketID, func(t *domain.Ticket) { t.RemoveTag(tag) })
}

func (s *TicketService) updateTags(ctx context.Context, ticketID string, mutate func(*domain.Ticket)) (*domain.Ticket, error) {
	txCtx, u, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback(txCtx) //nolint:errcheck

	ticket, err := s.tickets.GetByID(txCtx, ticketID)
	if err != nil {
		return nil, err
	}
	mutate(ticket)
	if err := s.tickets.Save(txCtx, ticket); err != nil {
		return nil, err
	}
	if err := u.Commit(txCtx); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListTicketsInput describes optional listing filters.
type ListTicketsInput struct {
	Status     *string
	CreatorID  *string
	AssigneeID *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// ListTickets returns tickets matching the filters. Read-only: no unit of
// work, no events.
func (s *TicketService) ListTickets(ctx context.Context, input ListTicketsInput) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		CreatorID:  input.CreatorID,
		AssigneeID: input.AssigneeID,
		SearchTerm: input.SearchTerm,
		Limit:      input.Limit,
		Offset:     input.Offset,
	}
	if input.Status != nil {
		status, err := domain.ParseStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		filter.Statuses = []domain.TicketStatus{status}
	}
	return s.tickets.ListWithFilter(ctx, filter)
}

// GetTicket fetches a single ticket by ID.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// TicketStats aggregates ticket counts.
type TicketStats struct {
	Total    int64                         `json:"total"`
	ByStatus map[domain.TicketStatus]int64 `json:"by_status"`
}

// CountTickets returns the total and per-status counts.
func (s *TicketService) CountTickets(ctx context.Context) (*TicketStats, error) {
	total, err := s.tickets.Count(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &TicketStats{Total: total, ByStatus: byStatus}, nil
}
