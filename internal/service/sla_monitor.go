package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/techsupport-manager/internal/events"
	"github.com/spec-kit/techsupport-manager/internal/repository"
)

// SLAMonitor scans for tickets past their SLA deadline and publishes
// ticket_sla_violated events. Detection is a read-side concern: no ticket
// state changes, so no unit of work is involved.
type SLAMonitor struct {
	tickets   repository.TicketRepository
	publisher events.Publisher
	logger    *zap.Logger

	mu       sync.Mutex
	notified map[string]struct{}
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(tickets repository.TicketRepository, publisher events.Publisher, logger *zap.Logger) *SLAMonitor {
	return &SLAMonitor{
		tickets:   tickets,
		publisher: publisher,
		logger:    logger,
		notified:  make(map[string]struct{}),
	}
}

// Scan publishes a violation event for every overdue ticket not already
// reported by this monitor instance. Returns the number of new violations.
func (m *SLAMonitor) Scan(ctx context.Context) (int, error) {
	now := time.Now()
	overdue, err := m.tickets.ListWithFilter(ctx, repository.TicketFilter{OverdueAsOf: &now})
	if err != nil {
		return 0, err
	}

	violations := 0
	for i := range overdue {
		ticket := &overdue[i]
		if !m.markNotified(ticket.ID) {
			continue
		}
		event := events.NewTicketSLAViolated(ticket, now)
		if err := m.publisher.Publish(ctx, event); err != nil {
			m.logger.Error("sla violation publish failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			m.unmarkNotified(ticket.ID)
			continue
		}
		violations++
		m.logger.Warn("sla deadline exceeded",
			zap.String("ticket_id", ticket.ID),
			zap.Time("deadline", ticket.SLADeadline),
			zap.String("priority", string(ticket.Priority)))
	}
	return violations, nil
}

func (m *SLAMonitor) markNotified(ticketID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, seen := m.notified[ticketID]; seen {
		return false
	}
	m.notified[ticketID] = struct{}{}
	return true
}

func (m *SLAMonitor) unmarkNotified(ticketID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notified, ticketID)
}
