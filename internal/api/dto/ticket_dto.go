package dto

import (
	"time"

	"github.com/spec-kit/techsupport-manager/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	TechnicianID string `json:"technician_id"`
}

// ReopenTicketRequest payload.
type ReopenTicketRequest struct {
	Reason *string `json:"reason"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// TagRequest payload.
type TagRequest struct {
	Tag string `json:"tag"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	Priority string `json:"priority"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	CreatorID   string                `json:"creator_id"`
	AssigneeID  *string               `json:"assignee_id"`
	Tags        []string              `json:"tags"`
	SLADeadline time.Time             `json:"sla_deadline"`
	Overdue     bool                  `json:"overdue"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TicketStatsResponse aggregates counts for the dashboard endpoint.
type TicketStatsResponse struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// TicketFromDomain converts an aggregate to its response shape.
func TicketFromDomain(ticket *domain.Ticket, now time.Time) TicketResponse {
	tags := ticket.Tags
	if tags == nil {
		tags = []string{}
	}
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Category:    ticket.Category,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		CreatorID:   ticket.CreatorID,
		AssigneeID:  ticket.AssigneeID,
		Tags:        tags,
		SLADeadline: ticket.SLADeadline,
		Overdue:     ticket.IsOverdueAt(now),
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}
