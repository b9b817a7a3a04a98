package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/techsupport-manager/internal/api/dto"
	"github.com/spec-kit/techsupport-manager/internal/auth"
	"github.com/spec-kit/techsupport-manager/internal/domain"
	"github.com/spec-kit/techsupport-manager/internal/service"
	"github.com/spec-kit/techsupport-manager/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewBadRequest("invalid payload")
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		CreatorID:   principal.Account.ID,
		Priority:    req.Priority,
		Category:    req.Category,
		Tags:        req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket, time.Now())})
}

// List GET /tickets. End users see only their own tickets; agents and admins
// see everything and may filter by creator or assignee.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}

	input := service.ListTicketsInput{}
	if status := c.Query("status"); status != "" {
		input.Status = &status
	}
	if search := c.Query("search"); search != "" {
		input.SearchTerm = &search
	}
	if principal.Role == domain.RoleUser {
		creatorID := principal.Account.ID
		input.CreatorID = &creatorID
	} else {
		if creator := c.Query("creator_id"); creator != "" {
			input.CreatorID = &creator
		}
		if assignee := c.Query("assignee_id"); assignee != "" {
			input.AssigneeID = &assignee
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	input.Offset = (page - 1) * pageSize
	input.Limit = pageSize

	tickets, err := h.service.ListTickets(c.UserContext(), input)
	if err != nil {
		return err
	}
	now := time.Now()
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.TicketFromDomain(&tickets[i], now))
	}
	return c.JSON(fiber.Map{"data": items, "page": page, "page_size": pageSize})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if principal.Role == domain.RoleUser && ticket.CreatorID != principal.Account.ID {
		return util.NewForbidden("ticket belongs to another account")
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket, time.Now())})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewBadRequest("invalid payload")
	}
	if req.TechnicianID == "" {
		return domain.NewValidationError("technician_id", "technician_id is required")
	}

	assignedBy := principal.Account.ID
	ticket, err := h.service.AssignTicket(c.UserContext(), service.AssignTicketInput{
		TicketID:     c.Params("id"),
		TechnicianID: req.TechnicianID,
		AssignedByID: &assignedBy,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket, time.Now())})
}

// Close POST /tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	if principal.Role == domain.RoleUser {
		ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		if ticket.CreatorID != principal.Account.ID {
			return util.NewForbidden("ticket belongs to another account")
		}
	}

	ticket, err := h.service.CloseTicket(c.UserContext(), service.CloseTicketInput{
		TicketID:   c.Params("id"),
		ClosedByID: principal.Account.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket, time.Now())})
}

// Reopen POST /tickets/:id/reopen.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.ReopenTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewBadRequest("invalid payload")
	}
	if principal.Role == domain.RoleUser {
		ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		if ticket.CreatorID != principal.Account.ID {
			return util.NewForbidden("ticket belongs to another account")
		}
	}

	ticket, err := h.service.ReopenTicket(c.UserContext(), service.ReopenTicketInput{
		TicketID:     c.Params("id"),
		ReopenedByID: principal.Account.ID,
		Reason:       req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket, time.Now())})
}

// ChangePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) ChangePriority(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.ChangePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewBadRequest("invalid payload")
	}

	ticket, err := h.service.ChangeTicketPriority(c.UserContext(), service.ChangePriorityInput{
		TicketID:    c.Params("id"),
		NewPriority: req.Priority,
		ChangedByID: principal.Account.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket, time.Now())})
}

// ChangeStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewBadRequest("invalid payload")
	}
	ticket, err := h.service.ChangeTicketStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket, time.Now())})
}

// AddTag POST /tickets/:id/tags.
func (h *TicketsHandler) AddTag(c *fiber.Ctx) error {
	var req dto.TagRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewBadRequest("invalid payload")
	}
	if req.Tag == "" {
		return domain.NewValidationError("tag", "tag is required")
	}
	ticket, err := h.service.AddTag(c.UserContext(), c.Params("id"), req.Tag)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket, time.Now())})
}

// RemoveTag DELETE /tickets/:id/tags/:tag.
func (h *TicketsHandler) RemoveTag(c *fiber.Ctx) error {
	ticket, err := h.service.RemoveTag(c.UserContext(), c.Params("id"), c.Params("tag"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket, time.Now())})
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.CountTickets(c.UserContext())
	if err != nil {
		return err
	}
	byStatus := make(map[string]int64, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}
	return c.JSON(fiber.Map{"data": dto.TicketStatsResponse{Total: stats.Total, ByStatus: byStatus}})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
