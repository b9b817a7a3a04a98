package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusInProgress      TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingCustomer TicketStatus = "WAITING_ON_CUSTOMER"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

// AllStatuses lists every lifecycle state, in rough workflow order.
var AllStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusWaitingCustomer,
	TicketStatusResolved,
	TicketStatusClosed,
}

// ParseStatus converts a string into a TicketStatus.
func ParseStatus(value string) (TicketStatus, error) {
	normalized := TicketStatus(strings.ToUpper(strings.TrimSpace(value)))
	for _, status := range AllStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return "", NewValidationError("status", fmt.Sprintf("unknown status %q", value))
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// AllPriorities lists every priority level from least to most urgent.
var AllPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

// ParsePriority converts a string into a TicketPriority.
func ParsePriority(value string) (TicketPriority, error) {
	normalized := TicketPriority(strings.ToUpper(strings.TrimSpace(value)))
	for _, priority := range AllPriorities {
		if priority == normalized {
			return priority, nil
		}
	}
	return "", NewValidationError("priority", fmt.Sprintf("unknown priority %q", value))
}

// Validation bounds for ticket text fields.
const (
	TitleMinLength       = 3
	TitleMaxLength       = 200
	DescriptionMinLength = 10
	DescriptionMaxLength = 5000
)

// DefaultCategory is applied when a ticket is created without one.
const DefaultCategory = "General"

// Business rule identifiers carried by BusinessRuleViolation errors.
const (
	RuleClosedImmutable     = "closed-is-immutable"
	RuleInvalidTransition   = "invalid-transition"
	RuleAssignmentRequired  = "assignment-required"
	RuleAlreadyClosed       = "already-closed"
	RuleOnlyClosedCanReopen = "only-closed-can-reopen"
)

// Ticket is the aggregate root for support requests. All mutations go through
// its methods; invariants hold after every successful call.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Category    string
	Status      TicketStatus
	Priority    TicketPriority
	CreatorID   string
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SLADeadline time.Time
	Tags        []string
}

// allowedTransitions defines the status state machine. Closed→Open is the
// reopen path and is reachable only through Reopen.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:            {TicketStatusInProgress, TicketStatusWaitingCustomer},
	TicketStatusInProgress:      {TicketStatusWaitingCustomer, TicketStatusResolved},
	TicketStatusWaitingCustomer: {TicketStatusInProgress, TicketStatusResolved},
	TicketStatusResolved:        {TicketStatusClosed, TicketStatusInProgress},
	TicketStatusClosed:          {TicketStatusOpen},
}

// NewTicket validates input and constructs an Open ticket with its SLA
// deadline derived from the priority. Empty priority defaults to Medium,
// empty category to DefaultCategory.
func NewTicket(title, description, creatorID string, priority TicketPriority, category string, tags []string) (*Ticket, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	category = strings.TrimSpace(category)

	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if creatorID == "" {
		return nil, NewValidationError("creator_id", "creator is required")
	}
	if priority == "" {
		priority = TicketPriorityMedium
	}
	if category == "" {
		category = DefaultCategory
	}

	now := time.Now()
	ticket := &Ticket{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Category:    category,
		Status:      TicketStatusOpen,
		Priority:    priority,
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
		SLADeadline: SLADeadline(now, priority),
	}
	for _, tag := range tags {
		ticket.addTag(tag)
	}
	return ticket, nil
}

func validateTitle(title string) error {
	if title == "" {
		return NewValidationError("title", "title is required")
	}
	length := utf8.RuneCountInString(title)
	if length < TitleMinLength {
		return NewValidationError("title", fmt.Sprintf("title must be at least %d characters", TitleMinLength))
	}
	if length > TitleMaxLength {
		return NewValidationError("title", fmt.Sprintf("title must be at most %d characters", TitleMaxLength))
	}
	return nil
}

func validateDescription(description string) error {
	if description == "" {
		return NewValidationError("description", "description is required")
	}
	length := utf8.RuneCountInString(description)
	if length < DescriptionMinLength {
		return NewValidationError("description", fmt.Sprintf("description must be at least %d characters", DescriptionMinLength))
	}
	if length > DescriptionMaxLength {
		return NewValidationError("description", fmt.Sprintf("description must be at most %d characters", DescriptionMaxLength))
	}
	return nil
}

// Assign hands the ticket to a technician and forces the status to
// InProgress, regardless of the current non-closed status.
func (t *Ticket) Assign(technicianID string) error {
	if technicianID == "" {
		return NewValidationError("technician_id", "technician is required")
	}
	if t.Status == TicketStatusClosed {
		return NewBusinessRuleViolation(RuleClosedImmutable, "cannot assign a closed ticket")
	}
	t.AssigneeID = &technicianID
	t.Status = TicketStatusInProgress
	t.touch()
	return nil
}

// ChangeStatus moves the ticket to the target status if the transition table
// allows it.
func (t *Ticket) ChangeStatus(next TicketStatus) error {
	if !transitionAllowed(t.Status, next) {
		return NewBusinessRuleViolation(RuleInvalidTransition,
			fmt.Sprintf("transition from %s to %s is not permitted", t.Status, next))
	}
	t.Status = next
	t.touch()
	return nil
}

func transitionAllowed(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Close marks the ticket resolved for good. Closing requires a prior
// assignment and is rejected when already closed.
func (t *Ticket) Close() error {
	if t.AssigneeID == nil {
		return NewBusinessRuleViolation(RuleAssignmentRequired, "ticket must be assigned before it can be closed")
	}
	if t.Status == TicketStatusClosed {
		return NewBusinessRuleViolation(RuleAlreadyClosed, "ticket is already closed")
	}
	t.Status = TicketStatusClosed
	t.touch()
	return nil
}

// Reopen returns a closed ticket to Open and clears the assignment.
func (t *Ticket) Reopen() error {
	if t.Status != TicketStatusClosed {
		return NewBusinessRuleViolation(RuleOnlyClosedCanReopen, "only closed tickets can be reopened")
	}
	t.Status = TicketStatusOpen
	t.AssigneeID = nil
	t.touch()
	return nil
}

// ChangePriority escalates or downgrades the ticket and recomputes the SLA
// deadline from the creation time.
func (t *Ticket) ChangePriority(priority TicketPriority) error {
	if t.Status == TicketStatusClosed {
		return NewBusinessRuleViolation(RuleClosedImmutable, "cannot change priority of a closed ticket")
	}
	t.Priority = priority
	t.SLADeadline = SLADeadline(t.CreatedAt, priority)
	t.touch()
	return nil
}

// AddTag normalizes and records a tag. Adding an existing tag is a no-op.
func (t *Ticket) AddTag(tag string) {
	if t.addTag(tag) {
		t.touch()
	}
}

func (t *Ticket) addTag(tag string) bool {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if normalized == "" {
		return false
	}
	for _, existing := range t.Tags {
		if existing == normalized {
			return false
		}
	}
	t.Tags = append(t.Tags, normalized)
	return true
}

// RemoveTag drops a tag if present.
func (t *Ticket) RemoveTag(tag string) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	for i, existing := range t.Tags {
		if existing == normalized {
			t.Tags = append(t.Tags[:i], t.Tags[i+1:]...)
			t.touch()
			return
		}
	}
}

// IsAssigned reports whether a technician is responsible for the ticket.
func (t *Ticket) IsAssigned() bool {
	return t.AssigneeID != nil
}

// IsOverdue reports whether the SLA deadline has passed for a ticket that is
// still open.
func (t *Ticket) IsOverdue() bool {
	return t.IsOverdueAt(time.Now())
}

// IsOverdueAt is IsOverdue evaluated against an explicit clock reading.
// Closed tickets are never overdue.
func (t *Ticket) IsOverdueAt(now time.Time) bool {
	if t.SLADeadline.IsZero() || t.Status == TicketStatusClosed {
		return false
	}
	return now.After(t.SLADeadline)
}

// RemainingSLA returns the time left until the deadline. The second return
// is false for closed tickets or tickets without a deadline.
func (t *Ticket) RemainingSLA() (time.Duration, bool) {
	return t.RemainingSLAAt(time.Now())
}

// RemainingSLAAt is RemainingSLA evaluated against an explicit clock reading.
// The duration is negative once the ticket is overdue.
func (t *Ticket) RemainingSLAAt(now time.Time) (time.Duration, bool) {
	if t.SLADeadline.IsZero() || t.Status == TicketStatusClosed {
		return 0, false
	}
	return t.SLADeadline.Sub(now), true
}

// Equal implements entity identity: two tickets are the same iff IDs match.
func (t *Ticket) Equal(other *Ticket) bool {
	return other != nil && t.ID == other.ID
}

func (t *Ticket) touch() {
	t.UpdatedAt = time.Now()
}
