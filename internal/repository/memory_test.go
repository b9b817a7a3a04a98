package repository

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/techsupport-manager/internal/domain"
)

func saveTicket(t *testing.T, repo *MemoryTicketRepository, title, creatorID string, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := domain.NewTicket(title, "Description with enough characters.", creatorID, priority, "", nil)
	if err != nil {
		t.Fatalf("NewTicket: %v", err)
	}
	if err := repo.Save(context.Background(), ticket); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return ticket
}

func TestMemoryRepositoryIsolatesStoredState(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	ticket := saveTicket(t, repo, "Broken keyboard", "user-1", domain.TicketPriorityLow)

	// Mutating the aggregate after Save must not leak into the store.
	if err := ticket.Assign("tech-1"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	ticket.AddTag("hardware")

	stored, err := repo.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.AssigneeID != nil {
		t.Error("assignment leaked into stored copy")
	}
	if len(stored.Tags) != 0 {
		t.Errorf("tags leaked into stored copy: %v", stored.Tags)
	}

	// And mutating a fetched copy must not change the store either.
	stored.Title = "Tampered"
	again, _ := repo.GetByID(ctx, ticket.ID)
	if again.Title != "Broken keyboard" {
		t.Errorf("title = %q after tampering with a fetched copy", again.Title)
	}
}

func TestMemoryRepositoryFilters(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	a := saveTicket(t, repo, "VPN issues at home office", "user-1", domain.TicketPriorityHigh)
	b := saveTicket(t, repo, "Printer out of toner", "user-2", domain.TicketPriorityLow)
	if err := b.Assign("tech-9"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := repo.Save(ctx, b); err != nil {
		t.Fatalf("Save: %v", err)
	}

	creator := "user-1"
	byCreator, err := repo.ListWithFilter(ctx, TicketFilter{CreatorID: &creator})
	if err != nil {
		t.Fatalf("ListWithFilter: %v", err)
	}
	if len(byCreator) != 1 || byCreator[0].ID != a.ID {
		t.Errorf("by creator = %d tickets", len(byCreator))
	}

	assignee := "tech-9"
	byAssignee, err := repo.ListWithFilter(ctx, TicketFilter{AssigneeID: &assignee})
	if err != nil {
		t.Fatalf("ListWithFilter: %v", err)
	}
	if len(byAssignee) != 1 || byAssignee[0].ID != b.ID {
		t.Errorf("by assignee = %d tickets", len(byAssignee))
	}

	search := "toner"
	bySearch, err := repo.ListWithFilter(ctx, TicketFilter{SearchTerm: &search})
	if err != nil {
		t.Fatalf("ListWithFilter: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].ID != b.ID {
		t.Errorf("by search = %d tickets", len(bySearch))
	}

	byStatus, err := repo.ListByStatus(ctx, domain.TicketStatusInProgress)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != b.ID {
		t.Errorf("by status = %d tickets", len(byStatus))
	}

	now := time.Now()
	overdue, err := repo.ListWithFilter(ctx, TicketFilter{OverdueAsOf: &now})
	if err != nil {
		t.Fatalf("ListWithFilter: %v", err)
	}
	if len(overdue) != 0 {
		t.Errorf("overdue = %d tickets, want 0", len(overdue))
	}
}

func TestMemoryRepositoryPagination(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		saveTicket(t, repo, "Recurring outage report", "user-1", domain.TicketPriorityMedium)
	}

	page, err := repo.ListWithFilter(ctx, TicketFilter{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("ListWithFilter: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("page = %d tickets, want 2", len(page))
	}

	tail, err := repo.ListWithFilter(ctx, TicketFilter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("ListWithFilter: %v", err)
	}
	if len(tail) != 1 {
		t.Errorf("tail = %d tickets, want 1", len(tail))
	}

	beyond, err := repo.ListWithFilter(ctx, TicketFilter{Limit: 2, Offset: 10})
	if err != nil {
		t.Fatalf("ListWithFilter: %v", err)
	}
	if len(beyond) != 0 {
		t.Errorf("beyond = %d tickets, want 0", len(beyond))
	}
}

func TestMemoryAccountRepository(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	account := &domain.Account{ID: "acct-1", Email: "eve@example.com", PasswordHash: "x", Role: domain.RoleUser}
	if err := repo.Create(ctx, account); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := &domain.Account{ID: "acct-2", Email: "eve@example.com"}
	if err := repo.Create(ctx, dup); err == nil {
		t.Error("duplicate email accepted")
	}

	byEmail, err := repo.GetByEmail(ctx, "eve@example.com")
	if err != nil || byEmail.ID != "acct-1" {
		t.Errorf("GetByEmail = %v, %v", byEmail, err)
	}
	if _, err := repo.GetByID(ctx, "missing"); err == nil {
		t.Error("GetByID missing account did not error")
	}
}
