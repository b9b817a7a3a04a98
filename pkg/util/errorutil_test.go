package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/spec-kit/techsupport-manager/internal/domain"
)

func TestToHTTPErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"validation", domain.NewValidationError("title", "too short"), "VALIDATION_FAILED", http.StatusBadRequest},
		{"not found", domain.NewEntityNotFound("Ticket", "t-1"), "NOT_FOUND", http.StatusNotFound},
		{"rule violation", domain.NewBusinessRuleViolation(domain.RuleAssignmentRequired, "assign first"), "BUSINESS_RULE_VIOLATION", http.StatusUnprocessableEntity},
		{"conflict", domain.NewConcurrencyConflict("lost the race"), "CONCURRENCY_CONFLICT", http.StatusConflict},
		{"unknown", errors.New("disk on fire"), "INTERNAL_ERROR", http.StatusInternalServerError},
		{"passthrough", NewUnauthorized("no token"), "UNAUTHORIZED", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := ToHTTPError(tt.err)
			if httpErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", httpErr.Code, tt.wantCode)
			}
			if httpErr.HTTPStatus != tt.wantStatus {
				t.Errorf("status = %d, want %d", httpErr.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestToHTTPErrorDetails(t *testing.T) {
	httpErr := ToHTTPError(domain.NewValidationError("priority", "unknown"))
	if httpErr.Details["field"] != "priority" {
		t.Errorf("details = %v, want field=priority", httpErr.Details)
	}

	httpErr = ToHTTPError(domain.NewBusinessRuleViolation(domain.RuleClosedImmutable, "closed"))
	if httpErr.Details["rule"] != domain.RuleClosedImmutable {
		t.Errorf("details = %v, want rule=%s", httpErr.Details, domain.RuleClosedImmutable)
	}
}

func TestToHTTPErrorNil(t *testing.T) {
	if got := ToHTTPError(nil); got != nil {
		t.Errorf("ToHTTPError(nil) = %v, want nil", got)
	}
}

func TestHTTPErrorUnwrap(t *testing.T) {
	cause := domain.NewEntityNotFound("Ticket", "t-1")
	httpErr := ToHTTPError(cause)
	var notFound *domain.EntityNotFound
	if !errors.As(httpErr, &notFound) {
		t.Error("wrapped cause not reachable through errors.As")
	}
}
