package domain

import "fmt"

// ValidationError reports malformed input caught before any state mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError constructs a ValidationError for a named field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// BusinessRuleViolation reports a well-formed request rejected by the
// aggregate's current state.
type BusinessRuleViolation struct {
	Rule    string
	Message string
}

func (e *BusinessRuleViolation) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

// NewBusinessRuleViolation constructs a BusinessRuleViolation for a named rule.
func NewBusinessRuleViolation(rule, message string) *BusinessRuleViolation {
	return &BusinessRuleViolation{Rule: rule, Message: message}
}

// EntityNotFound reports that a referenced aggregate does not exist.
type EntityNotFound struct {
	EntityType string
	ID         string
}

func (e *EntityNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.EntityType, e.ID)
}

// NewEntityNotFound constructs an EntityNotFound error.
func NewEntityNotFound(entityType, id string) *EntityNotFound {
	return &EntityNotFound{EntityType: entityType, ID: id}
}

// ConcurrencyConflict reports a lost optimistic-versioning race. The core
// defines the shape; detection belongs to persistence collaborators.
type ConcurrencyConflict struct {
	Message string
}

func (e *ConcurrencyConflict) Error() string {
	return fmt.Sprintf("concurrency conflict: %s", e.Message)
}

// NewConcurrencyConflict constructs a ConcurrencyConflict error.
func NewConcurrencyConflict(message string) *ConcurrencyConflict {
	return &ConcurrencyConflict{Message: message}
}
