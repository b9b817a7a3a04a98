package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/techsupport-manager/internal/domain"
)

// HTTPError is the transport-facing error shape. The domain never produces
// one; the HTTP layer builds them here from the domain taxonomy.
type HTTPError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewUnauthorized builds a 401 error.
func NewUnauthorized(message string) error {
	return &HTTPError{Code: "UNAUTHORIZED", Message: message, HTTPStatus: http.StatusUnauthorized}
}

// NewForbidden builds a 403 error.
func NewForbidden(message string) error {
	return &HTTPError{Code: "FORBIDDEN", Message: message, HTTPStatus: http.StatusForbidden}
}

// NewBadRequest builds a 400 error for malformed transport payloads.
func NewBadRequest(message string) error {
	return &HTTPError{Code: "BAD_REQUEST", Message: message, HTTPStatus: http.StatusBadRequest}
}

// NewInternalError wraps an unexpected failure as a 500.
func NewInternalError(err error) error {
	return &HTTPError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToHTTPError maps the domain error taxonomy onto HTTP responses:
// ValidationError→400, EntityNotFound→404, BusinessRuleViolation→422,
// ConcurrencyConflict→409, anything unrecognized→500.
func ToHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return &HTTPError{
			Code:       "VALIDATION_FAILED",
			Message:    validation.Message,
			HTTPStatus: http.StatusBadRequest,
			Details:    map[string]any{"field": validation.Field},
			Err:        err,
		}
	}

	var notFound *domain.EntityNotFound
	if errors.As(err, &notFound) {
		return &HTTPError{
			Code:       "NOT_FOUND",
			Message:    notFound.Error(),
			HTTPStatus: http.StatusNotFound,
			Details:    map[string]any{"entity_type": notFound.EntityType, "id": notFound.ID},
			Err:        err,
		}
	}

	var violation *domain.BusinessRuleViolation
	if errors.As(err, &violation) {
		return &HTTPError{
			Code:       "BUSINESS_RULE_VIOLATION",
			Message:    violation.Message,
			HTTPStatus: http.StatusUnprocessableEntity,
			Details:    map[string]any{"rule": violation.Rule},
			Err:        err,
		}
	}

	var conflict *domain.ConcurrencyConflict
	if errors.As(err, &conflict) {
		return &HTTPError{
			Code:       "CONCURRENCY_CONFLICT",
			Message:    conflict.Message,
			HTTPStatus: http.StatusConflict,
			Err:        err,
		}
	}

	return &HTTPError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
