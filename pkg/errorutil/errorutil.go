package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kapok/customer-service/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewUnauthorized reports a missing or invalid service token.
func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewInternalError hides err behind a generic 500.
func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts registration and transport errors to a DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return &DomainError{
			Code:       "PHONE_NUMBER_TAKEN",
			Message:    conflict.Error(),
			HTTPStatus: http.StatusConflict,
			Details:    map[string]any{"phoneNumber": conflict.PhoneNumber},
			Err:        err,
		}
	}

	var rejected *domain.FraudRejectedError
	if errors.As(err, &rejected) {
		return &DomainError{
			Code:       "FRAUD_REJECTED",
			Message:    "registration rejected by fraud check",
			HTTPStatus: http.StatusUnprocessableEntity,
			Details:    map[string]any{"customerId": rejected.CustomerID},
			Err:        err,
		}
	}

	var upstream *domain.UpstreamUnavailableError
	if errors.As(err, &upstream) {
		return &DomainError{
			Code:       "UPSTREAM_UNAVAILABLE",
			Message:    fmt.Sprintf("%s unavailable", upstream.Collaborator),
			HTTPStatus: http.StatusServiceUnavailable,
			Details:    map[string]any{"collaborator": upstream.Collaborator},
			Err:        err,
		}
	}

	var invalid *domain.ValidationError
	if errors.As(err, &invalid) {
		details := make(map[string]any, len(invalid.Fields))
		for k, v := range invalid.Fields {
			details[k] = v
		}
		return &DomainError{
			Code:       "VALIDATION_FAILED",
			Message:    invalid.Error(),
			HTTPStatus: http.StatusBadRequest,
			Details:    details,
			Err:        err,
		}
	}

	if errors.Is(err, domain.ErrNotFound) {
		return &DomainError{
			Code:       "NOT_FOUND",
			Message:    "resource not found",
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       strings.ToUpper(strings.ReplaceAll(http.StatusText(fiberErr.Code), " ", "_")),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}

	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
