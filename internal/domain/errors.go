package domain

import (
	"errors"
	"fmt"
)

// Collaborators named in UpstreamUnavailableError.
const (
	CollaboratorStore    = "customer-store"
	CollaboratorVerifier = "fraud-verifier"
)

// ErrNotFound is returned by stores when no record matches.
var ErrNotFound = errors.New("not found")

// ConflictError reports a phone number already held by a different identity.
type ConflictError struct {
	PhoneNumber string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("phone number [%s] is taken", e.PhoneNumber)
}

// UpstreamUnavailableError reports a store or verifier failure.
type UpstreamUnavailableError struct {
	Collaborator string
	Err          error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Collaborator, e.Err)
	}
	return e.Collaborator + " unavailable"
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

// FraudRejectedError reports an adverse verdict.
type FraudRejectedError struct {
	CustomerID string
}

func (e *FraudRejectedError) Error() string {
	return fmt.Sprintf("customer %s rejected by fraud check", e.CustomerID)
}

// ValidationError reports a malformed registration request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "invalid registration request"
}
