package domain

import "time"

// CustomerStatus tracks whether a registration has been confirmed by the fraud check.
type CustomerStatus string

const (
	CustomerStatusPending  CustomerStatus = "PENDING"
	CustomerStatusActive   CustomerStatus = "ACTIVE"
	CustomerStatusRejected CustomerStatus = "REJECTED"
)

// Customer is a registrant. ID is assigned by the store on insert.
type Customer struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Status      CustomerStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RegistrationRequest is a candidate customer submitted by a caller.
type RegistrationRequest struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}
