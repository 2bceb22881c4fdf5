package dto

import (
	"time"

	"github.com/kapok/customer-service/internal/domain"
)

// CustomerRegistrationRequest payload for new customers.
type CustomerRegistrationRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// ToDomain converts the payload into a registration request.
func (r CustomerRegistrationRequest) ToDomain() domain.RegistrationRequest {
	return domain.RegistrationRequest{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
	}
}

// CustomerResponse is the public projection of a customer.
type CustomerResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewCustomerResponse maps a domain customer to its response shape.
func NewCustomerResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
	}
}

// NewCustomerListResponse maps a page of customers.
func NewCustomerListResponse(customers []domain.Customer) []CustomerResponse {
	out := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		out = append(out, NewCustomerResponse(&customers[i]))
	}
	return out
}
