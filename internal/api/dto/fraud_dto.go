package dto

import (
	"time"

	"github.com/kapok/customer-service/internal/domain"
)

// FraudCheckResponse is the verdict returned to callers of the fraud service.
type FraudCheckResponse struct {
	IsFraudster bool `json:"isFraudster"`
}

// FraudCheckHistoryResponse is a recorded check.
type FraudCheckHistoryResponse struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customerId"`
	IsFraudster bool      `json:"isFraudster"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewFraudCheckHistoryResponse maps recorded checks.
func NewFraudCheckHistoryResponse(checks []domain.FraudCheckHistory) []FraudCheckHistoryResponse {
	out := make([]FraudCheckHistoryResponse, 0, len(checks))
	for _, c := range checks {
		out = append(out, FraudCheckHistoryResponse{
			ID:          c.ID,
			CustomerID:  c.CustomerID,
			IsFraudster: c.IsFraudster,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out
}
