package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kapok/customer-service/internal/domain"
	"github.com/kapok/customer-service/internal/repository"
)

// FraudService answers fraud checks and records each one.
type FraudService struct {
	history repository.FraudCheckRepository
	flagged map[string]struct{}
	logger  *zap.Logger
}

// NewFraudService constructs the service. Customers listed in flaggedIDs are reported as fraudsters.
func NewFraudService(history repository.FraudCheckRepository, flaggedIDs []string, logger *zap.Logger) *FraudService {
	flagged := make(map[string]struct{}, len(flaggedIDs))
	for _, id := range flaggedIDs {
		flagged[id] = struct{}{}
	}
	return &FraudService{history: history, flagged: flagged, logger: logger}
}

// Check returns the verdict for customerID after recording it.
func (s *FraudService) Check(ctx context.Context, customerID string) (domain.Verdict, error) {
	_, isFraudster := s.flagged[customerID]

	check := &domain.FraudCheckHistory{
		CustomerID:  customerID,
		IsFraudster: isFraudster,
	}
	if err := s.history.Create(ctx, check); err != nil {
		return domain.Verdict{}, fmt.Errorf("record fraud check: %w", err)
	}

	s.logger.Info("fraud check request for customer",
		zap.String("customer_id", customerID),
		zap.Bool("is_fraudster", isFraudster))
	return domain.Verdict{CustomerID: customerID, IsFraudster: isFraudster}, nil
}

// History lists past checks for a customer, newest first.
func (s *FraudService) History(ctx context.Context, customerID string) ([]domain.FraudCheckHistory, error) {
	return s.history.ListByCustomer(ctx, customerID)
}
