package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kapok/customer-service/internal/api/dto"
	"github.com/kapok/customer-service/internal/service"
)

// FraudHandler exposes the fraud service's verification endpoint.
type FraudHandler struct {
	fraud *service.FraudService
}

// NewFraudHandler constructs handler.
func NewFraudHandler(fraud *service.FraudService) *FraudHandler {
	return &FraudHandler{fraud: fraud}
}

// Check handles GET /api/v1/fraud-check/:customerId.
func (h *FraudHandler) Check(c *fiber.Ctx) error {
	verdict, err := h.fraud.Check(c.UserContext(), c.Params("customerId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FraudCheckResponse{IsFraudster: verdict.IsFraudster})
}

// History handles GET /api/v1/fraud-check/:customerId/history.
func (h *FraudHandler) History(c *fiber.Ctx) error {
	checks, err := h.fraud.History(c.UserContext(), c.Params("customerId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFraudCheckHistoryResponse(checks)})
}
