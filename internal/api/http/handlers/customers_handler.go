package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/kapok/customer-service/internal/api/dto"
	"github.com/kapok/customer-service/internal/service"
)

// CustomersHandler exposes customer registration and reads.
type CustomersHandler struct {
	registration *service.RegistrationService
	customers    *service.CustomerService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(registration *service.RegistrationService, customers *service.CustomerService) *CustomersHandler {
	return &CustomersHandler{registration: registration, customers: customers}
}

// Register handles POST /api/v1/customers.
func (h *CustomersHandler) Register(c *fiber.Ctx) error {
	var req dto.CustomerRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	customer, err := h.registration.Register(c.UserContext(), req.ToDomain())
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewCustomerResponse(customer),
	})
}

// Get handles GET /api/v1/customers/:id.
func (h *CustomersHandler) Get(c *fiber.Ctx) error {
	customer, err := h.customers.GetCustomer(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}

// List handles GET /api/v1/customers.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	customers, err := h.customers.ListCustomers(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewCustomerListResponse(customers),
		"meta": fiber.Map{"limit": limit, "offset": offset},
	})
}
