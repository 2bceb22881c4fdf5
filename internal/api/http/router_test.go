package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapok/customer-service/internal/api/http/handlers"
	"github.com/kapok/customer-service/internal/auth"
	"github.com/kapok/customer-service/internal/domain"
	"github.com/kapok/customer-service/internal/observability"
	"github.com/kapok/customer-service/internal/repository"
	"github.com/kapok/customer-service/internal/service"
)

type verdictFunc func(ctx context.Context, customerID string) (domain.Verdict, error)

func (f verdictFunc) Verify(ctx context.Context, customerID string) (domain.Verdict, error) {
	return f(ctx, customerID)
}

type noopPublisher struct{ calls int }

func (p *noopPublisher) Publish(context.Context, domain.NotificationEvent, string, string) error {
	p.calls++
	return nil
}

type fraudHistory struct{}

func (fraudHistory) Create(_ context.Context, c *domain.FraudCheckHistory) error {
	c.ID = "h-1"
	return nil
}

func (fraudHistory) ListByCustomer(context.Context, string) ([]domain.FraudCheckHistory, error) {
	return nil, nil
}

func newCustomerApp(t *testing.T, verifier service.FraudVerifier) (*fiber.App, *noopPublisher) {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	store := repository.NewInMemoryCustomerRepository()
	publisher := &noopPublisher{}

	registration := service.NewRegistrationService(service.RegistrationDependencies{
		Store:      store,
		Verifier:   verifier,
		Publisher:  publisher,
		Metrics:    metrics,
		Exchange:   "internal.exchange",
		RoutingKey: "internal.notification.routing-key",
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("customer-service", "test", nil),
		Customers: handlers.NewCustomersHandler(registration, service.NewCustomerService(store)),
		Gatherer:  reg,
	})
	return app, publisher
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return out
}

func favorable(_ context.Context, id string) (domain.Verdict, error) {
	return domain.Verdict{CustomerID: id}, nil
}

func TestRegisterCustomerEndpoint(t *testing.T) {
	app, publisher := newCustomerApp(t, verdictFunc(favorable))

	body := map[string]string{
		"firstName":   "Kapok",
		"lastName":    "Code",
		"email":       "k@example.com",
		"phoneNumber": "131",
	}

	resp, out := postJSON(t, app, "/api/v1/customers", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := out["data"].(map[string]any)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "ACTIVE", data["status"])
	assert.Equal(t, 1, publisher.calls)

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/customers/"+data["id"].(string), nil)
	getResp, err := app.Test(getReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	body["email"] = "someone-else@example.com"
	resp, out = postJSON(t, app, "/api/v1/customers", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "PHONE_NUMBER_TAKEN", out["error"].(map[string]any)["code"])
}

func TestRegisterCustomerErrorStatuses(t *testing.T) {
	valid := map[string]string{"firstName": "Kapok", "lastName": "Code", "email": "k@example.com", "phoneNumber": "131"}

	tests := []struct {
		name     string
		verifier verdictFunc
		body     map[string]string
		status   int
		code     string
	}{
		{
			name: "fraudster",
			verifier: func(_ context.Context, id string) (domain.Verdict, error) {
				return domain.Verdict{CustomerID: id, IsFraudster: true}, nil
			},
			body:   valid,
			status: http.StatusUnprocessableEntity,
			code:   "FRAUD_REJECTED",
		},
		{
			name: "verifier down",
			verifier: func(context.Context, string) (domain.Verdict, error) {
				return domain.Verdict{}, errors.New("dial tcp: connection refused")
			},
			body:   valid,
			status: http.StatusServiceUnavailable,
			code:   "UPSTREAM_UNAVAILABLE",
		},
		{
			name:     "missing fields",
			verifier: favorable,
			body:     map[string]string{"email": "k@example.com"},
			status:   http.StatusBadRequest,
			code:     "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, publisher := newCustomerApp(t, tt.verifier)
			resp, out := postJSON(t, app, "/api/v1/customers", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, out["error"].(map[string]any)["code"])
			assert.Zero(t, publisher.calls)
		})
	}
}

func TestUnknownCustomerIsNotFound(t *testing.T) {
	app, _ := newCustomerApp(t, verdictFunc(favorable))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/missing", nil)
	req.Header.Set(observability.RequestIDHeader, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get(observability.RequestIDHeader))
	assert.Equal(t, "req-42", decode(t, resp)["error"].(map[string]any)["requestId"])
}

func TestListCustomers(t *testing.T) {
	app, _ := newCustomerApp(t, verdictFunc(favorable))
	for _, phone := range []string{"1", "2", "3"} {
		resp, _ := postJSON(t, app, "/api/v1/customers", map[string]string{
			"firstName": "Kapok", "lastName": "Code", "email": "k@example.com", "phoneNumber": phone,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/customers?limit=2", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode(t, resp)["data"], 2)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newCustomerApp(t, verdictFunc(favorable))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFraudCheckRequiresServiceToken(t *testing.T) {
	tokens := auth.NewTokenManager("secret", 5)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	RegisterRoutes(app, RouteConfig{
		Fraud:       handlers.NewFraudHandler(service.NewFraudService(fraudHistory{}, []string{"bad"}, zap.NewNop())),
		ServiceAuth: auth.NewServiceAuthMiddleware(tokens),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/fraud-check/bad", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, _, err := tokens.GenerateToken("customer-service")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/fraud-check/bad", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["isFraudster"])

	foreign, _, err := tokens.GenerateToken("billing-service")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/fraud-check/bad", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
