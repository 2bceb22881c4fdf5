package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapok/customer-service/pkg/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	token, exp, err := tm.GenerateToken("customer-service")
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "customer-service", claims.Service)
}

func TestTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 5).GenerateToken("customer-service")
	require.NoError(t, err)

	_, err = NewTokenManager("two", 5).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidServiceToken)
}

func TestGenerateTokenRequiresService(t *testing.T) {
	_, _, err := NewTokenManager("secret", 5).GenerateToken("")
	assert.Error(t, err)
}

func TestServiceMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	mw := NewServiceAuthMiddleware(tm)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(errorutil.ToDomainError(err).HTTPStatus)
	}})
	app.Get("/check", mw.Handle, RequireService("customer-service"), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Service)
	})

	customerToken, _, err := tm.GenerateToken("customer-service")
	require.NoError(t, err)
	otherToken, _, err := tm.GenerateToken("billing")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "allowed service", header: "Bearer " + customerToken, want: http.StatusOK},
		{name: "other service", header: "Bearer " + otherToken, want: http.StatusForbidden},
		{name: "garbage token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/check", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
