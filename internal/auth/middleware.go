package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kapok/customer-service/pkg/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated calling service.
type Principal struct {
	Service string
}

// ServiceAuthMiddleware validates bearer service tokens.
type ServiceAuthMiddleware struct {
	tokens *TokenManager
}

// NewServiceAuthMiddleware constructs middleware.
func NewServiceAuthMiddleware(tokens *TokenManager) *ServiceAuthMiddleware {
	return &ServiceAuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *ServiceAuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return errorutil.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return errorutil.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return errorutil.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{Service: claims.Service})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
