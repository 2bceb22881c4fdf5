package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireService ensures the caller is one of the allowed services. No arguments allows any
// authenticated service.
func RequireService(allowed ...string) fiber.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, svc := range allowed {
		allowedSet[svc] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Service]; !exists {
			return fiber.NewError(http.StatusForbidden, "service not allowed")
		}
		return c.Next()
	}
}
