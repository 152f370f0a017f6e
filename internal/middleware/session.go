package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ceylonbank/customer_accounts/internal/customer"
	"github.com/ceylonbank/customer_accounts/internal/session"
)

// SessionAuth validates the bearer session token and stores the customer id
// under customer.LocalsCustomerID.
func SessionAuth(issuer *session.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		claims, err := issuer.Parse(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			if errors.Is(err, session.ErrTokenExpired) {
				return fiber.NewError(http.StatusUnauthorized, "token expired")
			}
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(customer.LocalsCustomerID, claims.ID)
		c.Locals("session_id", claims.RegisteredClaims.ID)
		return c.Next()
	}
}
