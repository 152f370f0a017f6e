package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ceylonbank/customer_accounts/internal/customer"
)

// RegisterCustomerRoutes wires the account endpoints. idempotency and
// rateLimiter may be nil.
func RegisterCustomerRoutes(r fiber.Router, h *customer.Handler, idempotency, rateLimiter fiber.Handler) {
	group := r.Group("/customer")
	group.Post("", withOptional(idempotency, h.Create)...)
	group.Post("/login", withOptional(rateLimiter, h.Login)...)
	group.Post("/change-pin", withOptional(rateLimiter, h.ChangePIN)...)
}

// RegisterProfileRoute wires the authenticated profile endpoint.
func RegisterProfileRoute(r fiber.Router, h *customer.Handler, auth fiber.Handler) {
	r.Get("/customer/me", auth, h.Me)
}

func withOptional(mw, h fiber.Handler) []fiber.Handler {
	if mw == nil {
		return []fiber.Handler{h}
	}
	return []fiber.Handler{mw, h}
}
