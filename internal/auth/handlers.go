package auth

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes exposes session introspection so clients can check a token
// before wiring it into toggle calls.
func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/session", func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		sess, err := svc.Inspect(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		return c.JSON(sess)
	})
}
