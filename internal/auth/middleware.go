package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const actorLocal = "user_id"

// JWTMiddleware validates bearer tokens and stores the actor id in locals.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := parseClaims(token, secretBytes)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}

		c.Locals(actorLocal, claims.ActorID())
		return c.Next()
	}
}

// ActorID returns the authenticated actor for the request, or "" when the
// route was not behind JWTMiddleware.
func ActorID(c *fiber.Ctx) string {
	id, _ := c.Locals(actorLocal).(string)
	return id
}

// WithActor is a test helper middleware that authenticates every request as id.
func WithActor(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id != "" {
			c.Locals(actorLocal, id)
		}
		return c.Next()
	}
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
