package social

import (
	"errors"

	"github.com/imoto-rec-git/sns-like-app/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/posts", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		post, err := svc.CreatePost(c.Context(), auth.ActorID(c), body.Content)
		if err != nil {
			return toFiberError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	r.Post("/posts/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		res, err := svc.ToggleLike(c.Context(), auth.ActorID(c), c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(res)
	})

	r.Post("/users/:id/follow", authMiddleware, func(c *fiber.Ctx) error {
		res, err := svc.ToggleFollow(c.Context(), auth.ActorID(c), c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(res)
	})

	r.Get("/feed", authMiddleware, func(c *fiber.Ctx) error {
		feed, err := svc.Feed(c.Context(), auth.ActorID(c), c.QueryInt("limit"))
		if err != nil {
			return toFiberError(err)
		}
		if feed == nil {
			feed = []FeedPost{}
		}
		return c.JSON(feed)
	})

	r.Get("/users/:id", authMiddleware, func(c *fiber.Ctx) error {
		profile, err := svc.Profile(c.Context(), auth.ActorID(c), c.Params("id"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(profile)
	})
}

// toFiberError keeps storage details out of responses.
func toFiberError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.NewError(fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, ErrUnknownActor):
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, ErrInvalidTarget):
		return fiber.NewError(fiber.StatusBadRequest, "invalid target")
	case errors.Is(err, ErrTargetNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "request failed")
	}
}
