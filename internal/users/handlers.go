package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/imoto-rec-git/sns-like-app/internal/logging"
	"github.com/imoto-rec-git/sns-like-app/internal/webhook"

	"github.com/gofiber/fiber/v2"
)

// RegisterWebhookRoutes mounts the identity provider callback. The provider
// retries on any non-2xx status, so only failures that a redelivery could
// fix return 500.
func RegisterWebhookRoutes(r fiber.Router, verifier *webhook.Verifier, svc *Service, logger *slog.Logger) {
	if logger == nil {
		logger = logging.Discard()
	}
	r.Post("/identity", func(c *fiber.Ctx) error {
		body := c.Body()
		headers := http.Header{}
		for _, name := range []string{
			webhook.HeaderID, webhook.HeaderTimestamp, webhook.HeaderSignature,
			"webhook-id", "webhook-timestamp", "webhook-signature",
		} {
			if v := c.Get(name); v != "" {
				headers.Set(name, v)
			}
		}

		eventID := headers.Get(webhook.HeaderID)
		if err := verifier.Verify(body, headers); err != nil {
			logger.Warn("webhook rejected", "event_id", eventID, "error", err)
			return fiber.NewError(fiber.StatusBadRequest, "invalid webhook signature")
		}

		evt, err := webhook.ParseEvent(body)
		if err != nil {
			logger.Warn("webhook payload malformed", "event_id", eventID, "error", err)
			return fiber.NewError(fiber.StatusBadRequest, "malformed event")
		}

		outcome, err := svc.ApplyIdentityEvent(c.Context(), evt)
		switch {
		case err == nil:
			logger.Info("webhook processed", "event_id", eventID, "type", evt.Type, "outcome", outcome.String())
			return c.JSON(fiber.Map{"status": outcome.String()})
		case errors.Is(err, ErrMissingExternalID):
			logger.Warn("webhook payload malformed", "event_id", eventID, "type", evt.Type, "error", err)
			return fiber.NewError(fiber.StatusBadRequest, "malformed event")
		default:
			logger.Error("webhook processing failed", "event_id", eventID, "type", evt.Type, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "event processing failed")
		}
	})
}
