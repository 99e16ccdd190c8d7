package hookctl

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

const defaultWebhookURL = "http://localhost:8080/webhooks/identity"

func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	event := &EventOptions{}
	delivery := &DeliveryOptions{}
	var (
		url     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Sign an event and POST it to the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := event.Body()
			if err != nil {
				return err
			}
			h, err := delivery.headers(rootOpts.Secret, body)
			if err != nil {
				return err
			}

			a := fiber.Post(url)
			a.ContentType(fiber.MIMEApplicationJSON)
			for name := range h {
				a.Set(name, h.Get(name))
			}
			a.Body(body)
			a.Timeout(timeout)
			if err := a.Parse(); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			status, resp, errs := a.Bytes()
			if len(errs) > 0 {
				return fmt.Errorf("send: %w", errors.Join(errs...))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", status, resp)
			if status != fiber.StatusOK {
				return fmt.Errorf("delivery rejected with status %d", status)
			}
			return nil
		},
	}
	event.bind(cmd)
	delivery.bind(cmd)
	cmd.Flags().StringVar(&url, "url", defaultWebhookURL, "webhook endpoint")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	return cmd
}
