// Package hookctl implements an operator CLI that builds, signs and sends
// identity webhook deliveries, and mints session tokens for local testing.
package hookctl

import (
	"github.com/imoto-rec-git/sns-like-app/internal/config"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Secret    string
	JWTSecret string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hookctl",
		Short: "Identity webhook and session tooling",
		Long: `Build, sign and send identity provider webhook deliveries against a
running API, and mint session tokens for the social endpoints.

Secrets default to WEBHOOK_SECRET and JWT_SECRET from the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if opts.Secret == "" {
				opts.Secret = cfg.WebhookSecret
			}
			if opts.JWTSecret == "" {
				opts.JWTSecret = cfg.JWTSecret
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Secret, "secret", "", "webhook signing secret, whsec_ format")
	cmd.PersistentFlags().StringVar(&opts.JWTSecret, "jwt-secret", "", "session token signing secret")

	cmd.AddCommand(NewEventCommand())
	cmd.AddCommand(NewSignCommand(opts))
	cmd.AddCommand(NewSendCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
