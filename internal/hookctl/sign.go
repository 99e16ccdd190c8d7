package hookctl

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/imoto-rec-git/sns-like-app/internal/webhook"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// DeliveryOptions pins the message id and timestamp of a delivery. Zero
// values mean a fresh id and the current time.
type DeliveryOptions struct {
	MsgID     string
	Timestamp int64
}

func (o *DeliveryOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.MsgID, "msg-id", "", "delivery id (default random)")
	cmd.Flags().Int64Var(&o.Timestamp, "timestamp", 0, "unix seconds to sign with (default now)")
}

func (o *DeliveryOptions) headers(secret string, body []byte) (http.Header, error) {
	if secret == "" {
		return nil, fmt.Errorf("no webhook secret: pass --secret or set WEBHOOK_SECRET")
	}
	v, err := webhook.NewVerifier(secret, 0)
	if err != nil {
		return nil, err
	}
	id := o.MsgID
	if id == "" {
		id = "msg_" + uuid.NewString()
	}
	ts := time.Now()
	if o.Timestamp != 0 {
		ts = time.Unix(o.Timestamp, 0)
	}
	return v.Headers(id, ts, body), nil
}

func NewSignCommand(rootOpts *RootOptions) *cobra.Command {
	event := &EventOptions{}
	delivery := &DeliveryOptions{}
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print signature headers and body for an event",
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
			return writeDelivery(cmd.OutOrStdout(), h, body)
		},
	}
	event.bind(cmd)
	delivery.bind(cmd)
	return cmd
}

func writeDelivery(w io.Writer, h http.Header, body []byte) error {
	for _, name := range []string{webhook.HeaderID, webhook.HeaderTimestamp, webhook.HeaderSignature} {
		if _, err := fmt.Fprintf(w, "%s: %s\n", name, h.Get(name)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", body)
	return err
}
