package hookctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/imoto-rec-git/sns-like-app/internal/webhook"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// EventOptions describes an event either from a fixture file, from flags, or
// both; non-empty flags override the file.
type EventOptions struct {
	File      string
	Type      string
	ID        string
	Username  string
	FirstName string
	LastName  string
	ImageURL  string
}

func (o *EventOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.File, "file", "f", "", "YAML or JSON event fixture")
	f.StringVar(&o.Type, "type", "", "event type (default user.created)")
	f.StringVar(&o.ID, "id", "", "external user id")
	f.StringVar(&o.Username, "username", "", "username")
	f.StringVar(&o.FirstName, "first-name", "", "first name")
	f.StringVar(&o.LastName, "last-name", "", "last name")
	f.StringVar(&o.ImageURL, "image-url", "", "profile image URL")
}

func (o *EventOptions) Build() (webhook.Event, error) {
	var evt webhook.Event
	if o.File != "" {
		loaded, err := LoadEvent(o.File)
		if err != nil {
			return webhook.Event{}, err
		}
		evt = loaded
	}

	overlay(&evt.Type, o.Type)
	overlay(&evt.Data.ID, o.ID)
	overlay(&evt.Data.Username, o.Username)
	overlay(&evt.Data.FirstName, o.FirstName)
	overlay(&evt.Data.LastName, o.LastName)
	overlay(&evt.Data.ImageURL, o.ImageURL)

	if evt.Type == "" {
		evt.Type = webhook.EventUserCreated
	}
	if evt.Object == "" {
		evt.Object = "event"
	}
	if evt.Data.ID == "" {
		return webhook.Event{}, errors.New("event needs a user id (--id or data.id in the fixture)")
	}
	return evt, nil
}

// Body renders the event as the provider would deliver it.
func (o *EventOptions) Body() ([]byte, error) {
	evt, err := o.Build()
	if err != nil {
		return nil, err
	}
	return json.Marshal(evt)
}

// LoadEvent reads a fixture. JSON fixtures parse as YAML too.
func LoadEvent(path string) (webhook.Event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return webhook.Event{}, fmt.Errorf("read fixture: %w", err)
	}
	var evt webhook.Event
	if err := yaml.Unmarshal(raw, &evt); err != nil {
		return webhook.Event{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return evt, nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func NewEventCommand() *cobra.Command {
	opts := &EventOptions{}
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Print an event body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.Body()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", body)
			return err
		},
	}
	opts.bind(cmd)
	return cmd
}
