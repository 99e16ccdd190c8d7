package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is the delivery envelope. Only the user fields this service mirrors
// are decoded from data.
type Event struct {
	Type   string   `json:"type" yaml:"type"`
	Object string   `json:"object,omitempty" yaml:"object,omitempty"`
	Data   UserData `json:"data" yaml:"data"`
}

type UserData struct {
	ID        string `json:"id" yaml:"id"`
	Username  string `json:"username,omitempty" yaml:"username,omitempty"`
	FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	ImageURL  string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// ParseEvent decodes a verified body. The provider sends null for absent
// optional fields; those decode to empty strings.
func ParseEvent(body []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if evt.Type == "" {
		return Event{}, errors.New("decode event: missing type")
	}
	return evt, nil
}
