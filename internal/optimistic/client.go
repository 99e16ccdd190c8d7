package optimistic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 10 * time.Second

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("toggle: status %d: %s", e.Code, e.Body)
}

// Client calls the social toggle endpoints on behalf of one session.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: defaultTimeout,
	}
}

func (c *Client) LikeToggle(postID string) ToggleFunc {
	return c.toggle("/social/posts/" + url.PathEscape(postID) + "/like")
}

func (c *Client) FollowToggle(userID string) ToggleFunc {
	return c.toggle("/social/users/" + url.PathEscape(userID) + "/follow")
}

func (c *Client) toggle(path string) ToggleFunc {
	return func(ctx context.Context) (State, error) {
		if err := ctx.Err(); err != nil {
			return State{}, err
		}
		timeout := c.timeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}

		a := fiber.Post(c.baseURL + path)
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
		a.Timeout(timeout)
		if err := a.Parse(); err != nil {
			return State{}, fmt.Errorf("toggle request: %w", err)
		}
		status, body, errs := a.Bytes()
		if len(errs) > 0 {
			return State{}, fmt.Errorf("toggle request: %w", errors.Join(errs...))
		}
		if status != fiber.StatusOK {
			return State{}, &StatusError{Code: status, Body: string(body)}
		}

		var st State
		if err := json.Unmarshal(body, &st); err != nil {
			return State{}, fmt.Errorf("toggle response: %w", err)
		}
		return st, nil
	}
}
