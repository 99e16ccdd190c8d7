package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestSessionHandler(t *testing.T) {
	svc := NewService("test-secret")
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), svc)

	token, _ := svc.IssueToken("user-1", time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("session status: %v", err)
	}

	var sess Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.ActorID != "user-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if until := time.Until(sess.ExpiresAt); until <= 0 || until > time.Minute {
		t.Fatalf("unexpected expiry: %v", sess.ExpiresAt)
	}
}

func TestSessionMissingToken(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("test-secret"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}
}

func TestSessionInvalidToken(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}
}

func TestInspectWrapsUnauthenticated(t *testing.T) {
	_, err := NewService("test-secret").Inspect("not-a-jwt")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
