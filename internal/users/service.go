package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/imoto-rec-git/sns-like-app/internal/db"
	"github.com/imoto-rec-git/sns-like-app/internal/logging"
	"github.com/imoto-rec-git/sns-like-app/internal/webhook"
)

var (
	ErrMissingExternalID  = errors.New("event data has no user id")
	ErrMissingPriorRecord = errors.New("user update for unknown user")
	ErrStorage            = errors.New("user storage failure")
)

// Service mirrors identity provider users into the users table.
type Service struct {
	db     db.Querier
	logger *slog.Logger
}

func NewService(q db.Querier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{db: q, logger: logger}
}

// ApplyIdentityEvent is safe to call repeatedly with the same event.
// Unknown event types are skipped without error so the provider stops
// redelivering them.
func (s *Service) ApplyIdentityEvent(ctx context.Context, evt webhook.Event) (Outcome, error) {
	switch evt.Type {
	case webhook.EventUserCreated:
		if evt.Data.ID == "" {
			return OutcomeSkipped, ErrMissingExternalID
		}
		return s.create(ctx, evt.Data)
	case webhook.EventUserUpdated:
		if evt.Data.ID == "" {
			return OutcomeSkipped, ErrMissingExternalID
		}
		return s.update(ctx, evt.Data)
	default:
		s.logger.Debug("identity event skipped", "type", evt.Type)
		return OutcomeSkipped, nil
	}
}

func (s *Service) create(ctx context.Context, d webhook.UserData) (Outcome, error) {
	username := DeriveUsername(d)
	inserted, err := s.insert(ctx, d, username)
	if db.IsUniqueViolation(err, db.UsersUsernameKey) {
		// Someone else already holds the derived name.
		username = username + "_" + idSuffix(d.ID)
		s.logger.Warn("username taken, using suffixed fallback", "clerk_id", d.ID, "username", username)
		inserted, err = s.insert(ctx, d, username)
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: insert user %s: %w", ErrStorage, d.ID, err)
	}
	if inserted {
		s.logger.Info("user created", "clerk_id", d.ID, "username", username)
		return OutcomeCreated, nil
	}

	// Duplicate delivery of user.created: apply whatever it carries as a
	// partial update instead of failing. The stored username was derived on
	// the first delivery, possibly with a suffix, and is kept.
	s.logger.Info("duplicate user.created, applying as update", "clerk_id", d.ID)
	d.Username = ""
	return s.update(ctx, d)
}

func (s *Service) insert(ctx context.Context, d webhook.UserData, username string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO users (id, clerk_id, username, name, image)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (clerk_id) DO NOTHING
	`, d.ID, d.ID, username, nullable(DeriveDisplayName(d)), nullable(d.ImageURL))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Service) update(ctx context.Context, d webhook.UserData) (Outcome, error) {
	name := DeriveDisplayName(d)
	if d.Username == "" && name == "" && d.ImageURL == "" {
		exists, err := s.exists(ctx, d.ID)
		if err != nil {
			return OutcomeSkipped, err
		}
		if !exists {
			return OutcomeSkipped, ErrMissingPriorRecord
		}
		return OutcomeUnchanged, nil
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET username = COALESCE(NULLIF($2,''), username),
		    name = COALESCE(NULLIF($3,''), name),
		    image = COALESCE(NULLIF($4,''), image),
		    updated_at = now()
		WHERE clerk_id = $1
	`, d.ID, d.Username, name, d.ImageURL)
	if d.Username != "" && db.IsUniqueViolation(err, db.UsersUsernameKey) {
		// A redelivery would collide again, so drop the name instead of
		// asking for a retry.
		s.logger.Warn("username taken, keeping the stored one", "clerk_id", d.ID, "username", d.Username)
		d.Username = ""
		return s.update(ctx, d)
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: update user %s: %w", ErrStorage, d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return OutcomeSkipped, ErrMissingPriorRecord
	}
	s.logger.Info("user updated", "clerk_id", d.ID)
	return OutcomeUpdated, nil
}

func (s *Service) exists(ctx context.Context, clerkID string) (bool, error) {
	var found bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE clerk_id = $1)`, clerkID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("%w: lookup user %s: %w", ErrStorage, clerkID, err)
	}
	return found, nil
}
