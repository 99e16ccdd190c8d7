package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/imoto-rec-git/sns-like-app/internal/auth"
	"github.com/imoto-rec-git/sns-like-app/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// relation describes the table behind a toggleable Kind. Uniqueness of
// (actor, target) is enforced by a constraint on each table.
type relation struct {
	table       string
	actorCol    string
	targetCol   string
	actorFKey   string
	topicPrefix string
}

var relations = map[Kind]relation{
	KindLike: {
		table: "likes", actorCol: "user_id", targetCol: "post_id",
		actorFKey: db.LikesUserFKey, topicPrefix: "post:",
	},
	KindFollow: {
		table: "follows", actorCol: "follower_id", targetCol: "following_id",
		actorFKey: db.FollowsFollowerFKey, topicPrefix: "user:",
	},
}

func (s *Service) ToggleLike(ctx context.Context, actorID, postID string) (ToggleResult, error) {
	return s.Toggle(ctx, KindLike, actorID, postID)
}

// ToggleFollow does not reject actorID == userID; following yourself is
// allowed.
func (s *Service) ToggleFollow(ctx context.Context, actorID, userID string) (ToggleResult, error) {
	return s.Toggle(ctx, KindFollow, actorID, userID)
}

// Toggle deletes the (actor, target) relation if it exists and creates it
// otherwise, then reports the resulting state and aggregate count.
//
// The lookup and the write are separate statements. When two toggles race,
// the unique constraint turns a second create into a no-op that still
// reports the relation as present, and a second delete of the same row
// reports it as absent; the pair never ends up duplicated.
func (s *Service) Toggle(ctx context.Context, kind Kind, actorID, targetID string) (ToggleResult, error) {
	if actorID == "" {
		return ToggleResult{}, auth.ErrUnauthenticated
	}
	rel, ok := relations[kind]
	if !ok || targetID == "" {
		return ToggleResult{}, ErrInvalidTarget
	}
	if kind == KindLike {
		if _, err := uuid.Parse(targetID); err != nil {
			return ToggleResult{}, ErrInvalidTarget
		}
	}

	result := ToggleResult{Kind: kind, ActorID: actorID, TargetID: targetID}

	var existingID string
	err := s.db.QueryRow(ctx, fmt.Sprintf(
		`SELECT id FROM %s WHERE %s = $1 AND %s = $2`, rel.table, rel.actorCol, rel.targetCol,
	), actorID, targetID).Scan(&existingID)

	switch {
	case err == nil:
		if _, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, rel.table), existingID); err != nil {
			return ToggleResult{}, fmt.Errorf("%w: delete %s: %w", ErrStorage, kind, err)
		}
		result.Present = false
	case errors.Is(err, pgx.ErrNoRows):
		_, err := s.db.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, %s, %s)
			VALUES ($1,$2,$3)
			ON CONFLICT (%s, %s) DO NOTHING
		`, rel.table, rel.actorCol, rel.targetCol, rel.actorCol, rel.targetCol), uuid.NewString(), actorID, targetID)
		if db.IsForeignKeyViolation(err, rel.actorFKey) {
			return ToggleResult{}, ErrUnknownActor
		}
		if db.IsForeignKeyViolation(err, "") {
			return ToggleResult{}, ErrTargetNotFound
		}
		if err != nil {
			return ToggleResult{}, fmt.Errorf("%w: insert %s: %w", ErrStorage, kind, err)
		}
		result.Present = true
	default:
		return ToggleResult{}, fmt.Errorf("%w: lookup %s: %w", ErrStorage, kind, err)
	}

	if err := s.db.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE %s = $1`, rel.table, rel.targetCol,
	), targetID).Scan(&result.Count); err != nil {
		return ToggleResult{}, fmt.Errorf("%w: count %s: %w", ErrStorage, kind, err)
	}

	s.logger.Debug("toggled", "kind", kind, "actor_id", actorID, "target_id", targetID, "present", result.Present)
	s.invalidate(rel.topicPrefix+targetID, result)
	return result, nil
}
