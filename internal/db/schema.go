package db

import (
	"context"
	"fmt"
)

// Constraint names referenced by the services.
const (
	UsersUsernameKey = "users_username_key"
	UsersClerkIDKey  = "users_clerk_id_key"

	PostsAuthorFKey     = "posts_author_id_fkey"
	LikesUserFKey       = "likes_user_id_fkey"
	LikesPostFKey       = "likes_post_id_fkey"
	FollowsFollowerFKey = "follows_follower_id_fkey"
	FollowsFollowingFKey ="follows_following_id_fkey"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		clerk_id   TEXT NOT NULL,
		username   TEXT NOT NULL,
		name       TEXT,
		image      TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT users_clerk_id_key UNIQUE (clerk_id),
		CONSTRAINT users_username_key UNIQUE (username)
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         UUID PRIMARY KEY,
		author_id  TEXT NOT NULL CONSTRAINT posts_author_id_fkey REFERENCES users(id) ON DELETE CASCADE,
		content    TEXT NOT NULL CHECK (char_length(content) BETWEEN 1 AND 140),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS posts_author_created_idx ON posts (author_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id         UUID PRIMARY KEY,
		user_id    TEXT NOT NULL CONSTRAINT likes_user_id_fkey REFERENCES users(id) ON DELETE CASCADE,
		post_id    UUID NOT NULL CONSTRAINT likes_post_id_fkey REFERENCES posts(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT likes_user_post_key UNIQUE (user_id, post_id)
	)`,
	`CREATE TABLE IF NOT EXISTS follows (
		id           UUID PRIMARY KEY,
		follower_id  TEXT NOT NULL CONSTRAINT follows_follower_id_fkey REFERENCES users(id) ON DELETE CASCADE,
		following_id TEXT NOT NULL CONSTRAINT follows_following_id_fkey REFERENCES users(id) ON DELETE CASCADE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT follows_pair_key UNIQUE (follower_id, following_id)
	)`,
}

// users.id mirrors the identity provider's user id so session subjects can be
// used as actor ids directly; clerk_id is kept as the correlation key.

// Migrate creates the tables if they do not exist. The unique constraints on
// likes and follows are what keep concurrent toggles from duplicating a
// relation.
func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
