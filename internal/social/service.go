package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/imoto-rec-git/sns-like-app/internal/auth"
	"github.com/imoto-rec-git/sns-like-app/internal/db"
	"github.com/imoto-rec-git/sns-like-app/internal/logging"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

// Invalidator receives a signal whenever a view of topic may be stale.
type Invalidator interface {
	Invalidate(topic string, payload []byte)
}

type Service struct {
	db     db.Querier
	hub    Invalidator
	logger *slog.Logger
}

func NewService(q db.Querier, hub Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{db: q, hub: hub, logger: logger}
}

// ValidateContent enforces the 1..140 character rule.
func ValidateContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return &ValidationError{Message: "post content is required"}
	}
	if n > MaxContentLength {
		return &ValidationError{Message: fmt.Sprintf("post content must be %d characters or fewer", MaxContentLength)}
	}
	return nil
}

func (s *Service) CreatePost(ctx context.Context, actorID, content string) (Post, error) {
	if actorID == "" {
		return Post{}, auth.ErrUnauthenticated
	}
	if err := ValidateContent(content); err != nil {
		return Post{}, err
	}

	post := Post{
		ID:       uuid.NewString(),
		AuthorID: actorID,
		Content:  content,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, author_id, content)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, post.ID, post.AuthorID, post.Content)
	if err := row.Scan(&post.CreatedAt); err != nil {
		if db.IsForeignKeyViolation(err, db.PostsAuthorFKey) {
			return Post{}, ErrUnknownActor
		}
		return Post{}, fmt.Errorf("%w: insert post: %w", ErrStorage, err)
	}

	s.invalidate("feed:"+actorID, post)
	return post, nil
}

func (s *Service) Feed(ctx context.Context, actorID string, limit int) ([]FeedPost, error) {
	if actorID == "" {
		return nil, auth.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.author_id, p.content, p.created_at, u.username, u.name, u.image
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.author_id = $1
		   OR p.author_id IN (SELECT following_id FROM follows WHERE follower_id = $1)
		ORDER BY p.created_at DESC
		LIMIT $2
	`, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: feed: %w", ErrStorage, err)
	}
	defer rows.Close()

	var posts []FeedPost
	var ids []string
	for rows.Next() {
		var p FeedPost
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &p.CreatedAt, &p.Author.Username, &p.Author.Name, &p.Author.Image); err != nil {
			return nil, fmt.Errorf("%w: feed scan: %w", ErrStorage, err)
		}
		p.Author.ID = p.AuthorID
		ids = append(ids, p.ID)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: feed rows: %w", ErrStorage, err)
	}

	likers, err := s.loadLikers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].LikerIDs = likers[posts[i].ID]
		if posts[i].LikerIDs == nil {
			posts[i].LikerIDs = []string{}
		}
		posts[i].LikeCount = len(posts[i].LikerIDs)
		for _, id := range posts[i].LikerIDs {
			if id == actorID {
				posts[i].LikedByMe = true
				break
			}
		}
	}
	return posts, nil
}

func (s *Service) loadLikers(ctx context.Context, postIDs []string) (map[string][]string, error) {
	if len(postIDs) == 0 {
		return map[string][]string{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT post_id, user_id
		FROM likes WHERE post_id = ANY($1)
		ORDER BY created_at
	`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: likers: %w", ErrStorage, err)
	}
	defer rows.Close()

	likers := map[string][]string{}
	for rows.Next() {
		var postID, userID string
		if err := rows.Scan(&postID, &userID); err != nil {
			return nil, fmt.Errorf("%w: likers scan: %w", ErrStorage, err)
		}
		likers[postID] = append(likers[postID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: likers rows: %w", ErrStorage, err)
	}
	return likers, nil
}

func (s *Service) Profile(ctx context.Context, actorID, userID string) (Profile, error) {
	if actorID == "" {
		return Profile{}, auth.ErrUnauthenticated
	}
	if userID == "" {
		return Profile{}, ErrInvalidTarget
	}

	var p Profile
	err := s.db.QueryRow(ctx, `
		SELECT u.id, u.username, u.name, u.image,
		       (SELECT COUNT(*) FROM follows WHERE following_id = u.id),
		       (SELECT COUNT(*) FROM follows WHERE follower_id = u.id),
		       EXISTS(SELECT 1 FROM follows WHERE follower_id = $2 AND following_id = u.id)
		FROM users u WHERE u.id = $1
	`, userID, actorID).Scan(&p.ID, &p.Username, &p.Name, &p.Image, &p.FollowerCount, &p.FollowingCount, &p.IsFollowing)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrTargetNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("%w: profile: %w", ErrStorage, err)
	}
	p.IsCurrentUser = actorID == userID
	return p, nil
}

func (s *Service) invalidate(topic string, v any) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("invalidation payload", "topic", topic, "error", err)
		return
	}
	s.hub.Invalidate(topic, payload)
}
