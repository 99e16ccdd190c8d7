package social

import "time"

// MaxContentLength is counted in characters, not bytes.
const MaxContentLength = 140

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Author struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Name     *string `json:"name"`
	Image    *string `json:"image"`
}

// FeedPost is a post as rendered in a timeline, with the like state the
// client seeds its optimistic element from.
type FeedPost struct {
	Post
	Author    Author   `json:"author"`
	LikerIDs  []string `json:"liker_ids"`
	LikeCount int      `json:"like_count"`
	LikedByMe bool     `json:"liked_by_me"`
}

type Profile struct {
	Author
	FollowerCount  int  `json:"follower_count"`
	FollowingCount int  `json:"following_count"`
	IsFollowing    bool `json:"is_following"`
	IsCurrentUser  bool `json:"is_current_user"`
}

// Kind names a toggleable relation.
type Kind string

const (
	KindLike   Kind = "like"
	KindFollow Kind = "follow"
)

// ToggleResult is the authoritative state of a relation after a toggle.
// Count is the post's like count or the target user's follower count.
type ToggleResult struct {
	Kind     Kind   `json:"kind"`
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id"`
	Present  bool   `json:"present"`
	Count    int    `json:"count"`
}
