package model

import (
	"fmt"
	"time"
)

// Post is a single image with an optional caption.
type Post struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	ImageURL  string    `db:"image_url" json:"imageUrl"`
	ImageKey  *string   `db:"image_key" json:"-"`
	Caption   *string   `db:"caption" json:"caption"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Joined fields (not in posts table)
	Author *UserSummary `json:"user,omitempty"`
}

// FeedPost is a post enriched with the viewer's like/save state and counts.
type FeedPost struct {
	Post
	LikeCount    int  `json:"likeCount"`
	CommentCount int  `json:"commentCount"`
	IsLiked      bool `json:"isLiked"`
	IsSaved      bool `json:"isSaved"`
}

// FeedResponse is the paginated feed response.
type FeedResponse struct {
	Posts      []FeedPost `json:"posts"`
	NextCursor *string    `json:"nextCursor,omitempty"`
	HasMore    bool       `json:"hasMore"`
}

// PostListResponse is the paginated list of a single user's posts.
type PostListResponse struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"nextCursor,omitempty"`
	HasMore    bool    `json:"hasMore"`
}

// CreatePostRequest creates a post from an already uploaded image.
type CreatePostRequest struct {
	ImageURL string  `json:"imageUrl"`
	ImageKey *string `json:"imageKey,omitempty"`
	Caption  *string `json:"caption"`
}

// PostScore is a post id with its feed ordering score (unix micros).
type PostScore struct {
	PostID string
	Score  int64
}

// OlderThan reports whether p comes after o in feed order (newest first,
// ties broken by id descending).
func (p PostScore) OlderThan(o PostScore) bool {
	if p.Score != o.Score {
		return p.Score < o.Score
	}
	return p.PostID < o.PostID
}

const (
	MaxCaptionLength = 2200
	DefaultPageSize  = 12
	MaxPageSize      = 50
)

var (
	ErrImageRequired  = fmt.Errorf("%w: image is required", ErrInvalidOperation)
	ErrCaptionTooLong = fmt.Errorf("%w: caption too long", ErrInvalidOperation)
	ErrInvalidCursor  = fmt.Errorf("%w: invalid cursor", ErrInvalidOperation)
)
