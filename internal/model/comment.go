package model

import (
	"fmt"
	"time"
)

// Comment represents a comment on a post.
type Comment struct {
	ID        string       `db:"id" json:"id"`
	PostID    string       `db:"post_id" json:"postId"`
	UserID    string       `db:"user_id" json:"userId"`
	Content   string       `db:"content" json:"content"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	Author    *UserSummary `json:"user,omitempty"` // Joined field
	LikeCount int          `db:"like_count" json:"likeCount"`
	IsLiked   bool         `json:"isLiked"`
}

// CreateCommentRequest is the request body for POST /api/comments.
type CreateCommentRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

const (
	MaxCommentLength = 2200
)

var (
	ErrContentRequired = fmt.Errorf("%w: comment content is required", ErrInvalidOperation)
	ErrContentTooLong  = fmt.Errorf("%w: comment content too long", ErrInvalidOperation)
)
