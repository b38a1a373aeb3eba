package model

import (
	"time"
)

// Relation describes one edge table. The same toggle and batch query code
// runs against every relation.
type Relation struct {
	Name         string // metrics/log label and JSON key stem
	Table        string
	ActorColumn  string
	TargetColumn string
	// TargetTable holds the entity the target column points at.
	TargetTable string
	// ViaProfile means both edge columns store profile ids; callers still
	// pass user ids and queries join through profiles.
	ViaProfile bool
	// ErrTargetNotFound is returned when the target does not exist.
	ErrTargetNotFound error
}

var (
	RelationPostLike = Relation{
		Name:              "like",
		Table:             "likes",
		ActorColumn:       "user_id",
		TargetColumn:      "post_id",
		TargetTable:       "posts",
		ErrTargetNotFound: ErrPostNotFound,
	}
	RelationCommentLike = Relation{
		Name:              "comment_like",
		Table:             "comment_likes",
		ActorColumn:       "user_id",
		TargetColumn:      "comment_id",
		TargetTable:       "comments",
		ErrTargetNotFound: ErrCommentNotFound,
	}
	RelationFollow = Relation{
		Name:              "follow",
		Table:             "follows",
		ActorColumn:       "follower_id",
		TargetColumn:      "following_id",
		TargetTable:       "users",
		ViaProfile:        true,
		ErrTargetNotFound: ErrUserNotFound,
	}
	RelationSave = Relation{
		Name:              "save",
		Table:             "saved_posts",
		ActorColumn:       "user_id",
		TargetColumn:      "post_id",
		TargetTable:       "posts",
		ErrTargetNotFound: ErrPostNotFound,
	}
)

// Edge is a presence marker linking an actor to a target.
type Edge struct {
	ID        string    `db:"id" json:"id"`
	ActorID   string    `db:"actor_id" json:"actorId"`
	TargetID  string    `db:"target_id" json:"targetId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// IDSet is a set of target ids.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the members in no particular order.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// ToggleRequest is the JSON body for the toggle endpoints. Only the field
// that matches the endpoint is read.
type ToggleRequest struct {
	PostID      string `json:"postId"`
	CommentID   string `json:"commentId"`
	FollowingID string `json:"followingId"`
}

// BatchRequest is the JSON body for the batch status endpoints.
type BatchRequest struct {
	PostIDs    []string `json:"postIds"`
	CommentIDs []string `json:"commentIds"`
	UserIDs    []string `json:"userIds"`
}

// MaxBatchSize caps how many ids one batch call may ask about.
const MaxBatchSize = 200
