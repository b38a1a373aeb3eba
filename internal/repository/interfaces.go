package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"zoskagram/internal/model"
)

// Methods that take a sqlx.ExtContext run on whatever they are given, so a
// service can pass its transaction or the *sqlx.DB.

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// UpsertOAuth returns the user linked to the provider account, creating
	// or linking one on first sign-in.
	UpsertOAuth(ctx context.Context, ident model.OAuthIdentity) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Exists(ctx context.Context, q sqlx.ExtContext, id string) (bool, error)
	UpdateName(ctx context.Context, q sqlx.ExtContext, id string, name *string) error
	GetSummaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error)
}

type ProfileRepository interface {
	// Ensure returns the user's profile, creating it atomically if missing.
	Ensure(ctx context.Context, q sqlx.ExtContext, userID string) (*model.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, q sqlx.ExtContext, profile *model.Profile) error
	Search(ctx context.Context, term string, limit int) ([]model.ProfileSearchResult, error)
	Counts(ctx context.Context, userID string) (*model.ProfileCounts, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID string) (*model.Post, error)
	// GetByIDs keeps the order of postIDs and skips ids that no longer exist.
	GetByIDs(ctx context.Context, postIDs []string) ([]model.Post, error)
	ListRecent(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error)
	ListByUser(ctx context.Context, userID string, cursor *string, limit int) ([]model.Post, *string, error)
	ListSaved(ctx context.Context, userID string) ([]model.Post, error)
	// Delete removes the post if userID owns it and returns what was removed.
	Delete(ctx context.Context, postID, userID string) (*model.Post, error)
	Exists(ctx context.Context, postID string) (bool, error)
	RecentScores(ctx context.Context, limit int) ([]model.PostScore, error)
	CommentCounts(ctx context.Context, postIDs []string) (map[string]int, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, commentID string) (*model.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]model.Comment, error)
	Delete(ctx context.Context, commentID, userID string) error
}

// EdgeRepository stores one relation's edges. Insert and Delete take the
// raw column values; for a relation stored via profiles those are profile
// ids. Every read method takes and returns user ids.
type EdgeRepository interface {
	Relation() model.Relation
	TargetExists(ctx context.Context, q sqlx.ExtContext, targetID string) (bool, error)
	Insert(ctx context.Context, q sqlx.ExtContext, actorID, targetID string) (bool, error)
	Delete(ctx context.Context, q sqlx.ExtContext, actorID, targetID string) (bool, error)
	Exists(ctx context.Context, actorID, targetID string) (bool, error)
	BatchStatus(ctx context.Context, actorID string, targetIDs []string) (model.IDSet, error)
	BatchCount(ctx context.Context, targetIDs []string) (map[string]int, error)
	CountByActor(ctx context.Context, actorID string) (int, error)
	CountByTarget(ctx context.Context, targetID string) (int, error)
}
