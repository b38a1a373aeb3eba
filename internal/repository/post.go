package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"zoskagram/internal/database"
	"zoskagram/internal/model"
)

const postColumns = `p.id, p.user_id, p.image_url, p.image_key, p.caption, p.created_at, p.updated_at`

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a post. ID and timestamps are filled in on the passed post.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := database.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO posts (id, user_id, image_url, image_key, caption, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.UserID, post.ImageURL, post.ImageKey, post.Caption, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return model.ErrUserNotFound
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	query := r.db.Rebind(`SELECT ` + postColumns + ` FROM posts p WHERE p.id = ?`)
	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// GetByIDs retrieves multiple posts in one query. Used for hydrating the
// feed from cache, so the input order is kept.
func (r *postRepository) GetByIDs(ctx context.Context, postIDs []string) ([]model.Post, error) {
	ids := uniqueIDs(postIDs)
	if len(ids) == 0 {
		return []model.Post{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+postColumns+` FROM posts p WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build posts query: %w", err)
	}
	var posts []model.Post
	if err := r.db.SelectContext(ctx, &posts, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}

	byID := make(map[string]model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]model.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// ListRecent pages through all posts, newest first.
func (r *postRepository) ListRecent(ctx context.Context, cursor *string, limit int) ([]model.Post, *string, error) {
	return r.list(ctx, "", cursor, limit)
}

// ListByUser pages through one user's posts, newest first.
func (r *postRepository) ListByUser(ctx context.Context, userID string, cursor *string, limit int) ([]model.Post, *string, error) {
	return r.list(ctx, userID, cursor, limit)
}

func (r *postRepository) list(ctx context.Context, userID string, cursor *string, limit int) ([]model.Post, *string, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE 1 = 1`
	var args []interface{}

	if userID != "" {
		query += ` AND p.user_id = ?`
		args = append(args, userID)
	}
	if cursor != nil {
		id, ts, err := parseCursor(*cursor)
		if err != nil {
			return nil, nil, err
		}
		query += ` AND (p.created_at < ? OR (p.created_at = ? AND p.id < ?))`
		args = append(args, ts, ts, id)
	}
	// Fetch one extra row to know whether another page exists
	query += ` ORDER BY p.created_at DESC, p.id DESC LIMIT ?`
	args = append(args, limit+1)

	var posts []model.Post
	if err := r.db.SelectContext(ctx, &posts, r.db.Rebind(query), args...); err != nil {
		return nil, nil, fmt.Errorf("list posts: %w", err)
	}

	var nextCursor *string
	if len(posts) > limit {
		posts = posts[:limit]
		last := posts[len(posts)-1]
		c := formatCursor(last.ID, last.CreatedAt)
		nextCursor = &c
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nextCursor, nil
}

// ListSaved returns the posts a user saved, most recently saved first.
func (r *postRepository) ListSaved(ctx context.Context, userID string) ([]model.Post, error) {
	query := r.db.Rebind(`
		SELECT ` + postColumns + `
		FROM saved_posts s
		JOIN posts p ON p.id = s.post_id
		WHERE s.user_id = ?
		ORDER BY s.created_at DESC, s.id DESC
	`)
	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, userID); err != nil {
		return nil, fmt.Errorf("list saved posts: %w", err)
	}
	return posts, nil
}

// Delete removes a post owned by userID. Likes, saves and comments go with
// it through ON DELETE CASCADE.
func (r *postRepository) Delete(ctx context.Context, postID, userID string) (*model.Post, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var post model.Post
	err = tx.GetContext(ctx, &post, tx.Rebind(`SELECT `+postColumns+` FROM posts p WHERE p.id = ?`), postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post.UserID != userID {
		return nil, model.ErrNotPostOwner
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM posts WHERE id = ?`), postID); err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, postID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM posts WHERE id = ?`), postID)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return n > 0, nil
}

// RecentScores returns the newest posts with their feed score, for cache warming.
func (r *postRepository) RecentScores(ctx context.Context, limit int) ([]model.PostScore, error) {
	query := r.db.Rebind(`SELECT id, created_at FROM posts ORDER BY created_at DESC, id DESC LIMIT ?`)
	var rows []struct {
		ID        string       `db:"id"`
		CreatedAt sql.NullTime `db:"created_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}

	scores := make([]model.PostScore, len(rows))
	for i, row := range rows {
		scores[i] = model.PostScore{PostID: row.ID, Score: row.CreatedAt.Time.UnixMicro()}
	}
	return scores, nil
}

// CommentCounts counts comments per post in one query. Posts without
// comments are present with zero.
func (r *postRepository) CommentCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	ids := uniqueIDs(postIDs)
	counts := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(
		`SELECT post_id, COUNT(*) AS n FROM comments WHERE post_id IN (?) GROUP BY post_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("build comment count query: %w", err)
	}
	var rows []struct {
		PostID string `db:"post_id"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	for _, id := range ids {
		counts[id] = 0
	}
	for _, row := range rows {
		counts[row.PostID] = row.N
	}
	return counts, nil
}
