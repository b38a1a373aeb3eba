package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"zoskagram/internal/database"
	"zoskagram/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a new comment. ID and CreatedAt are set on the passed comment.
func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	comment.ID = uuid.NewString()
	comment.CreatedAt = database.Now()

	query := r.db.Rebind(`
		INSERT INTO comments (id, post_id, user_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.PostID, comment.UserID, comment.Content, comment.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return model.ErrPostNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID string) (*model.Comment, error) {
	query := r.db.Rebind(`
		SELECT id, post_id, user_id, content, created_at
		FROM comments
		WHERE id = ?
	`)
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, query, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// ListByPost returns a post's comments newest first, with author and like count.
func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	query := r.db.Rebind(`
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		       u.name AS author_name, u.image AS author_image,
		       (SELECT COUNT(*) FROM comment_likes cl WHERE cl.comment_id = c.id) AS like_count
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ?
		ORDER BY c.created_at DESC, c.id DESC
	`)

	type commentRow struct {
		ID          string    `db:"id"`
		PostID      string    `db:"post_id"`
		UserID      string    `db:"user_id"`
		Content     string    `db:"content"`
		CreatedAt   time.Time `db:"created_at"`
		AuthorName  *string   `db:"author_name"`
		AuthorImage *string   `db:"author_image"`
		LikeCount   int       `db:"like_count"`
	}

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, postID); err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = model.Comment{
			ID:        row.ID,
			PostID:    row.PostID,
			UserID:    row.UserID,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
			LikeCount: row.LikeCount,
			Author: &model.UserSummary{
				ID:    row.UserID,
				Name:  row.AuthorName,
				Image: row.AuthorImage,
			},
		}
	}
	return comments, nil
}

// Delete removes a comment. Only the comment owner can delete.
func (r *commentRepository) Delete(ctx context.Context, commentID, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID string
	err = tx.GetContext(ctx, &ownerID, tx.Rebind(`SELECT user_id FROM comments WHERE id = ?`), commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrCommentNotFound
	}
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if ownerID != userID {
		return model.ErrNotCommentOwner
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM comments WHERE id = ?`), commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return tx.Commit()
}
