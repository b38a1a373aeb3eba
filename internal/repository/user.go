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

const userColumns = `id, name, email, image, created_at, updated_at`

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. An empty ID gets a fresh UUID.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return r.create(ctx, r.db, u)
}

func (r *userRepository) create(ctx context.Context, q sqlx.ExtContext, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := database.Now()
	u.CreatedAt, u.UpdatedAt = now, now

	query := q.Rebind(`
		INSERT INTO users (id, name, email, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if _, err := q.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.Image, u.CreatedAt, u.UpdatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return model.ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpsertOAuth finds the user behind a provider account. On first sign-in the
// account is linked to an existing user with the same email, or to a new one.
func (r *userRepository) UpsertOAuth(ctx context.Context, ident model.OAuthIdentity) (*model.User, error) {
	user, err := r.upsertOAuth(ctx, ident)
	if errors.Is(err, model.ErrUserExists) || database.IsUniqueViolation(err) {
		// A concurrent first sign-in linked the account or email first
		return r.upsertOAuth(ctx, ident)
	}
	return user, err
}

func (r *userRepository) upsertOAuth(ctx context.Context, ident model.OAuthIdentity) (*model.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.GetContext(ctx, &userID, tx.Rebind(`
		SELECT user_id FROM accounts WHERE provider = ? AND provider_account_id = ?
	`), ident.Provider, ident.ProviderAccountID)

	switch {
	case err == nil:
		// Known account: refresh what the provider tells us
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE users SET image = COALESCE(?, image), updated_at = ? WHERE id = ?
		`), nullable(ident.Image), database.Now(), userID)
		if err != nil {
			return nil, fmt.Errorf("refresh user: %w", err)
		}

	case errors.Is(err, sql.ErrNoRows):
		userID, err = r.linkAccount(ctx, tx, ident)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("get account: %w", err)
	}

	var user model.User
	if err := tx.GetContext(ctx, &user, tx.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), userID); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &user, nil
}

func (r *userRepository) linkAccount(ctx context.Context, tx *sqlx.Tx, ident model.OAuthIdentity) (string, error) {
	var userID string
	if ident.Email != "" {
		err := tx.GetContext(ctx, &userID, tx.Rebind(`SELECT id FROM users WHERE email = ?`), ident.Email)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("get user by email: %w", err)
		}
	}

	if userID == "" {
		u := &model.User{
			Name:  nullable(ident.Name),
			Email: nullable(ident.Email),
			Image: nullable(ident.Image),
		}
		if err := r.create(ctx, tx, u); err != nil {
			return "", err
		}
		userID = u.ID
	}

	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO accounts (id, user_id, provider, provider_account_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), uuid.NewString(), userID, ident.Provider, ident.ProviderAccountID, database.Now())
	if err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}
	return userID, nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, q sqlx.ExtContext, id string) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(`SELECT COUNT(*) FROM users WHERE id = ?`), id); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return n > 0, nil
}

func (r *userRepository) UpdateName(ctx context.Context, q sqlx.ExtContext, id string, name *string) error {
	result, err := q.ExecContext(ctx, q.Rebind(`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`),
		name, database.Now(), id)
	if err != nil {
		return fmt.Errorf("update user name: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// GetSummaries returns the public summary of each existing user, keyed by id.
func (r *userRepository) GetSummaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	unique := uniqueIDs(ids)
	result := make(map[string]model.UserSummary, len(unique))
	if len(unique) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, image FROM users WHERE id IN (?)`, unique)
	if err != nil {
		return nil, fmt.Errorf("build user summary query: %w", err)
	}
	var users []model.UserSummary
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get user summaries: %w", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
