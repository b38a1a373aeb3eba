package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"zoskagram/internal/database"
	"zoskagram/internal/model"
)

const profileColumns = `p.id, p.user_id, p.bio, p.location, p.avatar_url, p.interests, p.created_at, p.updated_at`

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Ensure is an atomic ensure-exists: two callers racing on the same user
// both end up reading the single row that won.
func (r *profileRepository) Ensure(ctx context.Context, q sqlx.ExtContext, userID string) (*model.Profile, error) {
	now := database.Now()
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO profiles (id, user_id, interests, created_at, updated_at)
		VALUES (?, ?, '[]', ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`), uuid.NewString(), userID, now, now)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("ensure profile: %w", err)
	}

	var profile model.Profile
	err = sqlx.GetContext(ctx, q, &profile, q.Rebind(`SELECT `+profileColumns+` FROM profiles p WHERE p.user_id = ?`), userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, r.db.Rebind(`SELECT `+profileColumns+` FROM profiles p WHERE p.user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, q sqlx.ExtContext, profile *model.Profile) error {
	profile.UpdatedAt = database.Now()
	result, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE profiles
		SET bio = ?, location = ?, avatar_url = ?, interests = ?, updated_at = ?
		WHERE user_id = ?
	`), profile.Bio, profile.Location, profile.AvatarURL, profile.Interests, profile.UpdatedAt, profile.UserID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}

// Search matches users whose name contains term (case-insensitive) or who
// list term as one of their interests.
func (r *profileRepository) Search(ctx context.Context, term string, limit int) ([]model.ProfileSearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []model.ProfileSearchResult{}, nil
	}

	encoded, err := json.Marshal(term)
	if err != nil {
		return nil, fmt.Errorf("encode search term: %w", err)
	}
	namePattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	interestPattern := "%" + escapeLike(string(encoded)) + "%"

	query := r.db.Rebind(`
		SELECT ` + profileColumns + `, u.name AS user_name, u.image AS user_image
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE LOWER(u.name) LIKE ? ESCAPE '\'
		   OR p.interests LIKE ? ESCAPE '\'
		ORDER BY u.name, p.id
		LIMIT ?
	`)

	var rows []struct {
		model.Profile
		UserName  *string `db:"user_name"`
		UserImage *string `db:"user_image"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, namePattern, interestPattern, limit); err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}

	results := make([]model.ProfileSearchResult, len(rows))
	for i, row := range rows {
		results[i] = model.ProfileSearchResult{
			Profile: row.Profile,
			User: model.UserSummary{
				ID:    row.UserID,
				Name:  row.UserName,
				Image: row.UserImage,
			},
		}
	}
	return results, nil
}

// Counts returns follower, following and post counts in one round trip.
func (r *profileRepository) Counts(ctx context.Context, userID string) (*model.ProfileCounts, error) {
	query := r.db.Rebind(`
		SELECT
		    (SELECT COUNT(*) FROM follows f JOIN profiles p ON p.id = f.following_id WHERE p.user_id = ?) AS followers,
		    (SELECT COUNT(*) FROM follows f JOIN profiles p ON p.id = f.follower_id WHERE p.user_id = ?) AS following,
		    (SELECT COUNT(*) FROM posts WHERE user_id = ?) AS posts
	`)
	var counts model.ProfileCounts
	if err := r.db.GetContext(ctx, &counts, query, userID, userID, userID); err != nil {
		return nil, fmt.Errorf("get profile counts: %w", err)
	}
	return &counts, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
