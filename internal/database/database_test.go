package database_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoskagram/internal/database"
	"zoskagram/internal/database/dbtest"
)

func TestConstraintErrors(t *testing.T) {
	db := dbtest.New(t)
	u1 := dbtest.InsertUser(t, db, "Ana")
	now := database.Now()

	_, err := db.Exec(db.Rebind(`INSERT INTO users (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`),
		u1, "Again", now, now)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsForeignKeyViolation(err))

	_, err = db.Exec(db.Rebind(`INSERT INTO posts (id, user_id, image_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`),
		"p1", "nobody", "https://cdn.example.com/p1.jpg", now, now)
	require.Error(t, err)
	assert.True(t, database.IsForeignKeyViolation(err))
	assert.False(t, database.IsUniqueViolation(err))

	assert.False(t, database.IsUniqueViolation(errors.New("boom")))
	assert.False(t, database.IsUniqueViolation(nil))
}
