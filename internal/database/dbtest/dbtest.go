// Package dbtest opens throwaway databases with the production schema.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"zoskagram/internal/database"
)

var seq atomic.Int64

// New returns a migrated in-memory SQLite database that is closed when the
// test ends. Every call gets its own database.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:dbtest%d?mode=memory&cache=shared", seq.Add(1))
	db, err := database.Open(context.Background(), database.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// InsertUser creates a user row and returns its id.
func InsertUser(t testing.TB, db *sqlx.DB, name string) string {
	t.Helper()

	id := uuid.NewString()
	now := database.Now()
	_, err := db.Exec(db.Rebind(`INSERT INTO users (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`),
		id, name, now, now)
	require.NoError(t, err)
	return id
}

// InsertPost creates a post by userID and returns its id. Successive calls
// get strictly increasing timestamps.
func InsertPost(t testing.TB, db *sqlx.DB, userID string) string {
	t.Helper()

	id := uuid.NewString()
	now := database.Now().Add(time.Duration(seq.Add(1)) * time.Microsecond)
	_, err := db.Exec(db.Rebind(`
		INSERT INTO posts (id, user_id, image_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`), id, userID, "https://cdn.example.com/"+id+".jpg", now, now)
	require.NoError(t, err)
	return id
}

// InsertComment creates a comment and returns its id.
func InsertComment(t testing.TB, db *sqlx.DB, postID, userID, content string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := db.Exec(db.Rebind(`
		INSERT INTO comments (id, post_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)
	`), id, postID, userID, content, database.Now())
	require.NoError(t, err)
	return id
}
