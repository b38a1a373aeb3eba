package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoskagram/internal/database/dbtest"
	"zoskagram/internal/model"
)

func TestEdgeRepository_InsertDelete(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	likes := NewEdgeRepository(db, model.RelationPostLike)

	u1 := dbtest.InsertUser(t, db, "Ana")
	p1 := dbtest.InsertPost(t, db, u1)

	inserted, err := likes.Insert(ctx, db, u1, p1)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second insert is a no-op, not a duplicate
	inserted, err = likes.Insert(ctx, db, u1, p1)
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := likes.CountByTarget(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err := likes.Delete(ctx, db, u1, p1)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = likes.Delete(ctx, db, u1, p1)
	require.NoError(t, err)
	assert.False(t, removed)

	exists, err := likes.Exists(ctx, u1, p1)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEdgeRepository_InsertMissingTarget(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	saves := NewEdgeRepository(db, model.RelationSave)

	u1 := dbtest.InsertUser(t, db, "Ana")

	_, err := saves.Insert(ctx, db, u1, "missing-post")
	assert.ErrorIs(t, err, model.ErrPostNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEdgeRepository_BatchStatus(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	likes := NewEdgeRepository(db, model.RelationPostLike)

	u1 := dbtest.InsertUser(t, db, "Ana")
	u2 := dbtest.InsertUser(t, db, "Ben")
	posts := make([]string, 5)
	for i := range posts {
		posts[i] = dbtest.InsertPost(t, db, u2)
	}

	// u1 likes posts 0 and 3, u2 likes post 1
	for _, p := range []string{posts[0], posts[3]} {
		_, err := likes.Insert(ctx, db, u1, p)
		require.NoError(t, err)
	}
	_, err := likes.Insert(ctx, db, u2, posts[1])
	require.NoError(t, err)

	// Duplicates in the input are tolerated
	query := append([]string{posts[3]}, posts...)
	set, err := likes.BatchStatus(ctx, u1, query)
	require.NoError(t, err)
	assert.Equal(t, model.NewIDSet(posts[0], posts[3]), set)

	set, err = likes.BatchStatus(ctx, u1, nil)
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestEdgeRepository_BatchCount(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	likes := NewEdgeRepository(db, model.RelationPostLike)

	author := dbtest.InsertUser(t, db, "Author")
	p1 := dbtest.InsertPost(t, db, author)
	p2 := dbtest.InsertPost(t, db, author)

	const n = 4
	actors := make([]string, n)
	for i := range actors {
		actors[i] = dbtest.InsertUser(t, db, "fan")
		_, err := likes.Insert(ctx, db, actors[i], p1)
		require.NoError(t, err)
	}

	counts, err := likes.BatchCount(ctx, []string{p1, p2, p1})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{p1: n, p2: 0}, counts)

	_, err = likes.Delete(ctx, db, actors[0], p1)
	require.NoError(t, err)

	counts, err = likes.BatchCount(ctx, []string{p1})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{p1: n - 1}, counts)
}

func TestEdgeRepository_FollowResolvesProfiles(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	follows := NewEdgeRepository(db, model.RelationFollow)
	profiles := NewProfileRepository(db)

	u1 := dbtest.InsertUser(t, db, "Ana")
	u2 := dbtest.InsertUser(t, db, "Ben")
	u3 := dbtest.InsertUser(t, db, "Cy")

	p1, err := profiles.Ensure(ctx, db, u1)
	require.NoError(t, err)
	p2, err := profiles.Ensure(ctx, db, u2)
	require.NoError(t, err)

	// Stored by profile id
	inserted, err := follows.Insert(ctx, db, p1.ID, p2.ID)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Read by user id
	exists, err := follows.Exists(ctx, u1, u2)
	require.NoError(t, err)
	assert.True(t, exists)

	set, err := follows.BatchStatus(ctx, u1, []string{u2, u3, u1})
	require.NoError(t, err)
	assert.Equal(t, model.NewIDSet(u2), set)

	counts, err := follows.BatchCount(ctx, []string{u2, u3})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{u2: 1, u3: 0}, counts)

	following, err := follows.CountByActor(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, 1, following)

	ok, err := follows.TargetExists(ctx, db, u3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEdgeRepository_FollowSelfRejectedByStore(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	follows := NewEdgeRepository(db, model.RelationFollow)

	u1 := dbtest.InsertUser(t, db, "Ana")
	p1, err := NewProfileRepository(db).Ensure(ctx, db, u1)
	require.NoError(t, err)

	_, err = follows.Insert(ctx, db, p1.ID, p1.ID)
	assert.Error(t, err)
}

func TestEdgeRepository_ClosedDatabase(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	likes := NewEdgeRepository(db, model.RelationPostLike)
	require.NoError(t, db.Close())

	_, err := likes.BatchStatus(ctx, "u1", []string{"p1"})
	assert.Error(t, err)

	_, err = likes.BatchCount(ctx, []string{"p1"})
	assert.Error(t, err)
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, uniqueIDs([]string{"a", "", "b", "a", "c", "b"}))
	assert.Empty(t, uniqueIDs(nil))
}
