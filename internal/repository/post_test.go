package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoskagram/internal/database/dbtest"
	"zoskagram/internal/model"
)

func TestPostRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	posts := NewPostRepository(db)

	u1 := dbtest.InsertUser(t, db, "Ana")
	caption := "sunset"
	post := &model.Post{UserID: u1, ImageURL: "https://cdn.example.com/a.jpg", Caption: &caption}
	require.NoError(t, posts.Create(ctx, post))
	require.NotEmpty(t, post.ID)

	got, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, u1, got.UserID)
	assert.Equal(t, "sunset", *got.Caption)
	assert.True(t, got.CreatedAt.Equal(post.CreatedAt))

	_, err = posts.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrPostNotFound)

	err = posts.Create(ctx, &model.Post{UserID: "missing", ImageURL: "x"})
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestPostRepository_ListPaginates(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	posts := NewPostRepository(db)

	u1 := dbtest.InsertUser(t, db, "Ana")
	u2 := dbtest.InsertUser(t, db, "Ben")
	var mine []string
	for i := 0; i < 5; i++ {
		mine = append(mine, dbtest.InsertPost(t, db, u1))
		dbtest.InsertPost(t, db, u2)
	}

	var seen []string
	var cursor *string
	for page := 0; page < 10; page++ {
		list, next, err := posts.ListByUser(ctx, u1, cursor, 2)
		require.NoError(t, err)
		for _, p := range list {
			assert.Equal(t, u1, p.UserID)
			seen = append(seen, p.ID)
		}
		if next == nil {
			break
		}
		cursor = next
	}

	// Newest first
	want := []string{mine[4], mine[3], mine[2], mine[1], mine[0]}
	assert.Equal(t, want, seen)

	all, next, err := posts.ListRecent(ctx, nil, 50)
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Len(t, all, 10)

	bad := "garbage"
	_, _, err = posts.ListRecent(ctx, &bad, 10)
	assert.ErrorIs(t, err, model.ErrInvalidCursor)
}

func TestPostRepository_GetByIDsKeepsOrder(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	posts := NewPostRepository(db)

	u1 := dbtest.InsertUser(t, db, "Ana")
	a := dbtest.InsertPost(t, db, u1)
	b := dbtest.InsertPost(t, db, u1)
	c := dbtest.InsertPost(t, db, u1)

	got, err := posts.GetByIDs(ctx, []string{c, "gone", a, b})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{c, a, b}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestPostRepository_DeleteOwnership(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	posts := NewPostRepository(db)
	likes := NewEdgeRepository(db, model.RelationPostLike)

	owner := dbtest.InsertUser(t, db, "Ana")
	other := dbtest.InsertUser(t, db, "Ben")
	p1 := dbtest.InsertPost(t, db, owner)
	_, err := likes.Insert(ctx, db, other, p1)
	require.NoError(t, err)

	_, err = posts.Delete(ctx, p1, other)
	assert.ErrorIs(t, err, model.ErrNotPostOwner)

	deleted, err := posts.Delete(ctx, p1, owner)
	require.NoError(t, err)
	assert.Equal(t, p1, deleted.ID)

	_, err = posts.Delete(ctx, p1, owner)
	assert.ErrorIs(t, err, model.ErrPostNotFound)

	// Likes cascade with the post
	n, err := likes.CountByActor(ctx, other)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostRepository_CountsAndScores(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	posts := NewPostRepository(db)

	u1 := dbtest.InsertUser(t, db, "Ana")
	p1 := dbtest.InsertPost(t, db, u1)
	p2 := dbtest.InsertPost(t, db, u1)
	dbtest.InsertComment(t, db, p1, u1, "first")
	dbtest.InsertComment(t, db, p1, u1, "second")

	counts, err := posts.CommentCounts(ctx, []string{p1, p2})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{p1: 2, p2: 0}, counts)

	scores, err := posts.RecentScores(ctx, 10)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, p2, scores[0].PostID)
	assert.Greater(t, scores[0].Score, scores[1].Score)
}

func TestPostRepository_ListSaved(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	posts := NewPostRepository(db)
	saves := NewEdgeRepository(db, model.RelationSave)

	u1 := dbtest.InsertUser(t, db, "Ana")
	p1 := dbtest.InsertPost(t, db, u1)
	dbtest.InsertPost(t, db, u1)

	_, err := saves.Insert(ctx, db, u1, p1)
	require.NoError(t, err)

	saved, err := posts.ListSaved(ctx, u1)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, p1, saved[0].ID)
}

func TestCursorRoundTrip(t *testing.T) {
	id, ts, err := parseCursor("3f1c8a52-0d5e-4f7e-9d3b-1c2a3b4c5d6e:1700000000123456")
	require.NoError(t, err)
	assert.Equal(t, "3f1c8a52-0d5e-4f7e-9d3b-1c2a3b4c5d6e", id)
	assert.Equal(t, int64(1700000000123456), ts.UnixMicro())

	for _, bad := range []string{"", ":", "abc", "abc:", ":123", "abc:xyz"} {
		_, _, err := parseCursor(bad)
		assert.ErrorIs(t, err, model.ErrInvalidCursor, bad)
	}
}
