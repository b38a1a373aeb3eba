package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoskagram/internal/database/dbtest"
	"zoskagram/internal/model"
)

func TestUserRepository_UpsertOAuth(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	users := NewUserRepository(db)

	ident := model.OAuthIdentity{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "42",
		Name:              "Ana",
		Email:             "ana@example.com",
	}

	first, err := users.UpsertOAuth(ctx, ident)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, "Ana", *first.Name)

	// Same account resolves to the same user
	again, err := users.UpsertOAuth(ctx, ident)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// Another provider with the same email links to that user
	google := model.OAuthIdentity{
		Provider:          model.ProviderGoogle,
		ProviderAccountID: "g-1",
		Email:             "ana@example.com",
		Image:             "https://img.example.com/ana.png",
	}
	linked, err := users.UpsertOAuth(ctx, google)
	require.NoError(t, err)
	assert.Equal(t, first.ID, linked.ID)

	other, err := users.UpsertOAuth(ctx, model.OAuthIdentity{Provider: model.ProviderGoogle, ProviderAccountID: "g-2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Nil(t, other.Email)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	users := NewUserRepository(db)

	email := "ana@example.com"
	first := &model.User{Email: &email}
	require.NoError(t, users.Create(ctx, first))

	err := users.Create(ctx, &model.User{Email: &email})
	assert.ErrorIs(t, err, model.ErrUserExists)
	assert.ErrorIs(t, err, model.ErrInvalidOperation)

	err = users.Create(ctx, &model.User{ID: first.ID})
	assert.ErrorIs(t, err, model.ErrUserExists)

	// Users without an email never collide
	require.NoError(t, users.Create(ctx, &model.User{}))
	require.NoError(t, users.Create(ctx, &model.User{}))
}

func TestUserRepository_UpsertOAuthConcurrentFirstSignIn(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	users := NewUserRepository(db)

	ident := model.OAuthIdentity{
		Provider:          model.ProviderGitHub,
		ProviderAccountID: "7",
		Email:             "ben@example.com",
	}

	var wg sync.WaitGroup
	ids := make([]string, 6)
	errs := make([]error, 6)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := users.UpsertOAuth(ctx, ident)
			errs[i] = err
			if err == nil {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 1, n)
}

func TestUserRepository_ExistsAndSummaries(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	users := NewUserRepository(db)

	u1 := dbtest.InsertUser(t, db, "Ana")
	u2 := dbtest.InsertUser(t, db, "Ben")

	ok, err := users.Exists(ctx, db, u1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = users.Exists(ctx, db, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	summaries, err := users.GetSummaries(ctx, []string{u1, u2, "nobody", u1})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Ben", *summaries[u2].Name)

	name := "Benjamin"
	require.NoError(t, users.UpdateName(ctx, db, u2, &name))
	got, err := users.GetByID(ctx, u2)
	require.NoError(t, err)
	assert.Equal(t, "Benjamin", *got.Name)

	assert.ErrorIs(t, users.UpdateName(ctx, db, "nobody", &name), model.ErrUserNotFound)

	_, err = users.GetByID(ctx, "nobody")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestProfileRepository_EnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	profiles := NewProfileRepository(db)

	u1 := dbtest.InsertUser(t, db, "Ana")

	var wg sync.WaitGroup
	ids := make([]string, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := profiles.Ensure(ctx, db, u1)
			errs[i] = err
			if err == nil {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	_, err := profiles.Ensure(ctx, db, "nobody")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestProfileRepository_UpdateSearchCounts(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	profiles := NewProfileRepository(db)
	follows := NewEdgeRepository(db, model.RelationFollow)

	ana := dbtest.InsertUser(t, db, "Ana Lima")
	ben := dbtest.InsertUser(t, db, "Ben")
	dbtest.InsertPost(t, db, ana)

	pa, err := profiles.Ensure(ctx, db, ana)
	require.NoError(t, err)
	pb, err := profiles.Ensure(ctx, db, ben)
	require.NoError(t, err)

	bio := "climber"
	pb.Bio = &bio
	pb.Interests = model.Interests{"climbing", "100%_real"}
	require.NoError(t, profiles.Update(ctx, db, pb))

	got, err := profiles.GetByUserID(ctx, ben)
	require.NoError(t, err)
	assert.Equal(t, "climber", *got.Bio)
	assert.Equal(t, model.Interests{"climbing", "100%_real"}, got.Interests)

	// Name match is case-insensitive
	res, err := profiles.Search(ctx, "lima", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, ana, res[0].User.ID)

	// Interest match is exact
	res, err = profiles.Search(ctx, "climbing", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, ben, res[0].User.ID)

	res, err = profiles.Search(ctx, "climb", 10)
	require.NoError(t, err)
	assert.Empty(t, res)

	// LIKE wildcards in the term are literal
	res, err = profiles.Search(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = follows.Insert(ctx, db, pb.ID, pa.ID)
	require.NoError(t, err)

	counts, err := profiles.Counts(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, model.ProfileCounts{Followers: 1, Following: 0, Posts: 1}, *counts)

	_, err = profiles.GetByUserID(ctx, "nobody")
	assert.ErrorIs(t, err, model.ErrProfileNotFound)
}
