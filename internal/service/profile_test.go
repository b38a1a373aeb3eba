package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"zoskagram/internal/database/dbtest"
	"zoskagram/internal/model"
	"zoskagram/internal/service"
)

func (f *fixture) profileService() *service.ProfileService {
	return service.NewProfileService(f.db, f.users, f.profiles, f.posts, service.NewFollowService(f.follows), zap.NewNop())
}

func TestProfileService_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.InsertUser(t, f.db, "owner")
	fan := dbtest.InsertUser(t, f.db, "fan")
	dbtest.InsertPost(t, f.db, owner)
	dbtest.InsertPost(t, f.db, owner)
	profiles := f.profileService()

	following, err := f.follows.Toggle(ctx, fan, owner)
	require.NoError(t, err)
	require.True(t, following)

	view, err := profiles.Get(ctx, owner, fan)
	require.NoError(t, err)
	assert.Equal(t, owner, view.User.ID)
	assert.Equal(t, owner, view.Profile.UserID)
	assert.Equal(t, 1, view.FollowerCount)
	assert.Equal(t, 0, view.FollowingCount)
	assert.Equal(t, 2, view.PostCount)
	assert.Len(t, view.Posts, 2)
	assert.True(t, view.IsFollowing)

	// Your own profile never says you follow yourself
	view, err = profiles.Get(ctx, fan, fan)
	require.NoError(t, err)
	assert.Equal(t, 1, view.FollowingCount)
	assert.False(t, view.IsFollowing)
	assert.NotNil(t, view.Posts)

	_, err = profiles.Get(ctx, "ghost", fan)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestProfileService_GetCreatesProfileOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.InsertUser(t, f.db, "owner")
	profiles := f.profileService()

	var wg sync.WaitGroup
	ids := make([]string, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := profiles.Ensure(ctx, owner)
			if assert.NoError(t, err) {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var count int
	require.NoError(t, f.db.Get(&count, `SELECT COUNT(*) FROM profiles`))
	assert.Equal(t, 1, count)
}

func TestProfileService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.InsertUser(t, f.db, "owner")
	other := dbtest.InsertUser(t, f.db, "other")
	profiles := f.profileService()

	updated, err := profiles.Update(ctx, owner, owner, model.UpdateProfileRequest{
		Name:      strPtr("  New Name "),
		Bio:       strPtr("photographer"),
		Location:  strPtr("  "),
		Interests: []string{"Hory", "hory", " foto ", ""},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "photographer", *updated.Bio)
	assert.Nil(t, updated.Location)
	assert.Equal(t, model.Interests{"Hory", "foto"}, updated.Interests)

	user, err := f.users.GetByID(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, user.Name)
	assert.Equal(t, "New Name", *user.Name)

	_, err = profiles.Update(ctx, owner, other, model.UpdateProfileRequest{Bio: strPtr("hacked")})
	assert.ErrorIs(t, err, model.ErrNotProfileOwner)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = profiles.Update(ctx, owner, "", model.UpdateProfileRequest{})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	tests := []struct {
		name    string
		req     model.UpdateProfileRequest
		wantErr error
	}{
		{"blank name", model.UpdateProfileRequest{Name: strPtr(" ")}, model.ErrNameRequired},
		{"long name", model.UpdateProfileRequest{Name: strPtr(strings.Repeat("n", model.MaxNameLength+1))}, model.ErrNameTooLong},
		{"long bio", model.UpdateProfileRequest{Bio: strPtr(strings.Repeat("b", model.MaxBioLength+1))}, model.ErrBioTooLong},
		{"long location", model.UpdateProfileRequest{Location: strPtr(strings.Repeat("l", model.MaxLocationLength+1))}, model.ErrLocationTooLong},
		{"too many interests", model.UpdateProfileRequest{Interests: manyInterests(model.MaxInterests + 1)}, model.ErrTooManyInterests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := profiles.Update(ctx, owner, owner, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Failed validation left the saved profile alone
	profile, err := f.profiles.GetByUserID(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "photographer", *profile.Bio)
}

func TestProfileService_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	anna := dbtest.InsertUser(t, f.db, "Anna Kováčová")
	peter := dbtest.InsertUser(t, f.db, "Peter")
	profiles := f.profileService()

	_, err := profiles.Update(ctx, peter, peter, model.UpdateProfileRequest{Interests: []string{"hory"}})
	require.NoError(t, err)
	_, err = profiles.Ensure(ctx, anna)
	require.NoError(t, err)

	results, err := profiles.Search(ctx, "anna")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, anna, results[0].User.ID)

	results, err = profiles.Search(ctx, "hory")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, peter, results[0].UserID)

	results, err = profiles.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func manyInterests(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "interest-" + strings.Repeat("x", i+1)
	}
	return out
}
