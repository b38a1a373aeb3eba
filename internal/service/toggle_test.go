package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"zoskagram/internal/database/dbtest"
	"zoskagram/internal/model"
	"zoskagram/internal/repository"
	"zoskagram/internal/service"
)

// =============================================================================
// Fixture
// =============================================================================

type fixture struct {
	db           *sqlx.DB
	users        repository.UserRepository
	profiles     repository.ProfileRepository
	posts        repository.PostRepository
	comments     repository.CommentRepository
	likes        *service.Toggler
	commentLikes *service.Toggler
	follows      *service.Toggler
	saves        *service.Toggler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	log := zap.NewNop()

	f := &fixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		profiles: repository.NewProfileRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
	}
	toggler := func(rel model.Relation) *service.Toggler {
		return service.NewToggler(db, repository.NewEdgeRepository(db, rel), f.users, f.profiles, log)
	}
	f.likes = toggler(model.RelationPostLike)
	f.commentLikes = toggler(model.RelationCommentLike)
	f.follows = toggler(model.RelationFollow)
	f.saves = toggler(model.RelationSave)
	return f
}

func (f *fixture) feed() *service.FeedService {
	return service.NewFeedService(nil, f.posts, f.users, f.likes, f.saves, zap.NewNop())
}

// =============================================================================
// Toggle
// =============================================================================

func TestToggle_LikeScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := dbtest.InsertUser(t, f.db, "u1")
	p1 := dbtest.InsertPost(t, f.db, u1)

	assert.Equal(t, map[string]int{p1: 0}, f.likes.BatchCount(ctx, []string{p1}))

	liked, err := f.likes.Toggle(ctx, u1, p1)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, map[string]int{p1: 1}, f.likes.BatchCount(ctx, []string{p1}))

	liked, err = f.likes.Toggle(ctx, u1, p1)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, map[string]int{p1: 0}, f.likes.BatchCount(ctx, []string{p1}))
}

func TestToggle_DoubleToggleIsNoOpForEveryRelation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := dbtest.InsertUser(t, f.db, "alice")
	bob := dbtest.InsertUser(t, f.db, "bob")
	post := dbtest.InsertPost(t, f.db, bob)
	comment := dbtest.InsertComment(t, f.db, post, bob, "nice")

	tests := []struct {
		name    string
		toggler *service.Toggler
		target  string
	}{
		{"like", f.likes, post},
		{"comment_like", f.commentLikes, comment},
		{"follow", f.follows, bob},
		{"save", f.saves, post},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.toggler.Status(ctx, alice, tt.target)

			first, err := tt.toggler.Toggle(ctx, alice, tt.target)
			require.NoError(t, err)
			assert.Equal(t, !before, first)
			assert.Equal(t, first, tt.toggler.Status(ctx, alice, tt.target))

			second, err := tt.toggler.Toggle(ctx, alice, tt.target)
			require.NoError(t, err)
			assert.Equal(t, before, second)
			assert.Equal(t, before, tt.toggler.Status(ctx, alice, tt.target))
			assert.Equal(t, 0, tt.toggler.Count(ctx, tt.target))
		})
	}
}

func TestToggle_SelfFollowRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := dbtest.InsertUser(t, f.db, "u1")

	_, err := f.follows.Toggle(ctx, u1, u1)
	require.ErrorIs(t, err, model.ErrCannotFollowSelf)
	assert.ErrorIs(t, err, model.ErrInvalidOperation)

	assert.Empty(t, f.follows.BatchStatus(ctx, u1, []string{u1}))
	assert.Equal(t, 0, f.follows.Count(ctx, u1))

	// Rejected before any store access, so no profile was created either
	var profiles int
	require.NoError(t, f.db.Get(&profiles, `SELECT COUNT(*) FROM profiles`))
	assert.Zero(t, profiles)
}

func TestToggle_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := dbtest.InsertUser(t, f.db, "u1")
	p1 := dbtest.InsertPost(t, f.db, u1)

	tests := []struct {
		name    string
		toggler *service.Toggler
		actor   string
		target  string
		wantErr error
	}{
		{"no session", f.likes, "", p1, model.ErrUnauthorized},
		{"missing target id", f.likes, u1, "", model.ErrTargetRequired},
		{"unknown actor", f.likes, "ghost", p1, model.ErrUserNotFound},
		{"unknown post", f.likes, u1, "missing", model.ErrPostNotFound},
		{"unknown comment", f.commentLikes, u1, "missing", model.ErrCommentNotFound},
		{"unknown user to follow", f.follows, u1, "missing", model.ErrUserNotFound},
		{"unknown post to save", f.saves, u1, "missing", model.ErrPostNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, err := tt.toggler.Toggle(ctx, tt.actor, tt.target)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, active)
		})
	}

	var edges int
	require.NoError(t, f.db.Get(&edges, `SELECT COUNT(*) FROM likes`))
	assert.Zero(t, edges)
}

func TestToggle_CountAcrossActors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := dbtest.InsertUser(t, f.db, "author")
	post := dbtest.InsertPost(t, f.db, author)

	const n = 8
	actors := make([]string, n)
	for i := range actors {
		actors[i] = dbtest.InsertUser(t, f.db, fmt.Sprintf("fan%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, actor := range actors {
		wg.Add(1)
		go func(actor string) {
			defer wg.Done()
			if _, err := f.likes.Toggle(ctx, actor, post); err != nil {
				errs <- err
			}
		}(actor)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, map[string]int{post: n}, f.likes.BatchCount(ctx, []string{post}))

	liked, err := f.likes.Toggle(ctx, actors[3], post)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, map[string]int{post: n - 1}, f.likes.BatchCount(ctx, []string{post}))
}

func TestToggle_FollowCountsBothDirections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := dbtest.InsertUser(t, f.db, "alice")
	bob := dbtest.InsertUser(t, f.db, "bob")
	carol := dbtest.InsertUser(t, f.db, "carol")

	for _, follower := range []string{alice, carol} {
		following, err := f.follows.Toggle(ctx, follower, bob)
		require.NoError(t, err)
		assert.True(t, following)
	}

	assert.Equal(t, 2, f.follows.Count(ctx, bob))
	assert.Equal(t, 1, f.follows.CountByActor(ctx, alice))
	assert.Equal(t, model.NewIDSet(bob), f.follows.BatchStatus(ctx, alice, []string{bob, carol}))
	assert.Equal(t, map[string]int{bob: 2, carol: 0, alice: 0},
		f.follows.BatchCount(ctx, []string{bob, carol, alice}))
}

// =============================================================================
// Batch queries
// =============================================================================

func TestBatchStatus_ReturnsExactlyTheToggledSubset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := dbtest.InsertUser(t, f.db, "actor")
	other := dbtest.InsertUser(t, f.db, "other")

	all := make([]string, 6)
	for i := range all {
		all[i] = dbtest.InsertPost(t, f.db, other)
	}
	subset := model.NewIDSet(all[0], all[2], all[5])
	for id := range subset {
		_, err := f.saves.Toggle(ctx, actor, id)
		require.NoError(t, err)
	}
	// Another actor's edges must not leak into the result
	_, err := f.saves.Toggle(ctx, other, all[1])
	require.NoError(t, err)

	assert.Equal(t, subset, f.saves.BatchStatus(ctx, actor, all))

	// Duplicates are tolerated
	withDupes := append([]string{all[0], all[0]}, all...)
	assert.Equal(t, subset, f.saves.BatchStatus(ctx, actor, withDupes))

	for _, id := range all {
		assert.Equal(t, subset.Has(id), f.saves.Status(ctx, actor, id), id)
	}
}

func TestBatchQueries_Guests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := dbtest.InsertUser(t, f.db, "u")
	p := dbtest.InsertPost(t, f.db, u)

	assert.Empty(t, f.likes.BatchStatus(ctx, "", []string{p}))
	assert.Empty(t, f.likes.BatchStatus(ctx, u, nil))
	assert.Empty(t, f.likes.BatchCount(ctx, nil))
	assert.False(t, f.likes.Status(ctx, "", p))
}

func TestBatchQueries_FailClosedWhenStoreIsDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := dbtest.InsertUser(t, f.db, "u")
	p := dbtest.InsertPost(t, f.db, u)
	_, err := f.likes.Toggle(ctx, u, p)
	require.NoError(t, err)

	require.NoError(t, f.db.Close())

	status := f.likes.BatchStatus(ctx, u, []string{p})
	assert.NotNil(t, status)
	assert.Empty(t, status)

	counts := f.likes.BatchCount(ctx, []string{p})
	assert.NotNil(t, counts)
	assert.Empty(t, counts)

	assert.False(t, f.likes.Status(ctx, u, p))
	assert.Zero(t, f.likes.Count(ctx, p))

	// Writes surface the failure so the client can roll back
	_, err = f.likes.Toggle(ctx, u, p)
	assert.ErrorIs(t, err, model.ErrOperationFailed)
}

// =============================================================================
// Lost insert race
// =============================================================================

// racingEdges behaves as if another request inserted the edge between this
// toggle's delete and insert.
type racingEdges struct {
	repository.EdgeRepository
	inserts int
}

func (r *racingEdges) Relation() model.Relation { return model.RelationPostLike }

func (r *racingEdges) TargetExists(ctx context.Context, q sqlx.ExtContext, id string) (bool, error) {
	return true, nil
}

func (r *racingEdges) Delete(ctx context.Context, q sqlx.ExtContext, actor, target string) (bool, error) {
	return false, nil
}

func (r *racingEdges) Insert(ctx context.Context, q sqlx.ExtContext, actor, target string) (bool, error) {
	r.inserts++
	return false, nil
}

type knownUsers struct {
	repository.UserRepository
}

func (knownUsers) Exists(ctx context.Context, q sqlx.ExtContext, id string) (bool, error) {
	return true, nil
}

func TestToggle_LostInsertRaceStillReportsActive(t *testing.T) {
	db := dbtest.New(t)
	edges := &racingEdges{}
	toggler := service.NewToggler(db, edges, knownUsers{}, nil, zap.NewNop())

	active, err := toggler.Toggle(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 1, edges.inserts)
}
