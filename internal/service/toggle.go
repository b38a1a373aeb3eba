package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"zoskagram/internal/metrics"
	"zoskagram/internal/model"
	"zoskagram/internal/repository"
)

// Toggler flips one relation's edges and answers status/count questions
// about them. The like, comment-like, follow and save services each wrap
// one Toggler.
type Toggler struct {
	db       *sqlx.DB
	edges    repository.EdgeRepository
	users    repository.UserRepository
	profiles repository.ProfileRepository
	log      *zap.Logger
}

func NewToggler(
	db *sqlx.DB,
	edges repository.EdgeRepository,
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	log *zap.Logger,
) *Toggler {
	return &Toggler{
		db:       db,
		edges:    edges,
		users:    users,
		profiles: profiles,
		log:      log.Named("toggle").With(zap.String("relation", edges.Relation().Name)),
	}
}

// Toggle creates the edge if it is absent and removes it if present, and
// returns the state after the operation. The check and the write share one
// transaction; a concurrent toggle that inserted first makes the insert a
// no-op and the result is still true.
func (t *Toggler) Toggle(ctx context.Context, actorID, targetID string) (bool, error) {
	rel := t.edges.Relation()

	if actorID == "" {
		return false, model.ErrUnauthorized
	}
	if targetID == "" {
		return false, model.ErrTargetRequired
	}
	if rel.ViaProfile && actorID == targetID {
		t.record("rejected")
		return false, model.ErrCannotFollowSelf
	}

	active, err := t.toggle(ctx, rel, actorID, targetID)
	if err != nil {
		if isDomainError(err) {
			t.record("rejected")
			return false, err
		}
		t.record("error")
		t.log.Error("Toggle failed",
			zap.String("actor_id", actorID), zap.String("target_id", targetID), zap.Error(err))
		return false, model.Failed("toggle "+rel.Name, err)
	}

	if active {
		t.record("on")
	} else {
		t.record("off")
	}
	return active, nil
}

func (t *Toggler) toggle(ctx context.Context, rel model.Relation, actorID, targetID string) (bool, error) {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := t.users.Exists(ctx, tx, actorID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, model.ErrUserNotFound
	}

	ok, err = t.edges.TargetExists(ctx, tx, targetID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, rel.ErrTargetNotFound
	}

	actorKey, targetKey := actorID, targetID
	if rel.ViaProfile {
		actorProfile, err := t.profiles.Ensure(ctx, tx, actorID)
		if err != nil {
			return false, err
		}
		targetProfile, err := t.profiles.Ensure(ctx, tx, targetID)
		if err != nil {
			return false, err
		}
		actorKey, targetKey = actorProfile.ID, targetProfile.ID
	}

	removed, err := t.edges.Delete(ctx, tx, actorKey, targetKey)
	if err != nil {
		return false, err
	}
	if !removed {
		if _, err := t.edges.Insert(ctx, tx, actorKey, targetKey); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return !removed, nil
}

// Status reports whether the actor has the edge. Errors read as false.
func (t *Toggler) Status(ctx context.Context, actorID, targetID string) bool {
	if actorID == "" || targetID == "" {
		return false
	}
	ok, err := t.edges.Exists(ctx, actorID, targetID)
	if err != nil {
		t.batchFailed("status", err)
		return false
	}
	return ok
}

// Count returns how many edges point at target. Errors read as zero.
func (t *Toggler) Count(ctx context.Context, targetID string) int {
	n, err := t.edges.CountByTarget(ctx, targetID)
	if err != nil {
		t.batchFailed("count", err)
		return 0
	}
	return n
}

// CountByActor returns how many edges the actor has. Errors read as zero.
func (t *Toggler) CountByActor(ctx context.Context, actorID string) int {
	n, err := t.edges.CountByActor(ctx, actorID)
	if err != nil {
		t.batchFailed("count_by_actor", err)
		return 0
	}
	return n
}

// BatchStatus returns the subset of targetIDs the actor has an edge to.
// It never fails: without an actor or on a store error the set is empty.
func (t *Toggler) BatchStatus(ctx context.Context, actorID string, targetIDs []string) model.IDSet {
	if actorID == "" || len(targetIDs) == 0 {
		return model.IDSet{}
	}

	start := time.Now()
	set, err := t.edges.BatchStatus(ctx, actorID, targetIDs)
	t.observe("batch_status", start)
	if err != nil {
		t.batchFailed("batch_status", err)
		return model.IDSet{}
	}
	return set
}

// BatchCount returns the number of edges per target. It never fails: on a
// store error the map is empty.
func (t *Toggler) BatchCount(ctx context.Context, targetIDs []string) map[string]int {
	if len(targetIDs) == 0 {
		return map[string]int{}
	}

	start := time.Now()
	counts, err := t.edges.BatchCount(ctx, targetIDs)
	t.observe("batch_count", start)
	if err != nil {
		t.batchFailed("batch_count", err)
		return map[string]int{}
	}
	return counts
}

func (t *Toggler) record(outcome string) {
	metrics.Get().TogglesTotal.WithLabelValues(t.edges.Relation().Name, outcome).Inc()
}

func (t *Toggler) observe(query string, start time.Time) {
	metrics.Get().BatchQueryDuration.
		WithLabelValues(t.edges.Relation().Name, query).
		Observe(time.Since(start).Seconds())
}

func (t *Toggler) batchFailed(query string, err error) {
	metrics.Get().BatchQueryFailures.WithLabelValues(t.edges.Relation().Name, query).Inc()
	t.log.Warn("Read query failed, returning empty result", zap.String("query", query), zap.Error(err))
}

// isDomainError reports errors that describe the request rather than the store.
func isDomainError(err error) bool {
	return errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrInvalidOperation) ||
		errors.Is(err, model.ErrForbidden) ||
		errors.Is(err, model.ErrUnauthorized)
}
