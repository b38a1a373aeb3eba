package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"zoskagram/internal/database"
	"zoskagram/internal/model"
)

type edgeRepository struct {
	db  *sqlx.DB
	rel model.Relation

	// from, actor and target are the FROM clause and the expressions that
	// yield user-facing ids. For profile-backed relations they join through
	// profiles so callers never see profile ids.
	from   string
	actor  string
	target string
}

func NewEdgeRepository(db *sqlx.DB, rel model.Relation) EdgeRepository {
	r := &edgeRepository{db: db, rel: rel}
	if rel.ViaProfile {
		r.from = fmt.Sprintf(
			"%s e JOIN profiles a ON a.id = e.%s JOIN profiles t ON t.id = e.%s",
			rel.Table, rel.ActorColumn, rel.TargetColumn)
		r.actor = "a.user_id"
		r.target = "t.user_id"
	} else {
		r.from = rel.Table + " e"
		r.actor = "e." + rel.ActorColumn
		r.target = "e." + rel.TargetColumn
	}
	return r
}

func (r *edgeRepository) Relation() model.Relation {
	return r.rel
}

// TargetExists checks the entity the relation points at, by user-facing id.
func (r *edgeRepository) TargetExists(ctx context.Context, q sqlx.ExtContext, targetID string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = ?`, r.rel.TargetTable)
	var n int
	if err := sqlx.GetContext(ctx, q, &n, q.Rebind(query), targetID); err != nil {
		return false, fmt.Errorf("check %s target: %w", r.rel.Name, err)
	}
	return n > 0, nil
}

// Insert creates the edge. It reports false when the edge was already there.
func (r *edgeRepository) Insert(ctx context.Context, q sqlx.ExtContext, actorID, targetID string) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (id, %[2]s, %[3]s, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (%[2]s, %[3]s) DO NOTHING
	`, r.rel.Table, r.rel.ActorColumn, r.rel.TargetColumn)

	result, err := q.ExecContext(ctx, q.Rebind(query), uuid.NewString(), actorID, targetID, database.Now())
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, r.rel.ErrTargetNotFound
		}
		return false, fmt.Errorf("insert %s: %w", r.rel.Name, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Delete removes the edge and reports whether one existed.
func (r *edgeRepository) Delete(ctx context.Context, q sqlx.ExtContext, actorID, targetID string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`,
		r.rel.Table, r.rel.ActorColumn, r.rel.TargetColumn)

	result, err := q.ExecContext(ctx, q.Rebind(query), actorID, targetID)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", r.rel.Name, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *edgeRepository) Exists(ctx context.Context, actorID, targetID string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ? AND %s = ?`, r.from, r.actor, r.target)
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), actorID, targetID); err != nil {
		return false, fmt.Errorf("check %s: %w", r.rel.Name, err)
	}
	return n > 0, nil
}

// BatchStatus returns the subset of targetIDs the actor has an edge to, in
// a single query.
func (r *edgeRepository) BatchStatus(ctx context.Context, actorID string, targetIDs []string) (model.IDSet, error) {
	ids := uniqueIDs(targetIDs)
	if len(ids) == 0 {
		return model.IDSet{}, nil
	}

	query, args, err := sqlx.In(
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s IN (?)`, r.target, r.from, r.actor, r.target),
		actorID, ids)
	if err != nil {
		return nil, fmt.Errorf("build %s status query: %w", r.rel.Name, err)
	}

	var found []string
	if err := r.db.SelectContext(ctx, &found, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("batch %s status: %w", r.rel.Name, err)
	}
	return model.NewIDSet(found...), nil
}

// BatchCount returns the number of edges pointing at each target. Targets
// without edges are present with a zero count.
func (r *edgeRepository) BatchCount(ctx context.Context, targetIDs []string) (map[string]int, error) {
	ids := uniqueIDs(targetIDs)
	counts := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	query, args, err := sqlx.In(
		fmt.Sprintf(`SELECT %[1]s AS target_id, COUNT(*) AS n FROM %[2]s WHERE %[1]s IN (?) GROUP BY %[1]s`,
			r.target, r.from),
		ids)
	if err != nil {
		return nil, fmt.Errorf("build %s count query: %w", r.rel.Name, err)
	}

	var rows []struct {
		TargetID string `db:"target_id"`
		N        int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("batch %s count: %w", r.rel.Name, err)
	}

	for _, id := range ids {
		counts[id] = 0
	}
	for _, row := range rows {
		counts[row.TargetID] = row.N
	}
	return counts, nil
}

func (r *edgeRepository) CountByActor(ctx context.Context, actorID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, r.from, r.actor)
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), actorID); err != nil {
		return 0, fmt.Errorf("count %s by actor: %w", r.rel.Name, err)
	}
	return n, nil
}

func (r *edgeRepository) CountByTarget(ctx context.Context, targetID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, r.from, r.target)
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), targetID); err != nil {
		return 0, fmt.Errorf("count %s by target: %w", r.rel.Name, err)
	}
	return n, nil
}

// uniqueIDs drops empty and duplicate ids, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
