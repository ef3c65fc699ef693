package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tinytelemetry/logmine/internal/model"
)

var (
	_ model.RunWriter = (*Store)(nil)
	_ model.RunReader = (*Store)(nil)
)

const runColumns = `id, created_at, source, max_distance, min_members, jobs, lines, clusters`

// SaveRun stores a run and its patterns in one transaction. A missing ID or
// creation time is filled in; Clusters is set to len(patterns). The stored
// run is returned.
func (s *Store) SaveRun(run model.Run, patterns []model.PatternRow) (model.Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.Clusters = len(patterns)

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Run{}, fmt.Errorf("begin save run: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Source, run.MaxDistance, run.MinMembers, run.Jobs, run.Lines, run.Clusters,
	); err != nil {
		return model.Run{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO patterns (run_id, "position", "count", pattern, representative, severity) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return model.Run{}, fmt.Errorf("prepare pattern insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range patterns {
		if _, err := stmt.ExecContext(ctx, run.ID, i, p.Count, p.Pattern, p.Representative, p.Severity); err != nil {
			return model.Run{}, fmt.Errorf("insert pattern %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Run{}, fmt.Errorf("commit run: %w", err)
	}
	committed = true
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = model.DefaultRunListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run. It wraps model.ErrRunNotFound for unknown IDs.
func (s *Store) GetRun(id string) (model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("%w: %s", model.ErrRunNotFound, id)
	}
	return run, err
}

// RunPatterns returns the patterns of a run with at least minCount members,
// in report order.
func (s *Store) RunPatterns(id string, minCount int64) ([]model.PatternRow, error) {
	if _, err := s.GetRun(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, "position", "count", pattern, representative, severity
		FROM patterns
		WHERE run_id = ? AND "count" >= ?
		ORDER BY "position"`, id, minCount)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	out := []model.PatternRow{}
	for rows.Next() {
		var p model.PatternRow
		if err := rows.Scan(&p.RunID, &p.Position, &p.Count, &p.Pattern, &p.Representative, &p.Severity); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RunCount is the number of archived runs.
func (s *Store) RunCount() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (model.Run, error) {
	var r model.Run
	err := row.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.MaxDistance, &r.MinMembers, &r.Jobs, &r.Lines, &r.Clusters)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, err
	}
	if err != nil {
		return model.Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}
