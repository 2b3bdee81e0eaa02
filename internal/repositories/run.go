package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/shared"
)

// RunRepository persists [models.Run] rows.
//
// It satisfies the controller's recorder so every completed request lands in the history.
type RunRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db, now: time.Now}
}

// RunFilter narrows [RunRepository.List].
type RunFilter struct {
	Action  string
	Outcome *models.Outcome
	// Limit keeps the most recent runs; zero means no limit.
	Limit int
}

const runColumns = `id, sequence, action, endpoint, url, outcome, status_code, duration_ms, error, created_at`

// Create inserts run with a generated ID and sequence. CreatedAt defaults to now.
func (r *RunRepository) Create(run *models.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = r.now().UTC()
	}
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query,
		id,
		sequence,
		run.Action,
		run.Endpoint,
		run.URL,
		run.Outcome.String(),
		run.StatusCode,
		run.Duration.Milliseconds(),
		run.Error,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	run.ID = id
	run.Sequence = sequence
	return nil
}

// Record stores a completed request.
func (r *RunRepository) Record(ctx context.Context, run *models.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Create(run)
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(id string) (*models.Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return run, err
}

// List returns runs in sequence order, oldest first.
func (r *RunRepository) List(f RunFilter) ([]*models.Run, error) {
	var (
		where []string
		args  []any
	)
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if f.Outcome != nil {
		where = append(where, "outcome = ?")
		args = append(args, f.Outcome.String())
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sequence DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	slices.Reverse(runs)
	return runs, nil
}

// Count returns the number of stored runs.
func (r *RunRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// DeleteBefore removes runs created before t and returns how many were removed.
func (r *RunRepository) DeleteBefore(t time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM runs WHERE created_at < ?`, t)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run        models.Run
		outcome    string
		durationMs int64
	)
	err := s.Scan(
		&run.ID,
		&run.Sequence,
		&run.Action,
		&run.Endpoint,
		&run.URL,
		&outcome,
		&run.StatusCode,
		&durationMs,
		&run.Error,
		&run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if run.Outcome, err = models.ParseOutcome(outcome); err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}
