// Package journal keeps an audit trail of backend submissions in
// Postgres. Recording is best-effort: a missing or broken journal never
// blocks a submission.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubmissionRun is one row of the audit trail.
type SubmissionRun struct {
	RunID       uuid.UUID
	SessionID   string
	ProjectIDs  []string
	Outcome     string
	Processed   int
	Failed      int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

type Recorder struct {
	pool *pgxpool.Pool
}

func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

func (r *Recorder) Record(ctx context.Context, run SubmissionRun) error {
	if run.RunID == uuid.Nil {
		run.RunID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO submission_runs (run_id, session_id, project_ids, outcome, processed, failed, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.RunID, run.SessionID, run.ProjectIDs, run.Outcome, run.Processed, run.Failed, run.Error, run.StartedAt, run.CompletedAt)
	return err
}

func (r *Recorder) Recent(ctx context.Context, limit int) ([]SubmissionRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT run_id, session_id, project_ids, outcome, processed, failed, error, started_at, completed_at
		FROM submission_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []SubmissionRun
	for rows.Next() {
		var run SubmissionRun
		if err := rows.Scan(
			&run.RunID, &run.SessionID, &run.ProjectIDs, &run.Outcome,
			&run.Processed, &run.Failed, &run.Error, &run.StartedAt, &run.CompletedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
