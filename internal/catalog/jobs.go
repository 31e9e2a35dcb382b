package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/haqnow/archive/internal/apierr"
)

const jobColumns = `id, document_id, type, status, priority, current_step, progress_percent,
	error_message, retry_count, max_retries, created_at, started_at, completed_at, failed_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.DocumentID, &j.Type, &j.Status, &j.Priority, &j.CurrentStep,
		&j.ProgressPercent, &j.ErrorMessage, &j.RetryCount, &j.MaxRetries, &j.CreatedAt,
		&j.StartedAt, &j.CompletedAt, &j.FailedAt)
	return &j, err
}

// ActiveJobForDocument returns the document's pending|processing job, if any.
func (s *Store) ActiveJobForDocument(ctx context.Context, documentID int64) (*Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE document_id = $1 AND status IN ('pending','processing')
		LIMIT 1`, documentID)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

// CountActiveJobs returns the global pending+processing count, checked
// against the 100-job cap.
func (s *Store) CountActiveJobs(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM jobs WHERE status IN ('pending','processing')`).Scan(&n)
	return n, err
}

// EnqueueJob returns the existing active job
// if present, otherwise inserts a new pending one, subject to the global
// 100-active cap. maxActiveJobs and maxRetries are deployment-configured.
func (s *Store) EnqueueJob(ctx context.Context, documentID int64, jobType string, priority, maxActiveJobs, maxRetries int) (*Job, error) {
	existing, err := s.ActiveJobForDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	active, err := s.CountActiveJobs(ctx)
	if err != nil {
		return nil, err
	}
	if active >= maxActiveJobs {
		return nil, apierr.New(apierr.QueueFull, "job queue is at capacity, try again later")
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO jobs (document_id, type, status, priority, max_retries)
		VALUES ($1, $2, 'pending', $3, $4)
		RETURNING `+jobColumns, documentID, jobType, priority, maxRetries)
	return scanJob(row)
}

// NextJob atomically selects and claims the highest-priority pending job,
// ties broken by earliest created_at, using SELECT ... FOR UPDATE SKIP
// LOCKED so concurrent workers never race on the same row.
func (s *Store) NextJob(ctx context.Context) (*Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE status = 'pending'
		ORDER BY priority DESC, created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	row = tx.QueryRow(ctx, `
		UPDATE jobs SET status = 'processing', started_at = now() WHERE id = $1
		RETURNING `+jobColumns, j.ID)
	j, err = scanJob(row)
	if err != nil {
		return nil, err
	}
	return j, tx.Commit(ctx)
}

// UpdateJobProgress stores current_step and clamps percent to [0,100].
func (s *Store) UpdateJobProgress(ctx context.Context, jobID int64, step string, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs SET current_step = $2, progress_percent = $3 WHERE id = $1`, jobID, step, percent)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apierr.New(apierr.NotFound, "job not found")
	}
	return nil
}

// CompleteJob sets status=completed, percent=100, stamps completed_at.
func (s *Store) CompleteJob(ctx context.Context, jobID int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs SET status = 'completed', progress_percent = 100, completed_at = now()
		WHERE id = $1`, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apierr.New(apierr.NotFound, "job not found")
	}
	return nil
}

const errorMessageLogCap = 200

// FailJob increments retry_count; if retry and retry_count < max_retries,
// resets the job to pending. The full message is always stored
// on the row; callers that log should truncate to errorMessageLogCap
// themselves; the row always keeps the full message.
func (s *Store) FailJob(ctx context.Context, jobID int64, message string, retry bool) error {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return apierr.New(apierr.NotFound, "job not found")
	}
	if err != nil {
		return err
	}

	newRetryCount := j.RetryCount + 1
	if retry && newRetryCount < j.MaxRetries {
		_, err = s.pool.Exec(ctx, `
			UPDATE jobs SET status = 'pending', current_step = '', progress_percent = 0,
				retry_count = $2, error_message = $3
			WHERE id = $1`, jobID, newRetryCount, message)
		return err
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE jobs SET status = 'failed', failed_at = now(), retry_count = $2, error_message = $3
		WHERE id = $1`, jobID, newRetryCount, message)
	return err
}

// JobPosition returns the 1-based queue position among pending jobs ahead
// with same-or-higher priority and earlier created_at.
func (s *Store) JobPosition(ctx context.Context, jobID int64) (int, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apierr.New(apierr.NotFound, "job not found")
	}
	if err != nil {
		return 0, err
	}
	if j.Status != JobPending {
		return 0, nil
	}

	var ahead int
	err = s.pool.QueryRow(ctx, `
		SELECT count(*) FROM jobs
		WHERE status = 'pending' AND priority >= $2 AND created_at <= $3 AND id <> $1`,
		jobID, j.Priority, j.CreatedAt).Scan(&ahead)
	if err != nil {
		return 0, err
	}
	return ahead + 1, nil
}

func (s *Store) GetJob(ctx context.Context, jobID int64) (*Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.New(apierr.NotFound, "job not found")
	}
	return j, err
}

// JobForDocument returns the most recently created job for a document
// regardless of status (admin/debugging surface).
func (s *Store) JobForDocument(ctx context.Context, documentID int64) (*Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE document_id = $1
		ORDER BY created_at DESC LIMIT 1`, documentID)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

// FailedJobs lists failed jobs for admin review.
func (s *Store) FailedJobs(ctx context.Context, limit int) ([]*Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'failed'
		ORDER BY failed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// QueueStats returns per-status counts for the admin queue dashboard.
type QueueStats struct {
	Pending, Processing, Completed, Failed, Total int
}

func (s *Store) QueueStats(ctx context.Context) (*QueueStats, error) {
	var st QueueStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'processing'),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'failed'),
			count(*)
		FROM jobs`).Scan(&st.Pending, &st.Processing, &st.Completed, &st.Failed, &st.Total)
	return &st, err
}
