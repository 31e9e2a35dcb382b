// Package queue is the durable, at-most-one-active-job-per-document job
// queue. The Postgres `jobs` table (internal/catalog) is the single
// source of truth for status/progress/position; asynq is kept purely as
// the wakeup/dispatch mechanism so workers don't poll. A worker always
// re-claims the row via NextJob's FOR UPDATE SKIP LOCKED before doing
// anything, so redundant asynq deliveries are harmless.
package queue

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"github.com/haqnow/archive/internal/apierr"
	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/logger"
)

const TaskProcessDocument = "document:process"

// Queue wraps the catalog job table with asynq dispatch.
type Queue struct {
	store         *catalog.Store
	client        *asynq.Client
	maxActiveJobs int
	maxRetries    int
}

func New(store *catalog.Store, client *asynq.Client, maxActiveJobs, maxRetries int) *Queue {
	return &Queue{store: store, client: client, maxActiveJobs: maxActiveJobs, maxRetries: maxRetries}
}

// Enqueue returns the existing active job if one exists, otherwise
// creates one and dispatches an asynq wakeup task
// carrying only the job id (the row itself is the payload of record).
func (q *Queue) Enqueue(ctx context.Context, documentID int64, priority int) (*catalog.Job, error) {
	job, err := q.store.EnqueueJob(ctx, documentID, catalog.JobTypeProcessDocument, priority, q.maxActiveJobs, q.maxRetries)
	if err != nil {
		return nil, err
	}
	// Only dispatch a wakeup for a freshly created job; an existing one
	// already has a wakeup in flight (or already being processed).
	if job.Status == catalog.JobPending && job.StartedAt == nil {
		task := asynq.NewTask(TaskProcessDocument, encodeJobID(job.ID))
		if _, err := q.client.EnqueueContext(ctx, task, asynq.MaxRetry(0)); err != nil {
			logger.Warn("asynq dispatch failed, relying on poller fallback", "job_id", job.ID, "error", err)
		}
	}
	return job, nil
}

// Next claims the next runnable job; used by the poller fallback and
// directly by asynq handlers that prefer to re-derive the job rather than
// trust the payload.
func (q *Queue) Next(ctx context.Context) (*catalog.Job, error) {
	return q.store.NextJob(ctx)
}

// Claim re-reads and claims the specific job an asynq delivery names. If
// another worker already claimed it (status no longer pending), Claim
// returns nil, nil and the caller simply drops the duplicate delivery.
func (q *Queue) Claim(ctx context.Context, jobID int64) (*catalog.Job, error) {
	job, err := q.store.GetJob(ctx, jobID)
	if err != nil {
		if ae, ok := apierr.As(err); ok && ae.Kind == apierr.NotFound {
			return nil, nil
		}
		return nil, err
	}
	if job.Status != catalog.JobPending {
		return nil, nil
	}
	return q.store.NextJob(ctx)
}

func (q *Queue) UpdateProgress(ctx context.Context, jobID int64, step string, percent int) error {
	return q.store.UpdateJobProgress(ctx, jobID, step, percent)
}

func (q *Queue) Complete(ctx context.Context, jobID int64) error {
	return q.store.CompleteJob(ctx, jobID)
}

func (q *Queue) Fail(ctx context.Context, jobID int64, message string, retry bool) error {
	return q.store.FailJob(ctx, jobID, message, retry)
}

func (q *Queue) Position(ctx context.Context, jobID int64) (int, error) {
	return q.store.JobPosition(ctx, jobID)
}

var errBadPayload = errors.New("queue: malformed task payload")
