package queue

import (
	"context"
	"time"

	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/logger"
	"github.com/haqnow/archive/internal/vectorstore"
)

// Reconciler converges the vector store onto the catalog: no chunks may
// exist for a non-approved document. Reject/delete
// paths call PurgeAsync for a prompt best-effort purge; the Run loop is
// the backstop that retries anything those attempts missed.
type Reconciler struct {
	store   *catalog.Store
	vectors *vectorstore.Store
}

func NewReconciler(store *catalog.Store, vectors *vectorstore.Store) *Reconciler {
	return &Reconciler{store: store, vectors: vectors}
}

// PurgeAsync deletes a document's chunks in the background, retrying
// with backoff until success. The per-call retry budget is bounded; the
// Run loop picks up anything still unconverged after that.
func (r *Reconciler) PurgeAsync(documentID int64) {
	go func() {
		backoff := time.Second
		for attempt := 0; attempt < 8; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := r.vectors.DeleteDocumentChunks(ctx, documentID)
			cancel()
			if err == nil {
				return
			}
			logger.Warn("chunk purge failed, retrying", "document_id", documentID, "attempt", attempt+1, "error", err)
			time.Sleep(backoff)
			if backoff < time.Minute {
				backoff *= 2
			}
		}
		logger.Error("chunk purge exhausted retries, leaving to reconciler loop", "document_id", documentID)
	}()
}

// Run sweeps for non-approved documents that still carry chunks and
// purges them, once per interval, until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	ids, err := r.store.NonApprovedDocumentIDsWithChunks(ctx)
	if err != nil {
		logger.Warn("reconciler sweep query failed", "error", err)
		return
	}
	for _, id := range ids {
		if err := r.vectors.DeleteDocumentChunks(ctx, id); err != nil {
			logger.Warn("reconciler purge failed", "document_id", id, "error", err)
			continue
		}
		logger.Info("reconciler purged stale chunks", "document_id", id)
	}
}
