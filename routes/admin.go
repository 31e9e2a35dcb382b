package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/haqnow/archive/internal/apierr"
	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/logger"
	"github.com/haqnow/archive/internal/moderation"
	"github.com/haqnow/archive/internal/objectstore"
	"github.com/haqnow/archive/internal/queue"
	"github.com/haqnow/archive/middleware"
	"github.com/haqnow/archive/utils"
)

func jobJSON(j *catalog.Job) gin.H {
	return gin.H{
		"id":               j.ID,
		"document_id":      j.DocumentID,
		"type":             j.Type,
		"status":           j.Status,
		"priority":         j.Priority,
		"current_step":     j.CurrentStep,
		"progress_percent": j.ProgressPercent,
		"error_message":    j.ErrorMessage,
		"retry_count":      j.RetryCount,
		"created_at":       j.CreatedAt,
		"started_at":       j.StartedAt,
		"completed_at":     j.CompletedAt,
		"failed_at":        j.FailedAt,
	}
}

// HandleApproveDocument serves POST /admin/documents/:id/approve. The
// document transitions to approved and its processing job is enqueued;
// when the queue is at capacity the caller gets a 503 and the document
// is left approved without a job, so a later re-approve retries the
// enqueue alone.
func HandleApproveDocument(store *catalog.Store, q *queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "document id must be an integer"))
			return
		}

		doc, err := store.GetDocument(c.Request.Context(), id)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		if doc.Status != catalog.StatusApproved {
			doc, err = store.Approve(c.Request.Context(), id, middleware.AdminEmail(c))
			if err != nil {
				apierr.Respond(c, err)
				return
			}
		}

		priority, _ := strconv.Atoi(c.DefaultQuery("priority", "0"))
		job, err := q.Enqueue(c.Request.Context(), doc.ID, priority)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		position, _ := q.Position(c.Request.Context(), job.ID)
		c.JSON(http.StatusOK, gin.H{
			"document_id":    doc.ID,
			"status":         doc.Status,
			"job_id":         job.ID,
			"queue_position": position,
		})
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// HandleRejectDocument serves POST /admin/documents/:id/reject. Chunk
// purging is asynchronous and retried until it succeeds; a running pipeline job is left to finish and discard
// its own output.
func HandleRejectDocument(store *catalog.Store, reconciler *queue.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "document id must be an integer"))
			return
		}

		var req rejectRequest
		_ = c.ShouldBindJSON(&req)

		doc, err := store.Reject(c.Request.Context(), id, middleware.AdminEmail(c), strings.TrimSpace(req.Reason))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		reconciler.PurgeAsync(doc.ID)
		c.JSON(http.StatusOK, gin.H{
			"document_id":      doc.ID,
			"status":           doc.Status,
			"rejection_reason": doc.RejectionReason,
		})
	}
}

// HandleDeleteDocument serves DELETE /admin/documents/:id: best-effort
// blob delete, chunk purge, then the catalog row (cascading comments and
// annotations).
func HandleDeleteDocument(store *catalog.Store, objects *objectstore.Store, reconciler *queue.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "document id must be an integer"))
			return
		}

		doc, err := store.GetDocument(c.Request.Context(), id)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		if err := objects.Remove(c.Request.Context(), doc.ObjectKey); err != nil {
			logger.Warn("blob delete failed, continuing with catalog delete", "document_id", id, "error", err)
		}
		reconciler.PurgeAsync(doc.ID)

		if err := store.DeleteDocument(c.Request.Context(), id); err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "document deleted", "document_id": id})
	}
}

// HandleQueueStats serves GET /admin/queue/stats.
func HandleQueueStats(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := store.QueueStats(c.Request.Context())
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"pending":    stats.Pending,
			"processing": stats.Processing,
			"completed":  stats.Completed,
			"failed":     stats.Failed,
			"total":      stats.Total,
		})
	}
}

// HandleFailedJobs serves GET /admin/queue/failed.
func HandleFailedJobs(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		jobs, err := store.FailedJobs(c.Request.Context(), limit)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		out := make([]gin.H, len(jobs))
		for i, j := range jobs {
			out[i] = jobJSON(j)
		}
		c.JSON(http.StatusOK, gin.H{"failed_jobs": out})
	}
}

type banWordRequest struct {
	Word   string `json:"word" binding:"required"`
	Reason string `json:"reason"`
}

// HandleBanWord serves POST /admin/banned-words; the spam filter cache
// reloads immediately.
func HandleBanWord(store *catalog.Store, mod *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req banWordRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Word) == "" {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "word is required"))
			return
		}
		if err := store.BanWord(c.Request.Context(), strings.TrimSpace(req.Word), req.Reason, middleware.AdminEmail(c)); err != nil {
			apierr.Respond(c, err)
			return
		}
		mod.InvalidateSpamCache()
		c.JSON(http.StatusCreated, gin.H{"message": "word banned"})
	}
}

// HandleUnbanWord serves DELETE /admin/banned-words/:word.
func HandleUnbanWord(store *catalog.Store, mod *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.UnbanWord(c.Request.Context(), c.Param("word")); err != nil {
			apierr.Respond(c, err)
			return
		}
		mod.InvalidateSpamCache()
		c.JSON(http.StatusOK, gin.H{"message": "word unbanned"})
	}
}

// HandleListBannedWords serves GET /admin/banned-words.
func HandleListBannedWords(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		words, err := store.ListBannedWords(c.Request.Context())
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"banned_words": words})
	}
}

type banTagRequest struct {
	Tag    string `json:"tag" binding:"required"`
	Reason string `json:"reason"`
}

// HandleBanTag serves POST /admin/banned-tags.
func HandleBanTag(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req banTagRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Tag) == "" {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "tag is required"))
			return
		}
		if err := store.BanTag(c.Request.Context(), strings.TrimSpace(req.Tag), req.Reason, middleware.AdminEmail(c)); err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "tag banned"})
	}
}

// HandleUnbanTag serves DELETE /admin/banned-tags/:tag.
func HandleUnbanTag(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.UnbanTag(c.Request.Context(), c.Param("tag")); err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "tag unbanned"})
	}
}

type createAPIKeyRequest struct {
	Name   string   `json:"name" binding:"required"`
	Scopes []string `json:"scopes" binding:"required"`
}

// HandleCreateAPIKey serves POST /admin/api-keys. The plaintext key is
// returned exactly once; only its bcrypt hash and lookup prefix persist.
func HandleCreateAPIKey(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createAPIKeyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "name and scopes are required"))
			return
		}

		plaintext, err := utils.GenerateAPIKey()
		if err != nil {
			apierr.Respond(c, apierr.Wrap(apierr.Internal, "key generation failed", err))
			return
		}
		hash, err := utils.HashAPIKey(plaintext, 0)
		if err != nil {
			apierr.Respond(c, apierr.Wrap(apierr.Internal, "key hashing failed", err))
			return
		}

		key, err := store.CreateAPIKey(c.Request.Context(), req.Name, hash,
			utils.APIKeyPrefix(plaintext), req.Scopes, middleware.AdminEmail(c))
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":      key.ID,
			"name":    key.Name,
			"scopes":  key.Scopes,
			"api_key": plaintext,
			"message": "store this key now; it will not be shown again",
		})
	}
}

// HandleJobStatus serves GET /jobs/:id, public progress reporting for
// the upload flow, including the 1-based queue position while pending.
func HandleJobStatus(store *catalog.Store, q *queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "job id must be an integer"))
			return
		}

		job, err := store.GetJob(c.Request.Context(), id)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		out := jobJSON(job)
		if job.Status == catalog.JobPending {
			if position, err := q.Position(c.Request.Context(), job.ID); err == nil {
				out["queue_position"] = position
			}
		}
		c.JSON(http.StatusOK, out)
	}
}
