package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/haqnow/archive/internal/apierr"
	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/moderation"
	"github.com/haqnow/archive/internal/ratelimit"
	"github.com/haqnow/archive/middleware"
)

type createCommentRequest struct {
	CommentText     string `json:"comment_text" binding:"required"`
	ParentCommentID *int64 `json:"parent_comment_id"`
}

func commentJSON(c *catalog.Comment) gin.H {
	return gin.H{
		"id":                c.ID,
		"document_id":       c.DocumentID,
		"parent_comment_id": c.ParentCommentID,
		"comment_text":      c.CommentText,
		"status":            c.Status,
		"created_at":        c.CreatedAt,
	}
}

func nodeJSON(n *moderation.CommentNode) gin.H {
	replies := make([]gin.H, len(n.Replies))
	for i, r := range n.Replies {
		replies[i] = nodeJSON(r)
	}
	out := commentJSON(n.Comment)
	out["reply_count"] = n.DescendantCount
	out["replies"] = replies
	return out
}

// HandleCreateComment serves POST /documents/:id/comments.
func HandleCreateComment(svc *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		documentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "document id must be an integer"))
			return
		}

		var req createCommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "comment_text is required"))
			return
		}

		comment, err := svc.CreateComment(c.Request.Context(), documentID, req.CommentText,
			req.ParentCommentID, ratelimit.SessionHash(c))
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, commentJSON(comment))
	}
}

// HandleListComments serves GET /documents/:id/comments?sort_order=....
func HandleListComments(svc *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		documentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "document id must be an integer"))
			return
		}

		sortOrder := c.DefaultQuery("sort_order", moderation.SortNewest)
		nodes, err := svc.ListComments(c.Request.Context(), documentID, sortOrder)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		out := make([]gin.H, len(nodes))
		for i, n := range nodes {
			out[i] = nodeJSON(n)
		}
		c.JSON(http.StatusOK, gin.H{
			"document_id": documentID,
			"sort_order":  sortOrder,
			"comments":    out,
		})
	}
}

// HandleDeleteComment serves DELETE /comments/:id for the originating
// anonymous session; admin deletion goes through the admin surface.
func HandleDeleteComment(svc *moderation.Service, asAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		commentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "comment id must be an integer"))
			return
		}

		admin := asAdmin && middleware.IsAdmin(c)
		if err := svc.DeleteComment(c.Request.Context(), commentID, ratelimit.SessionHash(c), admin); err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
	}
}

// HandleFlagComment serves POST /comments/:id/flag; three flags hide the
// comment from the public list.
func HandleFlagComment(svc *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		commentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "comment id must be an integer"))
			return
		}

		comment, err := svc.FlagComment(c.Request.Context(), commentID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":    "comment flagged for review",
			"flag_count": comment.FlagCount,
			"hidden":     comment.Status == catalog.CommentFlagged,
		})
	}
}
