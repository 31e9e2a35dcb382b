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

type createAnnotationRequest struct {
	PageNumber      int     `json:"page_number" binding:"required"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Width           float64 `json:"width" binding:"required"`
	Height          float64 `json:"height" binding:"required"`
	HighlightedText string  `json:"highlighted_text"`
	AnnotationNote  string  `json:"annotation_note"`
}

func annotationJSON(a *catalog.Annotation) gin.H {
	return gin.H{
		"id":               a.ID,
		"document_id":      a.DocumentID,
		"page_number":      a.PageNumber,
		"x":                a.X,
		"y":                a.Y,
		"width":            a.Width,
		"height":           a.Height,
		"highlighted_text": a.HighlightedText,
		"annotation_note":  a.AnnotationNote,
		"created_at":       a.CreatedAt,
	}
}

// HandleCreateAnnotation serves POST /documents/:id/annotations.
func HandleCreateAnnotation(svc *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		documentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "document id must be an integer"))
			return
		}

		var req createAnnotationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "page_number, width, and height are required"))
			return
		}

		annotation, err := svc.CreateAnnotation(c.Request.Context(), &catalog.Annotation{
			DocumentID:      documentID,
			SessionHash:     ratelimit.SessionHash(c),
			PageNumber:      req.PageNumber,
			X:               req.X,
			Y:               req.Y,
			Width:           req.Width,
			Height:          req.Height,
			HighlightedText: req.HighlightedText,
			AnnotationNote:  req.AnnotationNote,
		})
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, annotationJSON(annotation))
	}
}

// HandleListAnnotations serves GET /documents/:id/annotations.
func HandleListAnnotations(svc *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		documentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "document id must be an integer"))
			return
		}

		list, err := svc.ListAnnotations(c.Request.Context(), documentID)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		out := make([]gin.H, len(list))
		for i, a := range list {
			out[i] = annotationJSON(a)
		}
		c.JSON(http.StatusOK, gin.H{"document_id": documentID, "annotations": out})
	}
}

// HandleDeleteAnnotation serves DELETE /annotations/:id.
func HandleDeleteAnnotation(svc *moderation.Service, asAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "annotation id must be an integer"))
			return
		}

		admin := asAdmin && middleware.IsAdmin(c)
		if err := svc.DeleteAnnotation(c.Request.Context(), id, ratelimit.SessionHash(c), admin); err != nil {
			apierr.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "annotation deleted"})
	}
}
