package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/haqnow/archive/internal/apierr"
	"github.com/haqnow/archive/internal/rag"
)

type ragQuestionRequest struct {
	Question string `json:"question" binding:"required"`
	Language string `json:"language"`
}

type ragDocumentQuestionRequest struct {
	Question   string `json:"question" binding:"required"`
	DocumentID int64  `json:"document_id" binding:"required"`
	Language   string `json:"language"`
}

func ragJSON(question string, a *rag.Answer) gin.H {
	return gin.H{
		"question":         question,
		"answer":           a.Answer,
		"confidence":       a.Confidence,
		"sources":          a.Sources,
		"response_time_ms": a.ResponseTimeMs,
		"query_id":         a.QueryID,
	}
}

// HandleRAGQuestion serves POST /rag/question, archive-wide retrieval.
// Failures surface as a polite stock answer with confidence 0 rather
// than an HTTP error so the chat UX degrades gracefully.
func HandleRAGQuestion(answerer *rag.Answerer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ragQuestionRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "question is required"))
			return
		}

		answer := answerer.Answer(c.Request.Context(), req.Question, nil)
		c.JSON(http.StatusOK, ragJSON(req.Question, answer))
	}
}

// HandleRAGDocumentQuestion serves POST /rag/document-question: the same
// pipeline scoped to a single document's chunks.
func HandleRAGDocumentQuestion(answerer *rag.Answerer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ragDocumentQuestionRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "question and document_id are required"))
			return
		}

		answer := answerer.Answer(c.Request.Context(), req.Question, &req.DocumentID)
		c.JSON(http.StatusOK, ragJSON(req.Question, answer))
	}
}
