package routes

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haqnow/archive/internal/apierr"
	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/config"
	"github.com/haqnow/archive/internal/logger"
	"github.com/haqnow/archive/internal/objectstore"
	"github.com/haqnow/archive/internal/ratelimit"
	"github.com/haqnow/archive/internal/search"
	"github.com/haqnow/archive/middleware"
)

// DownloadScope is the API-key scope that bypasses the original-file
// download rate limit.
const DownloadScope = "download"

// documentJSON is the public search shape of a document.
func documentJSON(r search.Result) gin.H {
	return gin.H{
		"id":                      r.ID,
		"title":                   r.Title,
		"country":                 r.Country,
		"state":                   r.State,
		"description":             r.Description,
		"original_filename":       r.OriginalFilename,
		"file_size":               r.FileSize,
		"content_type":            r.ContentType,
		"document_language":       r.DocumentLanguage,
		"status":                  r.Status,
		"ocr_text":                r.OCRText,
		"summary":                 r.Summary,
		"generated_tags":          r.GeneratedTags,
		"view_count":              r.ViewCount,
		"similarity":              r.Similarity,
		"has_english_translation": r.HasEnglishTranslation,
		"has_arabic_text":         r.HasArabicText,
		"created_at":              r.CreatedAt,
		"processed_at":            r.ProcessedAt,
	}
}

// HandleSearch serves GET /search.
func HandleSearch(store *catalog.Store, engine *search.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

		params := search.Params{
			Query:   strings.TrimSpace(c.Query("q")),
			Country: c.Query("country"),
			State:   c.Query("state"),
			Page:    page,
			PerPage: perPage,
			Mode:    c.DefaultQuery("search_type", search.ModeHybrid),
		}

		bannedWords, err := store.ListBannedWords(c.Request.Context())
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		bannedTags, err := store.ListBannedTags(c.Request.Context())
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		results, err := engine.Search(c.Request.Context(), params, bannedWords, bannedTags)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		out := make([]gin.H, len(results))
		for i, r := range results {
			out[i] = documentJSON(r)
		}
		c.JSON(http.StatusOK, gin.H{
			"query":       params.Query,
			"search_type": params.Mode,
			"page":        params.Page,
			"per_page":    params.PerPage,
			"count":       len(out),
			"results":     out,
		})
	}
}

// HandleGetDocument serves GET /document/:id: a single approved document
// in search shape, with once-per-session-per-hour view counting.
func HandleGetDocument(cfg *config.Config, store *catalog.Store, limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "document id must be an integer"))
			return
		}

		doc, err := store.GetApprovedDocument(c.Request.Context(), id)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		session := ratelimit.SessionHash(c)
		subject := fmt.Sprintf("view:%d:%s", id, session)
		if limiter.AllowOncePerWindow(c.Request.Context(), subject,
			time.Duration(cfg.ViewCountWindow)*time.Second) {
			if err := store.IncrementViewCount(c.Request.Context(), id); err != nil {
				logger.Warn("view count increment failed", "document_id", id, "error", err)
			} else {
				doc.ViewCount++
			}
		}

		bannedWords, _ := store.ListBannedWords(c.Request.Context())
		bannedTags, _ := store.ListBannedTags(c.Request.Context())
		c.JSON(http.StatusOK, documentJSON(search.PostProcess(doc, bannedWords, bannedTags)))
	}
}

// HandleDownload serves GET /download/:id?language=original|english|<lang>.
// Text renditions stream as UTF-8 attachments; the original proxies the
// object store's sanitised PDF behind the anonymous download rate limit.
func HandleDownload(cfg *config.Config, store *catalog.Store, objects *objectstore.Store, limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "document id must be an integer"))
			return
		}

		doc, err := store.GetApprovedDocument(c.Request.Context(), id)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		language := strings.ToLower(c.DefaultQuery("language", "original"))
		switch {
		case language == "english" && doc.OCRTextEnglish != "":
			streamText(c, doc, "english", doc.OCRTextEnglish)
			return
		case language != "original" && language == doc.DocumentLanguage && doc.OCRTextOriginal != "":
			streamText(c, doc, language, doc.OCRTextOriginal)
			return
		}

		if !middleware.HasAPIScope(c, DownloadScope) {
			allowed, retryAfter, _ := limiter.AllowBucket(c.Request.Context(), "download",
				time.Duration(cfg.DownloadRateLimitWindow)*time.Second)
			if !allowed {
				apierr.Respond(c, apierr.New(apierr.RateLimited,
					fmt.Sprintf("please wait %d seconds before downloading again", retryAfter)).
					WithDetails(map[string]any{"retry_after_seconds": retryAfter}))
				return
			}
		}

		obj, err := objects.Get(c.Request.Context(), doc.ObjectKey)
		if err != nil {
			apierr.Respond(c, err)
			return
		}
		defer obj.Close()

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.OriginalFilename))
		c.Header("Content-Type", "application/pdf")
		c.Status(http.StatusOK)
		if _, err := io.Copy(c.Writer, obj); err != nil {
			logger.Warn("download stream interrupted", "document_id", id, "error", err)
		}
	}
}

func streamText(c *gin.Context, doc *catalog.Document, language, text string) {
	filename := strings.TrimSuffix(doc.OriginalFilename, ".pdf") + "_" + language + ".txt"
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}
