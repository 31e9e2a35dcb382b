package routes

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haqnow/archive/internal/apierr"
	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/config"
	"github.com/haqnow/archive/internal/logger"
	"github.com/haqnow/archive/internal/objectstore"
	"github.com/haqnow/archive/internal/ocr"
	"github.com/haqnow/archive/internal/ratelimit"
	"github.com/haqnow/archive/internal/sanitiser"
	"github.com/haqnow/archive/middleware"
)

const maxFilesPerBatch = 10

// UploadScope is the API-key scope that bypasses captcha and the upload
// rate limit.
const UploadScope = "upload"

type uploadDeps struct {
	cfg     *config.Config
	store   *catalog.Store
	objects *objectstore.Store
	san     *sanitiser.Sanitiser
	limiter *ratelimit.Limiter
}

// HandleUpload accepts a single anonymous document upload: captcha gate,
// global time-bucket rate limit, sanitisation, object-store write, and a
// pending catalog row. The processing job is only created at approval
// time, so job_id is always null here.
func HandleUpload(cfg *config.Config, store *catalog.Store, objects *objectstore.Store, san *sanitiser.Sanitiser, limiter *ratelimit.Limiter) gin.HandlerFunc {
	deps := uploadDeps{cfg: cfg, store: store, objects: objects, san: san, limiter: limiter}
	return func(c *gin.Context) {
		if err := gateUpload(c, deps); err != nil {
			apierr.Respond(c, err)
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "no file provided"))
			return
		}

		doc, err := admitFile(c, deps, fileHeader)
		if err != nil {
			apierr.Respond(c, err)
			return
		}

		fileURL, _ := deps.objects.PresignedURL(c.Request.Context(), doc.ObjectKey, time.Hour)
		c.JSON(http.StatusOK, gin.H{
			"document_id": doc.ID,
			"file_url":    fileURL,
			"file_path":   doc.ObjectKey,
			"job_id":      nil,
			"message":     "Document uploaded and awaiting review.",
		})
	}
}

// HandleUploadMultiple accepts up to ten files sharing one metadata set,
// admitting each independently and returning aggregate counts.
func HandleUploadMultiple(cfg *config.Config, store *catalog.Store, objects *objectstore.Store, san *sanitiser.Sanitiser, limiter *ratelimit.Limiter) gin.HandlerFunc {
	deps := uploadDeps{cfg: cfg, store: store, objects: objects, san: san, limiter: limiter}
	return func(c *gin.Context) {
		if err := gateUpload(c, deps); err != nil {
			apierr.Respond(c, err)
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "malformed multipart payload"))
			return
		}
		files := form.File["files"]
		if len(files) == 0 {
			files = form.File["file"]
		}
		if len(files) == 0 {
			apierr.Respond(c, apierr.New(apierr.InputInvalid, "no files provided"))
			return
		}
		if len(files) > maxFilesPerBatch {
			apierr.Respond(c, apierr.New(apierr.InputInvalid,
				fmt.Sprintf("at most %d files may be uploaded per call", maxFilesPerBatch)))
			return
		}

		type uploaded struct {
			DocumentID int64  `json:"document_id"`
			FilePath   string `json:"file_path"`
			Filename   string `json:"filename"`
		}
		type failed struct {
			Filename string `json:"filename"`
			Error    string `json:"error"`
		}

		var ok []uploaded
		var bad []failed
		for _, fh := range files {
			doc, err := admitFile(c, deps, fh)
			if err != nil {
				msg := "upload failed"
				if ae, isAE := apierr.As(err); isAE {
					msg = ae.Message
				}
				bad = append(bad, failed{Filename: fh.Filename, Error: msg})
				continue
			}
			ok = append(ok, uploaded{DocumentID: doc.ID, FilePath: doc.ObjectKey, Filename: fh.Filename})
		}

		c.JSON(http.StatusOK, gin.H{
			"uploaded_count": len(ok),
			"failed_count":   len(bad),
			"uploaded":       ok,
			"failed":         bad,
		})
	}
}

// gateUpload enforces the captcha and the anonymous time-bucket rate
// limit. API-key callers with the upload scope bypass both.
func gateUpload(c *gin.Context, deps uploadDeps) error {
	if middleware.HasAPIScope(c, UploadScope) {
		return nil
	}

	if deps.cfg.CaptchaEnabled {
		if strings.TrimSpace(c.PostForm("captcha_token")) == "" {
			return apierr.New(apierr.SecurityRejected, "captcha verification failed")
		}
	}

	allowed, retryAfter, _ := deps.limiter.AllowBucket(c.Request.Context(), "upload",
		time.Duration(deps.cfg.UploadRateLimitWindow)*time.Second)
	if !allowed {
		return apierr.New(apierr.RateLimited,
			fmt.Sprintf("please wait %d seconds before uploading again", retryAfter)).
			WithDetails(map[string]any{"retry_after_seconds": retryAfter})
	}
	return nil
}

// admitFile runs one file through validation, sanitisation, the object
// store, and the catalog, returning the pending Document.
func admitFile(c *gin.Context, deps uploadDeps, fh *multipart.FileHeader) (*catalog.Document, error) {
	if strings.TrimSpace(fh.Filename) == "" {
		return nil, apierr.New(apierr.InputInvalid, "filename must not be empty")
	}
	if fh.Size > deps.cfg.MaxFileSize {
		return nil, apierr.New(apierr.InputInvalid,
			fmt.Sprintf("file exceeds the %d MB size limit", deps.cfg.MaxFileSize>>20))
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = fh.Filename
	}
	language := c.PostForm("document_language")
	if !ocr.IsKnownLanguage(language) {
		language = "english"
	} else {
		language = ocr.ResolveLanguage(language)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apierr.Wrap(apierr.InputInvalid, "cannot read uploaded file", err)
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, deps.cfg.MaxFileSize+1))
	if err != nil {
		return nil, apierr.Wrap(apierr.InputInvalid, "cannot read uploaded file", err)
	}
	if int64(len(raw)) > deps.cfg.MaxFileSize {
		return nil, apierr.New(apierr.InputInvalid,
			fmt.Sprintf("file exceeds the %d MB size limit", deps.cfg.MaxFileSize>>20))
	}

	contentType := fh.Header.Get("Content-Type")
	result, err := deps.san.Sanitise(raw, contentType, fh.Filename)
	if err != nil {
		var malware *sanitiser.MalwareError
		if errors.As(err, &malware) {
			return nil, apierr.New(apierr.SecurityRejected,
				fmt.Sprintf("the file was deleted for security reasons (%s)", malware.Category))
		}
		return nil, apierr.Wrap(apierr.Internal, "sanitisation failed", err)
	}

	key := objectstore.NewDocumentKey()
	if err := deps.objects.Put(c.Request.Context(), key, bytes.NewReader(result.PDF),
		int64(len(result.PDF)), "application/pdf"); err != nil {
		return nil, err
	}

	doc, err := deps.store.CreateDocument(c.Request.Context(), &catalog.Document{
		Title:            title,
		Country:          strings.TrimSpace(c.PostForm("country")),
		State:            strings.TrimSpace(c.PostForm("state")),
		Description:      strings.TrimSpace(c.PostForm("description")),
		OriginalFilename: result.Filename,
		FileSize:         int64(len(result.PDF)),
		ContentType:      "application/pdf",
		ObjectKey:        key,
		SourceKind:       sourceKindFor(contentType, fh.Filename),
		DocumentLanguage: language,
	})
	if err != nil {
		// The blob is already written; leave it for the admin deletion
		// flow rather than risking a partial cleanup mid-request.
		logger.Error("catalog insert failed after object store write", "object_key", key, "error", err)
		return nil, apierr.Wrap(apierr.Internal, "could not record the document", err)
	}
	return doc, nil
}

// sourceKindFor decides whether the worker will OCR the sanitised PDF or
// read its text directly.
func sourceKindFor(contentType, filename string) string {
	ct := strings.ToLower(contentType)
	name := strings.ToLower(filename)
	if strings.HasPrefix(ct, "image/") || ct == "application/pdf" || strings.HasSuffix(name, ".pdf") {
		return catalog.SourceKindScan
	}
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"} {
		if strings.HasSuffix(name, ext) {
			return catalog.SourceKindScan
		}
	}
	return catalog.SourceKindText
}
