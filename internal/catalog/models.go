// Package catalog is the durable record of record: documents, jobs,
// comments, annotations, banned words/tags, API keys and RAG query logs.
// It is backed by Postgres (pgx) and is the single strongly-consistent
// store in the system.
package catalog

import "time"

// Document status values, forming the DAG pending->{approved,rejected};
// approved->{rejected,processed}; rejected->approved; processed->rejected.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusProcessed = "processed"
)

// SourceKind records whether a document's original upload needed real
// OCR (SourceKindScan: images, scanned PDFs) or was already machine
// text that the sanitiser rendered straight to PDF (SourceKindText:
// docx/csv/xlsx/txt). The worker pipeline reads this to choose its OCR
// path without re-inspecting the now-always-PDF object.
const (
	SourceKindScan = "scan"
	SourceKindText = "text"
)

// Document is the archive's unit.
type Document struct {
	ID          int64
	Title       string
	Country     string
	State       string
	Description string

	OriginalFilename string
	FileSize         int64
	ContentType      string
	ObjectKey        string
	SourceKind       string

	DocumentLanguage string
	Status           string

	OCRTextOriginal string
	OCRTextEnglish  string
	OCRText         string // combined/processed text used for full-text search display
	SearchText      string // concatenation used for full-text search
	Summary         *string
	GeneratedTags   []string
	Embedding       []float32

	ViewCount     int
	HiddenFromTop bool

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time
	ApprovedAt  *time.Time
	RejectedAt  *time.Time

	ApprovedBy      *string
	RejectedBy      *string
	RejectionReason *string
}

// HasEnglishTranslation reports whether the document carries a distinct
// English translation.
func (d *Document) HasEnglishTranslation() bool {
	return d.DocumentLanguage != "english" && d.OCRTextEnglish != ""
}

// Job status values.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// JobTypeProcessDocument is the only job type in this system.
const JobTypeProcessDocument = "process_document"

// Job is a processing task tied to one document.
type Job struct {
	ID              int64
	DocumentID      int64
	Type            string
	Status          string
	Priority        int
	CurrentStep     string
	ProgressPercent int
	ErrorMessage    string
	RetryCount      int
	MaxRetries      int
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	FailedAt        *time.Time
}

// Comment status values.
const (
	CommentPending  = "pending"
	CommentApproved = "approved"
	CommentRejected = "rejected"
	CommentFlagged  = "flagged"
)

// Comment is anonymous text tied to a document, optionally threaded.
type Comment struct {
	ID              int64
	DocumentID      int64
	ParentCommentID *int64
	CommentText     string
	SessionHash     string
	Status          string
	FlagCount       int
	CreatedAt       time.Time
}

// Annotation is a rectangle-bounded highlight on a page.
type Annotation struct {
	ID               int64
	DocumentID       int64
	SessionHash      string
	PageNumber       int
	X, Y             float64
	Width, Height    float64
	HighlightedText  string
	AnnotationNote   string
	CreatedAt        time.Time
}

// BannedWord is a normalised lowercase word/phrase used by the spam
// filter and the OCR-text/tag redactor.
type BannedWord struct {
	ID        int64
	Word      string
	Reason    string
	BannedBy  string
	CreatedAt time.Time
}

// BannedTag is a supplemented feature: an admin-curated forbidden-tag
// list filtered out of hybrid-search tag results.
type BannedTag struct {
	ID        int64
	Tag       string
	Reason    string
	BannedBy  string
	CreatedAt time.Time
}

// APIKey authenticates privileged callers; a key with scope "upload"
// bypasses captcha and the upload rate limit.
type APIKey struct {
	ID         int64
	Name       string
	KeyHash    string
	KeyPrefix  string
	Scopes     []string
	IsActive   bool
	CreatedBy  string
	CreatedAt  time.Time
	LastUsedAt *time.Time
	UsageCount int
}

func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// RAGQuery logs one row per answered RAG query.
type RAGQuery struct {
	ID               int64
	QueryText        string
	AnswerText       string
	ConfidenceScore  float64
	SourcesCount     int
	ResponseTimeMs   int
	DocumentID       *int64 // set when scoped to a single document
	CreatedAt        time.Time
}
