package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgvectorpgx "github.com/pgvector/pgvector-go/pgx"

	"github.com/haqnow/archive/internal/apierr"
)

//go:embed schema.sql
var Schema string

// Store is the Postgres-backed catalog. It is the only
// strongly-consistent resource in the system.
type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, databaseURL string) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse config: %w", err)
	}
	// Register the pgvector type on every pooled connection so
	// embedding columns round-trip as []float32.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgvectorpgx.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("catalog: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("catalog: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Close() { s.pool.Close() }

// Migrate applies the embedded schema. Idempotent (every statement is
// CREATE ... IF NOT EXISTS / CREATE OR REPLACE).
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func tagsToJSON(tags []string) []byte {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return b
}

func jsonToTags(b []byte) []string {
	var tags []string
	if len(b) == 0 {
		return nil
	}
	_ = json.Unmarshal(b, &tags)
	return tags
}

func embeddingToVector(e []float32) *pgvector.Vector {
	if len(e) == 0 {
		return nil
	}
	v := pgvector.NewVector(e)
	return &v
}

const documentColumns = `id, title, country, state, description, original_filename, file_size,
	content_type, object_key, source_kind, document_language, status, ocr_text_original,
	ocr_text_english, ocr_text, search_text, summary, generated_tags, embedding, view_count,
	hidden_from_top, created_at, updated_at, processed_at, approved_at, rejected_at, approved_by,
	rejected_by, rejection_reason`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	var tags []byte
	var emb *pgvector.Vector
	err := row.Scan(&d.ID, &d.Title, &d.Country, &d.State, &d.Description, &d.OriginalFilename,
		&d.FileSize, &d.ContentType, &d.ObjectKey, &d.SourceKind, &d.DocumentLanguage, &d.Status,
		&d.OCRTextOriginal, &d.OCRTextEnglish, &d.OCRText, &d.SearchText, &d.Summary, &tags, &emb,
		&d.ViewCount, &d.HiddenFromTop, &d.CreatedAt, &d.UpdatedAt, &d.ProcessedAt, &d.ApprovedAt,
		&d.RejectedAt, &d.ApprovedBy, &d.RejectedBy, &d.RejectionReason)
	if err != nil {
		return nil, err
	}
	d.GeneratedTags = jsonToTags(tags)
	if emb != nil {
		d.Embedding = emb.Slice()
	}
	return &d, nil
}

// CreateDocument inserts the intake-sanitised document with status=pending.
func (s *Store) CreateDocument(ctx context.Context, d *Document) (*Document, error) {
	sourceKind := d.SourceKind
	if sourceKind == "" {
		sourceKind = SourceKindScan
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO documents (title, country, state, description, original_filename, file_size,
			content_type, object_key, source_kind, document_language, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'pending')
		RETURNING `+documentColumns,
		d.Title, d.Country, d.State, d.Description, d.OriginalFilename, d.FileSize,
		d.ContentType, d.ObjectKey, sourceKind, d.DocumentLanguage)
	return scanDocument(row)
}

func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.New(apierr.NotFound, "document not found")
	}
	return doc, err
}

// GetApprovedDocument returns a document only if it is currently approved
// or processed; public reads never see pending/rejected documents.
func (s *Store) GetApprovedDocument(ctx context.Context, id int64) (*Document, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusApproved && doc.Status != StatusProcessed {
		return nil, apierr.New(apierr.NotFound, "document not found")
	}
	return doc, nil
}

// Approve transitions pending|rejected -> approved, clearing rejection
// fields.
func (s *Store) Approve(ctx context.Context, id int64, approvedBy string) (*Document, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE documents SET status = 'approved', approved_at = now(), approved_by = $2,
			rejected_at = NULL, rejected_by = NULL, rejection_reason = NULL, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'rejected')
		RETURNING `+documentColumns, id, approvedBy)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.New(apierr.Conflict, "document cannot be approved from its current state")
	}
	return doc, err
}

// Reject transitions pending|approved|processed -> rejected (processed may
// be re-rejected, which triggers a chunk purge).
func (s *Store) Reject(ctx context.Context, id int64, rejectedBy, reason string) (*Document, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE documents SET status = 'rejected', rejected_at = now(), rejected_by = $2,
			rejection_reason = $3, approved_at = NULL, approved_by = NULL, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'approved', 'processed')
		RETURNING `+documentColumns, id, rejectedBy, reason)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.New(apierr.Conflict, "document cannot be rejected from its current state")
	}
	return doc, err
}

// CompleteProcessing stores the pipeline's output and transitions the
// document to processed.
func (s *Store) CompleteProcessing(ctx context.Context, id int64, ocrOriginal, ocrEnglish, ocrText, searchText string, summary *string, tags []string, embedding []float32) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET status = 'processed', processed_at = now(), updated_at = now(),
			ocr_text_original = $2, ocr_text_english = $3, ocr_text = $4, search_text = $5,
			summary = $6, generated_tags = $7, embedding = $8
		WHERE id = $1 AND status = 'approved'`,
		id, ocrOriginal, ocrEnglish, ocrText, searchText, summary, tagsToJSON(tags), embeddingToVector(embedding))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apierr.New(apierr.Conflict, "document is no longer approved, discarding pipeline output")
	}
	return nil
}

// DeleteDocument cascades to chunks/comments/annotations via FK ON DELETE
// CASCADE.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

// IncrementViewCount bumps view_count; suppression of repeat views within
// the 1h window is enforced by the caller via internal/ratelimit.
func (s *Store) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE documents SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

// RecentApproved returns the most recent approved/processed documents for
// the empty-query search path.
func (s *Store) RecentApproved(ctx context.Context, country, state string, limit, offset int) ([]*Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE status IN ('approved','processed')
			AND ($1 = '' OR country = $1)
			AND ($2 = '' OR state = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, country, state, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func collectDocuments(rows pgx.Rows) ([]*Document, error) {
	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// WithTx runs fn inside a transaction. Status transitions, job state
// updates, and comment writes are each a single transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
