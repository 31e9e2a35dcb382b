package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/haqnow/archive/internal/apierr"
)

const annotationColumns = `id, document_id, session_hash, page_number, x, y, width, height, highlighted_text, annotation_note, created_at`

func scanAnnotation(row pgx.Row) (*Annotation, error) {
	var a Annotation
	err := row.Scan(&a.ID, &a.DocumentID, &a.SessionHash, &a.PageNumber, &a.X, &a.Y, &a.Width,
		&a.Height, &a.HighlightedText, &a.AnnotationNote, &a.CreatedAt)
	return &a, err
}

func (s *Store) LastAnnotationAt(ctx context.Context, documentID int64, sessionHash string) (*Annotation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+annotationColumns+` FROM document_annotations
		WHERE document_id = $1 AND session_hash = $2
		ORDER BY created_at DESC LIMIT 1`, documentID, sessionHash)
	a, err := scanAnnotation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *Store) CreateAnnotation(ctx context.Context, a *Annotation) (*Annotation, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO document_annotations
			(document_id, session_hash, page_number, x, y, width, height, highlighted_text, annotation_note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+annotationColumns,
		a.DocumentID, a.SessionHash, a.PageNumber, a.X, a.Y, a.Width, a.Height, a.HighlightedText, a.AnnotationNote)
	return scanAnnotation(row)
}

func (s *Store) ListAnnotations(ctx context.Context, documentID int64) ([]*Annotation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+annotationColumns+` FROM document_annotations
		WHERE document_id = $1 ORDER BY created_at ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Annotation
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAnnotation(ctx context.Context, id int64) (*Annotation, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+annotationColumns+` FROM document_annotations WHERE id = $1`, id)
	a, err := scanAnnotation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.New(apierr.NotFound, "annotation not found")
	}
	return a, err
}

func (s *Store) DeleteAnnotation(ctx context.Context, id int64, sessionHash string, asAdmin bool) error {
	a, err := s.GetAnnotation(ctx, id)
	if err != nil {
		return err
	}
	if !asAdmin && a.SessionHash != sessionHash {
		return apierr.New(apierr.SecurityRejected, "only the annotation's author may delete it")
	}
	_, err = s.pool.Exec(ctx, `DELETE FROM document_annotations WHERE id = $1`, id)
	return err
}
