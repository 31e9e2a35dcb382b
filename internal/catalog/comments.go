package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/haqnow/archive/internal/apierr"
)

func scanComment(row pgx.Row) (*Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.DocumentID, &c.ParentCommentID, &c.CommentText, &c.SessionHash,
		&c.Status, &c.FlagCount, &c.CreatedAt)
	return &c, err
}

const commentColumns = `id, document_id, parent_comment_id, comment_text, session_hash, status, flag_count, created_at`

// CountActiveComments returns the pending+approved comment count for a
// document, used to enforce the 100-active-comment cap.
func (s *Store) CountActiveComments(ctx context.Context, documentID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM document_comments
		WHERE document_id = $1 AND status IN ('pending','approved')`, documentID).Scan(&n)
	return n, err
}

// LastCommentAt returns the most recent comment timestamp for
// (document, session), used for the per-session rate limit.
func (s *Store) LastCommentAt(ctx context.Context, documentID int64, sessionHash string) (*Comment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+commentColumns+` FROM document_comments
		WHERE document_id = $1 AND session_hash = $2
		ORDER BY created_at DESC LIMIT 1`, documentID, sessionHash)
	c, err := scanComment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// GetComment fetches a single comment by id.
func (s *Store) GetComment(ctx context.Context, id int64) (*Comment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM document_comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.New(apierr.NotFound, "comment not found")
	}
	return c, err
}

// CreateComment persists a comment with status=approved. Caller (internal/moderation) has already
// validated the parent/spam/rate-limit rules.
func (s *Store) CreateComment(ctx context.Context, documentID int64, parentID *int64, text, sessionHash string) (*Comment, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO document_comments (document_id, parent_comment_id, comment_text, session_hash, status)
		VALUES ($1, $2, $3, $4, 'approved')
		RETURNING `+commentColumns, documentID, parentID, text, sessionHash)
	return scanComment(row)
}

// ListComments returns every comment for a document regardless of status;
// internal/moderation builds the reply tree and applies public
// visibility filtering.
func (s *Store) ListComments(ctx context.Context, documentID int64) ([]*Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+commentColumns+` FROM document_comments
		WHERE document_id = $1
		ORDER BY created_at ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FlagComment increments flag_count and transitions to flagged at 3.
func (s *Store) FlagComment(ctx context.Context, id int64) (*Comment, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE document_comments SET
			flag_count = flag_count + 1,
			status = CASE WHEN flag_count + 1 >= 3 THEN 'flagged' ELSE status END
		WHERE id = $1
		RETURNING `+commentColumns, id)
	c, err := scanComment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apierr.New(apierr.NotFound, "comment not found")
	}
	return c, err
}

// DeleteComment removes a comment (and, via FK cascade, its replies).
// sessionHash must match the original author unless asAdmin is set.
func (s *Store) DeleteComment(ctx context.Context, id int64, sessionHash string, asAdmin bool) error {
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !asAdmin && c.SessionHash != sessionHash {
		return apierr.New(apierr.SecurityRejected, "only the comment's author may delete it")
	}
	_, err = s.pool.Exec(ctx, `DELETE FROM document_comments WHERE id = $1`, id)
	return err
}
