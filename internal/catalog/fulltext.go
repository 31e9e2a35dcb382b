package catalog

import (
	"context"
	"strings"
)

// KeywordSearch is the natural-language keyword scorer: Postgres
// tsvector/to_tsquery over (title, ocr_text, search_text), unioned with a
// substring match on title/country/state/tags so short or unusual tokens
// still surface a hit. When the tsquery itself is
// unparseable (e.g. punctuation-only input) this degrades to the ILIKE
// path below; the degradation is a contract, not an error.
func (s *Store) KeywordSearch(ctx context.Context, q, country, state string, limit, offset int) ([]*Document, error) {
	tsq := toPlainTSQuery(q)
	rows, err := s.pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE status IN ('approved','processed')
			AND ($2 = '' OR country = $2)
			AND ($3 = '' OR state = $3)
			AND (
				($1 <> '' AND search_vector @@ plainto_tsquery('english', $1))
				OR title ILIKE '%' || $1 || '%'
				OR country ILIKE '%' || $1 || '%'
				OR state ILIKE '%' || $1 || '%'
				OR generated_tags::text ILIKE '%' || $1 || '%'
			)
		ORDER BY
			CASE WHEN $1 <> '' THEN ts_rank(search_vector, plainto_tsquery('english', $1)) ELSE 0 END DESC,
			created_at DESC
		LIMIT $4 OFFSET $5`, tsq, country, state, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// SubstringSearch is the fallback lexical scan used when the full-text
// index is unavailable. Ordering is deterministic: created_at desc, id desc tiebreak.
func (s *Store) SubstringSearch(ctx context.Context, q, country, state string, limit, offset int) ([]*Document, error) {
	like := "%" + q + "%"
	rows, err := s.pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE status IN ('approved','processed')
			AND ($2 = '' OR country = $2)
			AND ($3 = '' OR state = $3)
			AND (
				title ILIKE $1 OR description ILIKE $1 OR ocr_text ILIKE $1
				OR country ILIKE $1 OR state ILIKE $1 OR generated_tags::text ILIKE $1
			)
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`, like, country, state, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// ApprovedWithEmbedding fetches up to `limit` approved/processed documents
// that carry a stored document-level embedding, for the semantic search
// path.
func (s *Store) ApprovedWithEmbedding(ctx context.Context, limit int) ([]*Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE status IN ('approved','processed') AND embedding IS NOT NULL
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// toPlainTSQuery sanitises q for use with plainto_tsquery; Postgres
// itself tolerates arbitrary text here, this just trims noise so an
// all-punctuation query reliably contributes nothing rather than
// erroring out the statement.
func toPlainTSQuery(q string) string {
	return strings.TrimSpace(q)
}
