package vectorstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Store wraps the document_chunks table with pgvector-go's cosine
// operator. It shares the pgx pool catalog.Store opens, since the
// catalog and vector store live in one Postgres instance.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertChunk writes or replaces a chunk keyed by (document_id,
// chunk_index); re-writing the same key replaces the row.
func (s *Store) UpsertChunk(ctx context.Context, documentID int64, chunk Chunk, embedding []float32, title, country string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO document_chunks (document_id, chunk_index, content, document_title, document_country, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id, chunk_index) DO UPDATE SET
			content = EXCLUDED.content,
			document_title = EXCLUDED.document_title,
			document_country = EXCLUDED.document_country,
			embedding = EXCLUDED.embedding`,
		documentID, chunk.Index, chunk.Text, title, country, pgvector.NewVector(embedding))
	return err
}

// DeleteDocumentChunks purges all chunks for a document. It is always safe to call even if no chunks exist.
func (s *Store) DeleteDocumentChunks(ctx context.Context, documentID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	return err
}

// CountChunks returns the chunk count for a document, used by tests
// validating the "contiguous chunk index" invariant.
func (s *Store) CountChunks(ctx context.Context, documentID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM document_chunks WHERE document_id = $1`, documentID).Scan(&n)
	return n, err
}

// SearchResult is one nearest-neighbour hit.
type SearchResult struct {
	DocumentID      int64
	ChunkIndex      int
	Content         string
	DocumentTitle   string
	DocumentCountry string
	Similarity      float64
}

// SearchNearest retrieves the top-K chunks by cosine similarity, optionally
// scoped to a single document.
func (s *Store) SearchNearest(ctx context.Context, queryEmbedding []float32, k int, documentID *int64) ([]SearchResult, error) {
	qv := pgvector.NewVector(queryEmbedding)

	var rows pgx.Rows
	var err error
	if documentID != nil {
		rows, err = s.pool.Query(ctx, `
			SELECT document_id, chunk_index, content, document_title, document_country,
				1 - (embedding <=> $1) AS similarity
			FROM document_chunks
			WHERE document_id = $2
			ORDER BY embedding <=> $1
			LIMIT $3`, qv, *documentID, k)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT document_id, chunk_index, content, document_title, document_country,
				1 - (embedding <=> $1) AS similarity
			FROM document_chunks
			ORDER BY embedding <=> $1
			LIMIT $2`, qv, k)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocumentID, &r.ChunkIndex, &r.Content, &r.DocumentTitle, &r.DocumentCountry, &r.Similarity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
