package catalog

import (
	"context"
	"encoding/json"
)

// APIKeysByPrefix returns the active keys sharing a lookup prefix. The
// plaintext key never reaches this package: only a secure hash is stored,
// and the middleware fetches candidates by prefix and runs the bcrypt
// comparison itself.
func (s *Store) APIKeysByPrefix(ctx context.Context, prefix string) ([]*APIKey, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, key_hash, key_prefix, scopes, is_active, created_by, created_at, last_used_at, usage_count
		FROM api_keys WHERE key_prefix = $1 AND is_active`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*APIKey
	for rows.Next() {
		var k APIKey
		var scopes []byte
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &scopes, &k.IsActive, &k.CreatedBy,
			&k.CreatedAt, &k.LastUsedAt, &k.UsageCount); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(scopes, &k.Scopes)
		out = append(out, &k)
	}
	return out, rows.Err()
}

// TouchAPIKey records usage, called on every authenticated request.
func (s *Store) TouchAPIKey(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE api_keys SET last_used_at = now(), usage_count = usage_count + 1 WHERE id = $1`, id)
	return err
}

func (s *Store) CreateAPIKey(ctx context.Context, name, keyHash, keyPrefix string, scopes []string, createdBy string) (*APIKey, error) {
	b, _ := json.Marshal(scopes)
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO api_keys (name, key_hash, key_prefix, scopes, created_by)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`, name, keyHash, keyPrefix, b, createdBy).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &APIKey{ID: id, Name: name, KeyHash: keyHash, KeyPrefix: keyPrefix, Scopes: scopes, IsActive: true, CreatedBy: createdBy}, nil
}

// RecordRAGQuery logs one row per answered RAG query
// and returns its id so the caller can surface it in the response.
func (s *Store) RecordRAGQuery(ctx context.Context, q *RAGQuery) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO rag_queries (query_text, answer_text, confidence_score, sources_count, response_time_ms, document_id)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		q.QueryText, q.AnswerText, q.ConfidenceScore, q.SourcesCount, q.ResponseTimeMs, q.DocumentID).Scan(&id)
	return id, err
}
