package catalog

import "context"

// NonApprovedDocumentIDsWithChunks returns document ids that still carry
// vector chunks despite no longer being approved/processed: the query
// behind the background reconciler's "no chunks for a non-approved
// document" loop invariant, a backstop for reject/delete paths whose
// synchronous purge attempt failed.
func (s *Store) NonApprovedDocumentIDsWithChunks(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT dc.document_id
		FROM document_chunks dc
		JOIN documents d ON d.id = dc.document_id
		WHERE d.status NOT IN ('approved', 'processed')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
