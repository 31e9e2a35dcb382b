package catalog

import "context"

// ListBannedWords returns every banned word/phrase, lowercased, for
// internal/moderation's spam-filter cache.
func (s *Store) ListBannedWords(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT word FROM banned_words ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func (s *Store) BanWord(ctx context.Context, word, reason, bannedBy string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO banned_words (word, reason, banned_by) VALUES (lower($1), $2, $3)
		ON CONFLICT (word) DO NOTHING`, word, reason, bannedBy)
	return err
}

func (s *Store) UnbanWord(ctx context.Context, word string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM banned_words WHERE word = lower($1)`, word)
	return err
}

// ListBannedTags returns the admin-curated forbidden-tag list, used to
// filter generated tags from hybrid search results.
func (s *Store) ListBannedTags(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT tag FROM banned_tags ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) BanTag(ctx context.Context, tag, reason, bannedBy string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO banned_tags (tag, reason, banned_by) VALUES (lower($1), $2, $3)
		ON CONFLICT (tag) DO NOTHING`, tag, reason, bannedBy)
	return err
}

func (s *Store) UnbanTag(ctx context.Context, tag string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM banned_tags WHERE tag = lower($1)`, tag)
	return err
}
