package moderation

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/haqnow/archive/internal/catalog"
)

// spamFilter is a 5-minute TTL cache of the banned-word list compiled
// into a single word-boundary regex.
type spamFilter struct {
	store *catalog.Store
	ttl   time.Duration

	mu       sync.RWMutex
	re       *regexp.Regexp
	loadedAt time.Time
}

func newSpamFilter(store *catalog.Store, ttl time.Duration) *spamFilter {
	return &spamFilter{store: store, ttl: ttl}
}

func (f *spamFilter) refresh(ctx context.Context) {
	words, err := f.store.ListBannedWords(ctx)
	if err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.re = buildRegexp(words)
	f.loadedAt = time.Now()
}

func (f *spamFilter) ensureFresh(ctx context.Context) {
	f.mu.RLock()
	stale := time.Since(f.loadedAt) > f.ttl
	f.mu.RUnlock()
	if stale {
		f.refresh(ctx)
	}
}

// Invalidate forces the next check to reload; called after an admin
// bans/unbans a word so the cache does not serve the stale list for up
// to its full TTL.
func (f *spamFilter) Invalidate() {
	f.mu.Lock()
	f.loadedAt = time.Time{}
	f.mu.Unlock()
}

// Matches reports whether text contains any banned word as a whole word,
// case-insensitively.
func (f *spamFilter) Matches(ctx context.Context, text string) bool {
	f.ensureFresh(ctx)
	f.mu.RLock()
	re := f.re
	f.mu.RUnlock()
	if re == nil {
		return false
	}
	return re.MatchString(text)
}

func buildRegexp(words []string) *regexp.Regexp {
	if len(words) == 0 {
		return nil
	}
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(w)))
	}
	pattern := `(?i)\b(` + strings.Join(escaped, "|") + `)\b`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}
