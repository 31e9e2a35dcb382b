// Package moderation implements the anonymous comment/annotation
// overlay: content validation, spam filtering, per-(document,session)
// rate limiting, reply-tree construction, and a short-TTL response cache
// invalidated on write.
package moderation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/haqnow/archive/internal/apierr"
	"github.com/haqnow/archive/internal/catalog"
)

const (
	minCommentLen      = 10
	maxCommentLen      = 5000
	maxActiveComments  = 100
	listCacheTTL       = 5 * time.Minute
	spamFilterCacheTTL = 5 * time.Minute
)

type commentCacheEntry struct {
	nodes []*CommentNode
	at    time.Time
}

type annotationCacheEntry struct {
	list []*catalog.Annotation
	at   time.Time
}

// Service wraps catalog.Store with the moderation rules; route handlers
// call into it rather than the catalog directly so every write passes
// through validation.
type Service struct {
	store              *catalog.Store
	spam               *spamFilter
	rateLimitWindow    time.Duration
	commentCapOverride int

	commentMu    sync.Mutex
	commentCache map[string]commentCacheEntry

	annotationMu    sync.Mutex
	annotationCache map[int64]annotationCacheEntry
}

// New constructs a Service. rateLimitWindow is the minimum gap enforced
// between two writes from the same (document, session) pair.
func New(store *catalog.Store, rateLimitWindow time.Duration, commentCap int) *Service {
	return &Service{
		store:              store,
		spam:               newSpamFilter(store, spamFilterCacheTTL),
		rateLimitWindow:    rateLimitWindow,
		commentCapOverride: commentCap,
		commentCache:       make(map[string]commentCacheEntry),
		annotationCache:    make(map[int64]annotationCacheEntry),
	}
}

func (s *Service) commentCap() int {
	if s.commentCapOverride > 0 {
		return s.commentCapOverride
	}
	return maxActiveComments
}

// InvalidateSpamCache forces the spam filter to reload on its next check;
// called after an admin bans/unbans a word.
func (s *Service) InvalidateSpamCache() {
	s.spam.Invalidate()
}

// CreateComment validates, rate-limits, and spam-filters a new comment,
// then persists it auto-approved.
func (s *Service) CreateComment(ctx context.Context, documentID int64, text string, parentID *int64, sessionHash string) (*catalog.Comment, error) {
	text = strings.TrimSpace(text)
	if len(text) < minCommentLen || len(text) > maxCommentLen {
		return nil, apierr.New(apierr.InputInvalid,
			fmt.Sprintf("comment must be between %d and %d characters", minCommentLen, maxCommentLen))
	}

	if _, err := s.store.GetApprovedDocument(ctx, documentID); err != nil {
		return nil, err
	}

	count, err := s.store.CountActiveComments(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if count >= s.commentCap() {
		return nil, apierr.New(apierr.InputInvalid, "this document has reached its comment capacity")
	}

	if err := s.checkRateLimit(ctx, documentID, sessionHash); err != nil {
		return nil, err
	}

	if s.spam.Matches(ctx, text) {
		return nil, apierr.New(apierr.InputInvalid, "comment contains prohibited content")
	}

	if parentID != nil {
		parent, err := s.store.GetComment(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.DocumentID != documentID || parent.Status != catalog.CommentApproved {
			return nil, apierr.New(apierr.InputInvalid, "parent comment is not available for replies")
		}
	}

	comment, err := s.store.CreateComment(ctx, documentID, parentID, text, sessionHash)
	if err != nil {
		return nil, err
	}
	s.invalidateComments(documentID)
	return comment, nil
}

func (s *Service) checkRateLimit(ctx context.Context, documentID int64, sessionHash string) error {
	last, err := s.store.LastCommentAt(ctx, documentID, sessionHash)
	if err != nil {
		return err
	}
	if last == nil {
		return nil
	}
	elapsed := time.Since(last.CreatedAt)
	if elapsed >= s.rateLimitWindow {
		return nil
	}
	remaining := int((s.rateLimitWindow - elapsed).Seconds()) + 1
	return apierr.New(apierr.RateLimited, fmt.Sprintf("please wait %d more seconds before commenting again", remaining)).
		WithDetails(map[string]any{"retry_after_seconds": remaining})
}

// ListComments returns the public reply tree for a document, cached for
// up to 5 minutes per (document, sort order) and rebuilt on demand
// otherwise.
func (s *Service) ListComments(ctx context.Context, documentID int64, sortOrder string) ([]*CommentNode, error) {
	key := fmt.Sprintf("%d:%s", documentID, sortOrder)

	s.commentMu.Lock()
	if entry, ok := s.commentCache[key]; ok && time.Since(entry.at) < listCacheTTL {
		s.commentMu.Unlock()
		return entry.nodes, nil
	}
	s.commentMu.Unlock()

	flat, err := s.store.ListComments(ctx, documentID)
	if err != nil {
		return nil, err
	}

	nodes := filterVisible(BuildTree(flat))
	SortNodes(nodes, sortOrder)

	s.commentMu.Lock()
	s.commentCache[key] = commentCacheEntry{nodes: nodes, at: time.Now()}
	s.commentMu.Unlock()
	return nodes, nil
}

// FlagComment increments a comment's flag count, auto-hiding it once it
// reaches the threshold.
func (s *Service) FlagComment(ctx context.Context, commentID int64) (*catalog.Comment, error) {
	comment, err := s.store.FlagComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	s.invalidateComments(comment.DocumentID)
	return comment, nil
}

// DeleteComment removes a comment; sessionHash must match the original
// author unless asAdmin is set.
func (s *Service) DeleteComment(ctx context.Context, commentID int64, sessionHash string, asAdmin bool) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, commentID, sessionHash, asAdmin); err != nil {
		return err
	}
	s.invalidateComments(comment.DocumentID)
	return nil
}

func (s *Service) invalidateComments(documentID int64) {
	s.commentMu.Lock()
	defer s.commentMu.Unlock()
	for _, order := range []string{SortNewest, SortOldest, SortMostReplies} {
		delete(s.commentCache, fmt.Sprintf("%d:%s", documentID, order))
	}
}

// CreateAnnotation validates bounds, rate-limits, and spam-filters a new
// highlight/note.
func (s *Service) CreateAnnotation(ctx context.Context, a *catalog.Annotation) (*catalog.Annotation, error) {
	if a.PageNumber < 1 || a.Width <= 0 || a.Height <= 0 || a.X < 0 || a.Y < 0 {
		return nil, apierr.New(apierr.InputInvalid, "annotation rectangle is invalid")
	}
	if _, err := s.store.GetApprovedDocument(ctx, a.DocumentID); err != nil {
		return nil, err
	}

	last, err := s.store.LastAnnotationAt(ctx, a.DocumentID, a.SessionHash)
	if err != nil {
		return nil, err
	}
	if last != nil {
		elapsed := time.Since(last.CreatedAt)
		if elapsed < s.rateLimitWindow {
			remaining := int((s.rateLimitWindow - elapsed).Seconds()) + 1
			return nil, apierr.New(apierr.RateLimited, fmt.Sprintf("please wait %d more seconds before annotating again", remaining)).
				WithDetails(map[string]any{"retry_after_seconds": remaining})
		}
	}

	if a.AnnotationNote != "" && s.spam.Matches(ctx, a.AnnotationNote) {
		return nil, apierr.New(apierr.InputInvalid, "annotation note contains prohibited content")
	}

	created, err := s.store.CreateAnnotation(ctx, a)
	if err != nil {
		return nil, err
	}
	s.invalidateAnnotations(a.DocumentID)
	return created, nil
}

// ListAnnotations returns a document's annotations, cached for up to 5
// minutes per document.
func (s *Service) ListAnnotations(ctx context.Context, documentID int64) ([]*catalog.Annotation, error) {
	s.annotationMu.Lock()
	if entry, ok := s.annotationCache[documentID]; ok && time.Since(entry.at) < listCacheTTL {
		s.annotationMu.Unlock()
		return entry.list, nil
	}
	s.annotationMu.Unlock()

	list, err := s.store.ListAnnotations(ctx, documentID)
	if err != nil {
		return nil, err
	}

	s.annotationMu.Lock()
	s.annotationCache[documentID] = annotationCacheEntry{list: list, at: time.Now()}
	s.annotationMu.Unlock()
	return list, nil
}

// DeleteAnnotation removes an annotation; sessionHash must match the
// original author unless asAdmin is set.
func (s *Service) DeleteAnnotation(ctx context.Context, id int64, sessionHash string, asAdmin bool) error {
	annotation, err := s.store.GetAnnotation(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAnnotation(ctx, id, sessionHash, asAdmin); err != nil {
		return err
	}
	s.invalidateAnnotations(annotation.DocumentID)
	return nil
}

func (s *Service) invalidateAnnotations(documentID int64) {
	s.annotationMu.Lock()
	delete(s.annotationCache, documentID)
	s.annotationMu.Unlock()
}
