package moderation

import (
	"testing"
	"time"

	"github.com/haqnow/archive/internal/catalog"
)

func ptr(v int64) *int64 { return &v }

func TestBuildTreeDescendantCounts(t *testing.T) {
	now := time.Now()
	comments := []*catalog.Comment{
		{ID: 1, Status: catalog.CommentApproved, CreatedAt: now},
		{ID: 2, ParentCommentID: ptr(1), Status: catalog.CommentApproved, CreatedAt: now.Add(time.Second)},
		{ID: 3, ParentCommentID: ptr(2), Status: catalog.CommentApproved, CreatedAt: now.Add(2 * time.Second)},
		{ID: 4, Status: catalog.CommentApproved, CreatedAt: now.Add(3 * time.Second)},
	}

	roots := BuildTree(comments)
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}

	var root1 *CommentNode
	for _, r := range roots {
		if r.ID == 1 {
			root1 = r
		}
	}
	if root1 == nil {
		t.Fatal("expected to find root comment 1")
	}
	if root1.DescendantCount != 2 {
		t.Errorf("root 1 descendant count = %d, want 2", root1.DescendantCount)
	}
	if len(root1.Replies) != 1 || root1.Replies[0].ID != 2 {
		t.Fatalf("expected comment 1's only reply to be comment 2, got %+v", root1.Replies)
	}
	if root1.Replies[0].DescendantCount != 1 {
		t.Errorf("comment 2 descendant count = %d, want 1", root1.Replies[0].DescendantCount)
	}
}

func TestBuildTreeOrphanedParentBecomesRoot(t *testing.T) {
	comments := []*catalog.Comment{
		{ID: 5, ParentCommentID: ptr(999), Status: catalog.CommentApproved, CreatedAt: time.Now()},
	}
	roots := BuildTree(comments)
	if len(roots) != 1 || roots[0].ID != 5 {
		t.Fatalf("expected orphan to surface as a root, got %+v", roots)
	}
}

func TestFilterVisibleDropsFlaggedSubtree(t *testing.T) {
	now := time.Now()
	comments := []*catalog.Comment{
		{ID: 1, Status: catalog.CommentFlagged, CreatedAt: now},
		{ID: 2, ParentCommentID: ptr(1), Status: catalog.CommentApproved, CreatedAt: now},
		{ID: 3, Status: catalog.CommentApproved, CreatedAt: now},
	}
	roots := filterVisible(BuildTree(comments))
	if len(roots) != 1 || roots[0].ID != 3 {
		t.Fatalf("expected only comment 3 to survive filtering, got %+v", roots)
	}
}

func TestSortNodesMostReplies(t *testing.T) {
	now := time.Now()
	nodes := []*CommentNode{
		{Comment: &catalog.Comment{ID: 1, CreatedAt: now}, DescendantCount: 1},
		{Comment: &catalog.Comment{ID: 2, CreatedAt: now}, DescendantCount: 5},
		{Comment: &catalog.Comment{ID: 3, CreatedAt: now}, DescendantCount: 3},
	}
	SortNodes(nodes, SortMostReplies)
	if nodes[0].ID != 2 || nodes[1].ID != 3 || nodes[2].ID != 1 {
		t.Fatalf("expected order [2,3,1] by descendant count, got [%d,%d,%d]", nodes[0].ID, nodes[1].ID, nodes[2].ID)
	}
}

func TestSortNodesOldestFirst(t *testing.T) {
	now := time.Now()
	nodes := []*CommentNode{
		{Comment: &catalog.Comment{ID: 1, CreatedAt: now.Add(time.Hour)}},
		{Comment: &catalog.Comment{ID: 2, CreatedAt: now}},
	}
	SortNodes(nodes, SortOldest)
	if nodes[0].ID != 2 {
		t.Fatalf("expected oldest comment first, got id=%d", nodes[0].ID)
	}
}
