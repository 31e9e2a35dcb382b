package moderation

import "github.com/haqnow/archive/internal/catalog"

// CommentNode is one id-indexed node of the public comment tree, built
// bottom-up from a flat list to avoid the cyclic parent/children
// attribute pattern an ORM would otherwise encourage.
type CommentNode struct {
	*catalog.Comment
	Replies         []*CommentNode `json:"replies,omitempty"`
	DescendantCount int            `json:"descendant_count"`
}

// BuildTree converts the catalog's flat, parent-id-referencing list into
// a tree. Replies always carry a larger id than their parent (ids are
// assigned at insert time), so a single reverse pass accumulates
// descendant counts bottom-up in O(n) without recursion.
func BuildTree(comments []*catalog.Comment) []*CommentNode {
	nodes := make(map[int64]*CommentNode, len(comments))
	order := make([]*CommentNode, 0, len(comments))
	for _, c := range comments {
		n := &CommentNode{Comment: c}
		nodes[c.ID] = n
		order = append(order, n)
	}

	var roots []*CommentNode
	for _, n := range order {
		if n.ParentCommentID != nil {
			if parent, ok := nodes[*n.ParentCommentID]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		if n.ParentCommentID == nil {
			continue
		}
		if parent, ok := nodes[*n.ParentCommentID]; ok {
			parent.DescendantCount += n.DescendantCount + 1
		}
	}

	return roots
}

// filterVisible drops a node and its entire subtree when the node itself
// is not publicly visible (flagged/rejected); a redacted comment hides
// its replies too rather than surfacing orphaned children.
func filterVisible(nodes []*CommentNode) []*CommentNode {
	out := make([]*CommentNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Status != catalog.CommentApproved {
			continue
		}
		n.Replies = filterVisible(n.Replies)
		out = append(out, n)
	}
	return out
}
