package moderation

import "sort"

const (
	SortNewest      = "newest"
	SortOldest      = "oldest"
	SortMostReplies = "most_replies"
)

// SortNodes orders top-level comment nodes by the requested listing
// order; replies stay in creation order underneath.
func SortNodes(nodes []*CommentNode, order string) {
	switch order {
	case SortMostReplies:
		sort.SliceStable(nodes, func(i, j int) bool {
			if nodes[i].DescendantCount != nodes[j].DescendantCount {
				return nodes[i].DescendantCount > nodes[j].DescendantCount
			}
			return nodes[i].CreatedAt.After(nodes[j].CreatedAt)
		})
	case SortOldest:
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		})
	default:
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].CreatedAt.After(nodes[j].CreatedAt)
		})
	}
}
