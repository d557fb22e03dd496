// Package thread turns a recipe's flat comment rows into an ordered forest.
package thread

import (
	"sort"

	"github.com/recipe-comments-api/internal/models"
)

// BuildForest assembles comments into reply trees. A comment whose parent is
// not in the batch becomes a root. Siblings at every level, and the roots,
// are ordered by creation time with ties broken by id.
func BuildForest(comments []*models.Comment, aggregates map[int64]models.VoteAggregate) []*models.CommentNode {
	index := make(map[int64]int, len(comments))
	nodes := make([]*models.CommentNode, 0, len(comments))

	for _, c := range comments {
		if _, dup := index[c.ID]; dup {
			continue
		}
		agg := aggregates[c.ID]
		index[c.ID] = len(nodes)
		nodes = append(nodes, &models.CommentNode{
			Comment: *c,
			Score:   agg.Score,
			MyVote:  agg.MyVote,
			Replies: make([]*models.CommentNode, 0),
		})
	}

	roots := make([]*models.CommentNode, 0)
	for _, node := range nodes {
		if node.ParentID != nil && *node.ParentID != node.ID {
			if parentIdx, ok := index[*node.ParentID]; ok {
				parent := nodes[parentIdx]
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortSiblings(roots)
	Walk(roots, func(node *models.CommentNode, _ int) {
		sortSiblings(node.Replies)
	})

	return roots
}

// Walk visits every node depth-first in presentation order. depth is 0 for roots.
func Walk(forest []*models.CommentNode, fn func(node *models.CommentNode, depth int)) {
	type frame struct {
		node  *models.CommentNode
		depth int
	}

	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{forest[i], 0})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(top.node, top.depth)

		// fn may reorder replies, so read them after the call
		for i := len(top.node.Replies) - 1; i >= 0; i-- {
			stack = append(stack, frame{top.node.Replies[i], top.depth + 1})
		}
	}
}

// Find returns the node with the given id, or nil
func Find(forest []*models.CommentNode, id int64) *models.CommentNode {
	var found *models.CommentNode
	Walk(forest, func(node *models.CommentNode, _ int) {
		if found == nil && node.ID == id {
			found = node
		}
	})
	return found
}

func sortSiblings(siblings []*models.CommentNode) {
	sort.SliceStable(siblings, func(i, j int) bool {
		a, b := siblings[i], siblings[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
