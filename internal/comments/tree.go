package comments

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/xaenox/rateai/internal/models"
)

var strict = bluemonday.StrictPolicy()

// Node is one comment in a display tree.
type Node struct {
	Comment *models.Comment
	Depth   int
	Replies []*Node
	Hidden  int // replies below the display depth that were cut off
}

// Tree builds the display tree of an item. Replies deeper than maxDepth are
// not expanded; their count is reported on the last rendered node.
func (a *Arena) Tree(itemID, maxDepth int) []*Node {
	if maxDepth <= 0 {
		maxDepth = MaxDisplayDepth
	}
	roots := a.Roots(itemID)
	out := make([]*Node, 0, len(roots))
	for _, c := range roots {
		out = append(out, a.node(c, 0, maxDepth))
	}
	return out
}

func (a *Arena) node(c *models.Comment, depth, maxDepth int) *Node {
	n := &Node{Comment: c, Depth: depth}
	children := a.Children(c.ID)
	if depth >= maxDepth {
		n.Hidden = a.descendants(c.ID)
		return n
	}
	for _, child := range children {
		n.Replies = append(n.Replies, a.node(child, depth+1, maxDepth))
	}
	return n
}

func (a *Arena) descendants(id int) int {
	n := 0
	for _, child := range a.children[id] {
		n += 1 + a.descendants(child)
	}
	return n
}

// Walk visits the tree depth-first in display order.
func Walk(nodes []*Node, fn func(*Node)) {
	for _, n := range nodes {
		fn(n)
		Walk(n.Replies, fn)
	}
}

// Sanitize strips markup from user content. The result is plain text, so the
// entities the policy escapes are decoded again.
func Sanitize(content string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(content)))
}
