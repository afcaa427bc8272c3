package comments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/rateai/internal/models"
)

func at(min int) time.Time {
	return time.Date(2024, 5, 1, 10, min, 0, 0, time.UTC)
}

func sampleComments() []models.Comment {
	return []models.Comment{
		{ID: 1, ItemID: 7, Author: "ann", Content: "root", CreatedAt: at(0)},
		{ID: 2, ItemID: 7, ParentID: 1, Author: "bob", Content: "r1", CreatedAt: at(1)},
		{ID: 3, ItemID: 7, ParentID: 2, Author: "ann", ReplyTo: "bob", Content: "r2", CreatedAt: at(2)},
		{ID: 4, ItemID: 7, ParentID: 3, Author: "cat", Content: "r3", CreatedAt: at(3)},
		{ID: 5, ItemID: 7, ParentID: 4, Author: "bob", Content: "r4", CreatedAt: at(4)},
		{ID: 6, ItemID: 8, Author: "dan", Content: "other item", CreatedAt: at(5)},
	}
}

func TestLoad_LinksParents(t *testing.T) {
	// snapshot order must not matter
	all := sampleComments()
	all[0], all[4] = all[4], all[0]
	a := Load(all)

	require.Equal(t, 6, a.Len())
	roots := a.Roots(7)
	require.Len(t, roots, 1)
	assert.Equal(t, 1, roots[0].ID)
	assert.Equal(t, 2, a.Children(1)[0].ID)
	assert.Equal(t, 4, a.Depth(5))
	assert.Equal(t, 0, a.Depth(1))
	assert.Equal(t, 5, a.CountForItem(7))
}

func TestAdd_ReplyToUnknownParentBecomesRoot(t *testing.T) {
	a := NewArena()
	a.Add(models.Comment{ID: 10, ItemID: 3, ParentID: 99, Content: "orphan"})
	assert.Len(t, a.Roots(3), 1)
}

func TestAdd_ReplyInheritsItem(t *testing.T) {
	a := Load(sampleComments())
	a.Add(models.Comment{ID: 20, ParentID: 6, Content: "reply"})
	c, ok := a.Get(20)
	require.True(t, ok)
	assert.Equal(t, 8, c.ItemID)
	assert.Len(t, a.Children(6), 1)
}

func TestTree_TruncatesDepth(t *testing.T) {
	a := Load(sampleComments())

	tree := a.Tree(7, MaxDisplayDepth)

	var depths []int
	Walk(tree, func(n *Node) { depths = append(depths, n.Depth) })
	assert.Equal(t, []int{0, 1, 2, 3}, depths)

	last := tree[0].Replies[0].Replies[0].Replies[0]
	assert.Equal(t, 4, last.Comment.ID)
	assert.Equal(t, 1, last.Hidden)
}

func TestByAuthor(t *testing.T) {
	a := Load(sampleComments())
	got := a.ByAuthor("bob")
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello", Sanitize(` <script>alert(1)</script><b>hello</b> `))
	assert.Equal(t, "fast & cheap", Sanitize("fast & <i>cheap</i>"))
}
