// Package comments stores comments and replies flat, keyed by id, with a
// parent back-reference, and builds display trees on demand.
package comments

import (
	"sort"

	"github.com/xaenox/rateai/internal/models"
)

// MaxDisplayDepth is the deepest reply level a view renders.
const MaxDisplayDepth = 3

// Arena holds every known comment. It is not safe for concurrent use; the
// store guards it.
type Arena struct {
	byID     map[int]*models.Comment
	children map[int][]int // parent id -> child ids in insertion order
	roots    map[int][]int // item id -> root comment ids
}

func NewArena() *Arena {
	return &Arena{
		byID:     make(map[int]*models.Comment),
		children: make(map[int][]int),
		roots:    make(map[int][]int),
	}
}

// Load replaces the arena content with a full snapshot. Replies whose parent
// is not in the snapshot are kept as roots of their item.
func Load(all []models.Comment) *Arena {
	a := NewArena()
	for i := range all {
		c := all[i]
		a.byID[c.ID] = &c
	}
	ordered := make([]*models.Comment, 0, len(a.byID))
	for _, c := range a.byID {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})
	for _, c := range ordered {
		a.link(c)
	}
	return a
}

// Add inserts a comment or reply. A reply to an unknown parent is attached as
// a root of its item.
func (a *Arena) Add(c models.Comment) {
	if old, ok := a.byID[c.ID]; ok {
		*old = c
		return
	}
	a.byID[c.ID] = &c
	a.link(&c)
}

func (a *Arena) link(c *models.Comment) {
	if c.ParentID != 0 {
		if parent, ok := a.byID[c.ParentID]; ok {
			if c.ItemID == 0 {
				c.ItemID = parent.ItemID
			}
			a.children[c.ParentID] = append(a.children[c.ParentID], c.ID)
			return
		}
	}
	a.roots[c.ItemID] = append(a.roots[c.ItemID], c.ID)
}

func (a *Arena) Get(id int) (*models.Comment, bool) {
	c, ok := a.byID[id]
	return c, ok
}

func (a *Arena) Len() int {
	return len(a.byID)
}

// Roots returns the top-level comments of an item, oldest first.
func (a *Arena) Roots(itemID int) []*models.Comment {
	return a.resolve(a.roots[itemID])
}

// Children returns the direct replies to a comment, oldest first.
func (a *Arena) Children(id int) []*models.Comment {
	return a.resolve(a.children[id])
}

// Depth is 0 for a root and grows by one per reply level.
func (a *Arena) Depth(id int) int {
	depth := 0
	c, ok := a.byID[id]
	for ok && c.ParentID != 0 {
		parent, found := a.byID[c.ParentID]
		if !found {
			break
		}
		depth++
		c = parent
	}
	return depth
}

// CountForItem counts all comments and replies of an item.
func (a *Arena) CountForItem(itemID int) int {
	n := 0
	for _, c := range a.byID {
		if c.ItemID == itemID {
			n++
		}
	}
	return n
}

// ByAuthor returns the comments written by author, newest first.
func (a *Arena) ByAuthor(author string) []*models.Comment {
	var out []*models.Comment
	for _, c := range a.byID {
		if c.Author == author {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (a *Arena) resolve(ids []int) []*models.Comment {
	out := make([]*models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := a.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}
