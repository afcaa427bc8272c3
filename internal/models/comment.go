package models

import "time"

// Comment is a top-level comment or a reply. Replies point at their parent
// through ParentID; roots have ParentID == 0.
type Comment struct {
	ID        int       `json:"id"`
	ItemID    int       `json:"item_id"`
	ParentID  int       `json:"parent_id,omitempty"`
	Author    string    `json:"author"`
	ReplyTo   string    `json:"reply_to,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Content   string    `json:"content"`
	Images    []string  `json:"images,omitempty"`
	Upvotes   int       `json:"upvotes"`
}

// Date is the day the comment was written, as displayed in lists.
func (c *Comment) Date() string {
	if c.CreatedAt.IsZero() {
		return ""
	}
	return c.CreatedAt.Format("2006-01-02")
}

// CommentRecord is the ledger entry kept for a comment the user wrote.
type CommentRecord struct {
	ItemID    int    `json:"item_id"`
	CommentID int    `json:"comment_id"`
	Content   string `json:"content"`
}
