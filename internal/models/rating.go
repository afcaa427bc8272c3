package models

import "time"

// RatingSubmission is one user's sparse rating of one item. A zero or absent
// category means the user gave no opinion for it in this submission.
type RatingSubmission struct {
	Scores  Scores  `json:"scores"`
	Overall float64 `json:"overall,omitempty"`
}

// Present returns the categories carrying a score, in display order.
func (r RatingSubmission) Present() []Category {
	var out []Category
	for _, c := range Categories {
		if r.Scores[c] > 0 {
			out = append(out, c)
		}
	}
	return out
}

// IsEmpty reports whether nothing was rated.
func (r RatingSubmission) IsEmpty() bool {
	return r.Overall <= 0 && len(r.Present()) == 0
}

// RatingRecord is the ledger entry kept for a submitted rating.
type RatingRecord struct {
	ItemID      int              `json:"item_id"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Submission  RatingSubmission `json:"submission"`
}
