package models

// ReactionType is one of the fixed sentiment signals a user can leave on an item.
type ReactionType string

const (
	ThumbUp   ReactionType = "thumbUp"
	ThumbDown ReactionType = "thumbDown"
	Amazing   ReactionType = "amazing"
	Bad       ReactionType = "bad"
)

var ReactionTypes = []ReactionType{ThumbUp, ThumbDown, Amazing, Bad}

func (t ReactionType) Valid() bool {
	for _, r := range ReactionTypes {
		if r == t {
			return true
		}
	}
	return false
}

// ReactionCounts holds the per-type counters of an item.
type ReactionCounts map[ReactionType]int

func (c ReactionCounts) Clone() ReactionCounts {
	out := make(ReactionCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
