package models

import "time"

// User is the projection of the logged-in account returned by the backend.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is the per-user ledger of ratings, comments, reactions and tags,
// used to pre-fill forms and reflect prior actions.
type Activity struct {
	Ratings   []RatingRecord       `json:"ratings"`
	Comments  []CommentRecord      `json:"comments"`
	Reactions map[int]ReactionType `json:"reactions"`
	Tags      map[int][]string     `json:"tags"`
}

func NewActivity() Activity {
	return Activity{
		Ratings:   []RatingRecord{},
		Comments:  []CommentRecord{},
		Reactions: map[int]ReactionType{},
		Tags:      map[int][]string{},
	}
}

// Normalize fills nil collections, e.g. after decoding an older cache entry.
func (a *Activity) Normalize() {
	if a.Ratings == nil {
		a.Ratings = []RatingRecord{}
	}
	if a.Comments == nil {
		a.Comments = []CommentRecord{}
	}
	if a.Reactions == nil {
		a.Reactions = map[int]ReactionType{}
	}
	if a.Tags == nil {
		a.Tags = map[int][]string{}
	}
}

// Rating returns the user's previous rating of the item, if any.
func (a *Activity) Rating(itemID int) (RatingRecord, int, bool) {
	for i, r := range a.Ratings {
		if r.ItemID == itemID {
			return r, i, true
		}
	}
	return RatingRecord{}, -1, false
}

// Session is what the client persists between runs for the logged-in user.
type Session struct {
	User        User      `json:"user"`
	FavoriteIDs []int     `json:"favorite_ids"`
	Activity    Activity  `json:"activity"`
	SavedAt     time.Time `json:"saved_at"`
}
