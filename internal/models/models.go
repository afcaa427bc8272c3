package models

import (
	"strings"
	"time"
)

// Category is one of the fixed rating dimensions of an AI product.
type Category string

const (
	Versatility      Category = "versatility"
	ImageGeneration  Category = "imageGeneration"
	InformationQuery Category = "informationQuery"
	StudyAssistance  Category = "studyAssistance"
	ValueForMoney    Category = "valueForMoney"
)

// Categories lists the rating dimensions in display order.
var Categories = []Category{
	Versatility,
	ImageGeneration,
	InformationQuery,
	StudyAssistance,
	ValueForMoney,
}

// ParseCategory accepts the camelCase name or a short alias used by the front-ends.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "versatility", "v":
		return Versatility, true
	case "imagegeneration", "image", "img":
		return ImageGeneration, true
	case "informationquery", "info", "query":
		return InformationQuery, true
	case "studyassistance", "study":
		return StudyAssistance, true
	case "valueformoney", "value":
		return ValueForMoney, true
	}
	return "", false
}

// Scores maps a category to a score on the 0..10 scale.
type Scores map[Category]float64

func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Tag is a free-text label attached to an item with its usage count.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TrendPoint is the aggregate score of an item for one calendar month.
type TrendPoint struct {
	Month string  `json:"month"` // YYYY-MM
	Score float64 `json:"score"`
}

// Label renders the month part of the point, e.g. "2024-03" -> "3".
func (p TrendPoint) Label() string {
	t, err := time.Parse("2006-01", p.Month)
	if err != nil {
		return p.Month
	}
	return t.Format("1")
}

// Item represents a rated AI product as shown by the client.
type Item struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	Developer     string         `json:"developer"`
	Description   string         `json:"description"`
	Price         string         `json:"price"`
	Link          string         `json:"link"`
	Ratings       Scores         `json:"ratings"`
	Overall       float64        `json:"overall"`
	AverageScore  float64        `json:"average_score"`
	RatingCount   int            `json:"rating_count"`
	FavoriteCount int            `json:"favorite_count"`
	Tags          []Tag          `json:"tags"`
	Reactions     ReactionCounts `json:"reactions"`
	Trend         []TrendPoint   `json:"trend"`
}

// HasTag reports whether the item carries the tag (exact match).
func (i *Item) HasTag(name string) bool {
	for _, t := range i.Tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// TagNames returns the tag names in server order.
func (i *Item) TagNames() []string {
	names := make([]string, 0, len(i.Tags))
	for _, t := range i.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Clone returns a deep copy so that snapshots survive later patches.
func (i *Item) Clone() *Item {
	c := *i
	c.Ratings = i.Ratings.Clone()
	c.Tags = append([]Tag(nil), i.Tags...)
	c.Reactions = i.Reactions.Clone()
	c.Trend = append([]TrendPoint(nil), i.Trend...)
	return &c
}
