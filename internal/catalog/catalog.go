// Package catalog implements the read-side queries over the item catalog:
// search/filter for the home list and the ranking boards.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xaenox/rateai/internal/models"
)

type SortBy string

const (
	SortAlpha       SortBy = "alpha"
	SortRatingCount SortBy = "ratingCount"
	SortScore       SortBy = "score"
)

// Filter selects and orders items for the home list.
type Filter struct {
	Query    string
	Tags     []string // item must carry at least one of them
	MinScore float64
	SortBy   SortBy
}

// Apply returns the matching items in the requested order. The input slice is
// not modified.
func (f Filter) Apply(items []*models.Item) []*models.Item {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]*models.Item, 0, len(items))
	for _, it := range items {
		if !matchesQuery(it, q) || !matchesTags(it, f.Tags) || it.AverageScore < f.MinScore {
			continue
		}
		out = append(out, it)
	}

	switch f.SortBy {
	case SortRatingCount:
		sort.SliceStable(out, func(i, j int) bool { return out[i].RatingCount > out[j].RatingCount })
	case SortScore:
		sort.SliceStable(out, func(i, j int) bool { return out[i].AverageScore > out[j].AverageScore })
	case SortAlpha, "":
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	}
	return out
}

func matchesQuery(it *models.Item, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(it.Name), q) || strings.Contains(strings.ToLower(it.Developer), q) {
		return true
	}
	for _, t := range it.Tags {
		if strings.Contains(strings.ToLower(t.Name), q) {
			return true
		}
	}
	return false
}

func matchesTags(it *models.Item, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if it.HasTag(w) {
			return true
		}
	}
	return false
}

// Ranking is one of the leaderboards.
type Ranking string

const (
	RankOverall  Ranking = "overall"
	RankStudents Ranking = "students"
	RankValue    Ranking = "value"
	RankImage    Ranking = "image"
)

var Rankings = []Ranking{RankOverall, RankStudents, RankValue, RankImage}

func ParseRanking(s string) (Ranking, error) {
	for _, r := range Rankings {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown ranking %q", s)
}

// Rank orders a copy of items for the leaderboard, best first.
func Rank(items []*models.Item, kind Ranking) []*models.Item {
	out := append([]*models.Item(nil), items...)
	var key func(*models.Item) float64
	switch kind {
	case RankStudents:
		key = func(it *models.Item) float64 { return it.Ratings[models.StudyAssistance] }
	case RankValue:
		key = valueScore
	case RankImage:
		key = func(it *models.Item) float64 { return it.Ratings[models.ImageGeneration] }
	default:
		key = func(it *models.Item) float64 { return it.AverageScore }
	}
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	return out
}

// valueScore favors free products: paid ones have their value-for-money
// score divided by five.
func valueScore(it *models.Item) float64 {
	v := it.Ratings[models.ValueForMoney]
	if IsFree(it.Price) {
		return v
	}
	return v / 5
}

func IsFree(price string) bool {
	p := strings.ToLower(price)
	return strings.Contains(p, "免费") || strings.Contains(p, "free")
}
