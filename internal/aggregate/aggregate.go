// Package aggregate recomputes an item's displayed averages locally when a
// rating is submitted, before the backend returns its authoritative values.
//
// The result is a display cache only. Callers overwrite it with the server's
// numbers as soon as they are available and take a failed submission back out
// with Revert.
package aggregate

import (
	"math"

	"github.com/xaenox/rateai/internal/models"
)

// Aggregate is the set of fields the optimistic patch touches.
type Aggregate struct {
	Scores       models.Scores
	Overall      float64
	AverageScore float64
	RatingCount  int
}

// FromItem captures the aggregate fields of an item.
func FromItem(item *models.Item) Aggregate {
	return Aggregate{
		Scores:       item.Ratings.Clone(),
		Overall:      item.Overall,
		AverageScore: item.AverageScore,
		RatingCount:  item.RatingCount,
	}
}

// ApplyTo writes every aggregate field onto the item at once.
func (a Aggregate) ApplyTo(item *models.Item) {
	item.Ratings = a.Scores.Clone()
	item.Overall = a.Overall
	item.AverageScore = a.AverageScore
	item.RatingCount = a.RatingCount
}

// Apply returns the aggregate after folding in next. previous is the user's
// earlier submission for the same item, nil when this is a new rating.
//
// New rating: present categories become (A*N + V) / (N+1) and the count grows
// by exactly one. Update: present categories become (A*N - U + V) / N at an
// unchanged count, with U = 0 for categories the user had not rated before.
// Absent categories keep their value. The overall score follows the same
// rules independently and is never folded into the category mean.
func Apply(cur Aggregate, previous *models.RatingSubmission, next models.RatingSubmission) Aggregate {
	out := Aggregate{
		Scores:       cur.Scores.Clone(),
		Overall:      cur.Overall,
		AverageScore: cur.AverageScore,
		RatingCount:  cur.RatingCount,
	}
	if out.Scores == nil {
		out.Scores = models.Scores{}
	}

	n := float64(cur.RatingCount)
	if previous == nil {
		for _, c := range next.Present() {
			out.Scores[c] = round2(addContribution(cur.Scores[c], n, next.Scores[c]))
		}
		if next.Overall > 0 {
			out.Overall = round2(addContribution(cur.Overall, n, next.Overall))
		}
		out.RatingCount = cur.RatingCount + 1
	} else {
		for _, c := range next.Present() {
			out.Scores[c] = round2(replaceContribution(cur.Scores[c], n, previous.Scores[c], next.Scores[c]))
		}
		if next.Overall > 0 {
			out.Overall = round2(replaceContribution(cur.Overall, n, previous.Overall, next.Overall))
		}
	}

	out.AverageScore = Mean(out.Scores)
	return out
}

// Revert takes next back out of cur, the inverse of Apply with the same
// previous. Other submissions folded into cur in the meantime are kept.
func Revert(cur Aggregate, previous *models.RatingSubmission, next models.RatingSubmission) Aggregate {
	out := Aggregate{
		Scores:       cur.Scores.Clone(),
		Overall:      cur.Overall,
		AverageScore: cur.AverageScore,
		RatingCount:  cur.RatingCount,
	}
	if out.Scores == nil {
		out.Scores = models.Scores{}
	}

	n := float64(cur.RatingCount)
	if previous == nil {
		for _, c := range next.Present() {
			out.Scores[c] = round2(removeContribution(cur.Scores[c], n, next.Scores[c]))
		}
		if next.Overall > 0 {
			out.Overall = round2(removeContribution(cur.Overall, n, next.Overall))
		}
		if out.RatingCount > 0 {
			out.RatingCount--
		}
	} else {
		for _, c := range next.Present() {
			out.Scores[c] = round2(replaceContribution(cur.Scores[c], n, next.Scores[c], previous.Scores[c]))
		}
		if next.Overall > 0 {
			out.Overall = round2(replaceContribution(cur.Overall, n, next.Overall, previous.Overall))
		}
	}

	out.AverageScore = Mean(out.Scores)
	return out
}

// Equal reports whether both aggregates show the same values.
func (a Aggregate) Equal(b Aggregate) bool {
	if a.Overall != b.Overall || a.AverageScore != b.AverageScore || a.RatingCount != b.RatingCount {
		return false
	}
	for _, c := range models.Categories {
		if a.Scores[c] != b.Scores[c] {
			return false
		}
	}
	return true
}

// Mean is the average of the five category scores, rounded to 2 decimals.
func Mean(s models.Scores) float64 {
	var sum float64
	for _, c := range models.Categories {
		sum += s[c]
	}
	return round2(sum / float64(len(models.Categories)))
}

func addContribution(avg, n, v float64) float64 {
	return (avg*n + v) / (n + 1)
}

func removeContribution(avg, n, v float64) float64 {
	if n <= 1 {
		return 0
	}
	return (avg*n - v) / (n - 1)
}

func replaceContribution(avg, n, prev, v float64) float64 {
	if n <= 0 {
		return v
	}
	return (avg*n - prev + v) / n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
