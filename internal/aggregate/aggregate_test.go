package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xaenox/rateai/internal/models"
)

func baseAggregate() Aggregate {
	return Aggregate{
		Scores: models.Scores{
			models.Versatility:      8.0,
			models.ImageGeneration:  6.0,
			models.InformationQuery: 7.0,
			models.StudyAssistance:  9.0,
			models.ValueForMoney:    5.0,
		},
		Overall:      7.5,
		AverageScore: 7.0,
		RatingCount:  10,
	}
}

func TestApply_NewRating(t *testing.T) {
	cur := baseAggregate()
	next := models.RatingSubmission{Scores: models.Scores{models.Versatility: 10}}

	got := Apply(cur, nil, next)

	assert.Equal(t, 8.18, got.Scores[models.Versatility])
	assert.Equal(t, 11, got.RatingCount)
	// untouched categories keep their value
	assert.Equal(t, 6.0, got.Scores[models.ImageGeneration])
	assert.Equal(t, 5.0, got.Scores[models.ValueForMoney])
	assert.Equal(t, 7.5, got.Overall)
}

func TestApply_NewRatingCountsOnce(t *testing.T) {
	cur := baseAggregate()
	next := models.RatingSubmission{Scores: models.Scores{
		models.Versatility:     10,
		models.ImageGeneration: 4,
		models.ValueForMoney:   8,
	}}

	got := Apply(cur, nil, next)

	assert.Equal(t, 11, got.RatingCount)
	assert.Equal(t, round2((6.0*10+4)/11), got.Scores[models.ImageGeneration])
	assert.Equal(t, round2((5.0*10+8)/11), got.Scores[models.ValueForMoney])
}

func TestApply_Update(t *testing.T) {
	cur := baseAggregate()
	prev := &models.RatingSubmission{Scores: models.Scores{models.Versatility: 6}}
	next := models.RatingSubmission{Scores: models.Scores{models.Versatility: 10}}

	got := Apply(cur, prev, next)

	assert.Equal(t, 10, got.RatingCount)
	assert.Equal(t, round2((8.0*10-6+10)/10), got.Scores[models.Versatility])
}

func TestApply_UpdateFirstTimeCategory(t *testing.T) {
	cur := baseAggregate()
	prev := &models.RatingSubmission{Scores: models.Scores{models.Versatility: 6}}
	next := models.RatingSubmission{Scores: models.Scores{models.StudyAssistance: 4}}

	got := Apply(cur, prev, next)

	assert.Equal(t, 10, got.RatingCount)
	assert.Equal(t, round2((9.0*10+4)/10), got.Scores[models.StudyAssistance])
	assert.Equal(t, 8.0, got.Scores[models.Versatility])
}

func TestApply_UpdateIsIdempotent(t *testing.T) {
	cur := baseAggregate()
	cur.Scores[models.Versatility] = 8.2
	sub := models.RatingSubmission{
		Scores:  models.Scores{models.Versatility: 9, models.ValueForMoney: 3},
		Overall: 8,
	}

	once := Apply(cur, &sub, sub)
	twice := Apply(once, &sub, sub)

	assert.Equal(t, cur.Scores, once.Scores)
	assert.Equal(t, once, twice)
	assert.Equal(t, cur.RatingCount, twice.RatingCount)
	assert.Equal(t, cur.Overall, twice.Overall)
}

func TestApply_OverallIsIndependent(t *testing.T) {
	cur := baseAggregate()
	next := models.RatingSubmission{Overall: 10}

	got := Apply(cur, nil, next)

	assert.Equal(t, round2((7.5*10+10)/11), got.Overall)
	assert.Equal(t, cur.Scores, got.Scores)
	assert.Equal(t, Mean(cur.Scores), got.AverageScore)
}

func TestApply_UpdateWithZeroCount(t *testing.T) {
	cur := Aggregate{Scores: models.Scores{}, RatingCount: 0}
	prev := &models.RatingSubmission{Scores: models.Scores{models.Versatility: 2}}
	next := models.RatingSubmission{Scores: models.Scores{models.Versatility: 7}}

	got := Apply(cur, prev, next)

	assert.Equal(t, 7.0, got.Scores[models.Versatility])
	assert.Equal(t, 0, got.RatingCount)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	cur := baseAggregate()
	Apply(cur, nil, models.RatingSubmission{Scores: models.Scores{models.Versatility: 1}})
	assert.Equal(t, 8.0, cur.Scores[models.Versatility])
}

func TestApplyProperties(t *testing.T) {
	cases := []struct {
		avg float64
		n   int
		v   float64
	}{
		{0, 0, 5},
		{3.5, 2, 10},
		{9.9, 100, 1},
		{5, 1, 5},
	}
	for _, tc := range cases {
		cur := Aggregate{Scores: models.Scores{models.InformationQuery: tc.avg}, RatingCount: tc.n}
		got := Apply(cur, nil, models.RatingSubmission{Scores: models.Scores{models.InformationQuery: tc.v}})
		assert.InDelta(t, (tc.avg*float64(tc.n)+tc.v)/float64(tc.n+1), got.Scores[models.InformationQuery], 0.005)
		assert.Equal(t, tc.n+1, got.RatingCount)
	}
}

func TestFromItemApplyTo(t *testing.T) {
	item := &models.Item{
		ID:           1,
		Ratings:      models.Scores{models.Versatility: 3},
		Overall:      2,
		AverageScore: 0.6,
		RatingCount:  4,
	}
	snap := FromItem(item)
	item.Ratings[models.Versatility] = 9
	item.RatingCount = 5

	snap.ApplyTo(item)

	assert.Equal(t, 3.0, item.Ratings[models.Versatility])
	assert.Equal(t, 4, item.RatingCount)
}

func TestRevert_UndoesNewRating(t *testing.T) {
	cur := baseAggregate()
	sub := models.RatingSubmission{
		Scores:  models.Scores{models.Versatility: 10, models.ValueForMoney: 3},
		Overall: 9,
	}

	got := Revert(Apply(cur, nil, sub), nil, sub)

	assert.Equal(t, 10, got.RatingCount)
	assert.InDelta(t, 8.0, got.Scores[models.Versatility], 0.02)
	assert.InDelta(t, 5.0, got.Scores[models.ValueForMoney], 0.02)
	assert.InDelta(t, 7.5, got.Overall, 0.02)
	assert.Equal(t, 6.0, got.Scores[models.ImageGeneration])
}

func TestRevert_UndoesUpdate(t *testing.T) {
	cur := baseAggregate()
	prev := &models.RatingSubmission{Scores: models.Scores{models.StudyAssistance: 4}}
	next := models.RatingSubmission{Scores: models.Scores{models.StudyAssistance: 10}}

	got := Revert(Apply(cur, prev, next), prev, next)

	assert.Equal(t, 10, got.RatingCount)
	assert.InDelta(t, 9.0, got.Scores[models.StudyAssistance], 0.02)
}

func TestRevert_KeepsLaterSubmissions(t *testing.T) {
	first := models.RatingSubmission{Scores: models.Scores{models.Versatility: 10}}
	second := models.RatingSubmission{Scores: models.Scores{models.Versatility: 2}}
	both := Apply(Apply(baseAggregate(), nil, first), nil, second)

	got := Revert(both, nil, first)

	want := Apply(baseAggregate(), nil, second)
	assert.Equal(t, want.RatingCount, got.RatingCount)
	assert.InDelta(t, want.Scores[models.Versatility], got.Scores[models.Versatility], 0.02)
}

func TestRevert_LastRating(t *testing.T) {
	cur := Aggregate{Scores: models.Scores{models.Versatility: 6}, Overall: 6, RatingCount: 1}
	sub := models.RatingSubmission{Scores: models.Scores{models.Versatility: 6}, Overall: 6}

	got := Revert(cur, nil, sub)

	assert.Equal(t, 0, got.RatingCount)
	assert.Equal(t, 0.0, got.Scores[models.Versatility])
	assert.Equal(t, 0.0, got.Overall)
}

func TestAggregateEqual(t *testing.T) {
	a := baseAggregate()
	assert.True(t, a.Equal(baseAggregate()))

	b := baseAggregate()
	b.Scores[models.ImageGeneration] = 6.5
	assert.False(t, a.Equal(b))

	c := baseAggregate()
	c.RatingCount++
	assert.False(t, a.Equal(c))
}
