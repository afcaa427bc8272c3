package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/rateai/internal/models"
)

func ids(items []*models.Item) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func fixture() []*models.Item {
	return []*models.Item{
		{
			ID: 1, Name: "ChatGPT", Developer: "OpenAI", Price: "Free / $20", AverageScore: 8.8, RatingCount: 40,
			Ratings: models.Scores{models.StudyAssistance: 9, models.ImageGeneration: 7, models.ValueForMoney: 8},
			Tags:    []models.Tag{{Name: "万能", Count: 3}},
		},
		{
			ID: 2, Name: "midjourney", Developer: "Midjourney Inc.", Price: "$10/month", AverageScore: 7.1, RatingCount: 55,
			Ratings: models.Scores{models.StudyAssistance: 3, models.ImageGeneration: 9.6, models.ValueForMoney: 9},
			Tags:    []models.Tag{{Name: "画图一流", Count: 5}},
		},
		{
			ID: 3, Name: "Kimi", Developer: "Moonshot", Price: "免费", AverageScore: 8.0, RatingCount: 12,
			Ratings: models.Scores{models.StudyAssistance: 8.5, models.ImageGeneration: 2, models.ValueForMoney: 6},
			Tags:    []models.Tag{{Name: "长文本", Count: 1}, {Name: "免费", Count: 2}},
		},
	}
}

func TestFilter_Apply(t *testing.T) {
	items := fixture()

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{name: "default alpha", filter: Filter{}, want: []int{1, 3, 2}},
		{name: "query developer", filter: Filter{Query: "openai"}, want: []int{1}},
		{name: "query tag", filter: Filter{Query: "长文"}, want: []int{3}},
		{name: "any tag", filter: Filter{Tags: []string{"画图一流", "长文本"}, SortBy: SortRatingCount}, want: []int{2, 3}},
		{name: "min score", filter: Filter{MinScore: 8, SortBy: SortScore}, want: []int{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(items)))
		})
	}
	assert.Equal(t, []int{1, 2, 3}, ids(items), "input order is preserved")
}

func TestRank(t *testing.T) {
	items := fixture()
	assert.Equal(t, []int{1, 3, 2}, ids(Rank(items, RankOverall)))
	assert.Equal(t, []int{1, 3, 2}, ids(Rank(items, RankStudents)))
	assert.Equal(t, []int{2, 1, 3}, ids(Rank(items, RankImage)))
	// ChatGPT and Kimi count as free: 8 and 6, Midjourney 9/5
	assert.Equal(t, []int{1, 3, 2}, ids(Rank(items, RankValue)))
}

func TestParseRanking(t *testing.T) {
	r, err := ParseRanking("value")
	require.NoError(t, err)
	assert.Equal(t, RankValue, r)
	_, err = ParseRanking("nope")
	assert.Error(t, err)
}
