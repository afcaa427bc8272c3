package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/rateai/internal/models"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name     string
		current  models.ReactionType
		selected models.ReactionType
		policy   Policy
		want     Decision
		wantErr  error
	}{
		{
			name:     "none to active",
			selected: models.ThumbUp,
			policy:   Block,
			want:     Decision{Action: Add, Next: models.ThumbUp},
		},
		{
			name:     "same reaction cancels",
			current:  models.Amazing,
			selected: models.Amazing,
			policy:   Block,
			want:     Decision{Action: Remove, Previous: models.Amazing},
		},
		{
			name:     "different reaction blocked",
			current:  models.ThumbUp,
			selected: models.Bad,
			policy:   Block,
			wantErr:  ErrReactionChangeBlocked,
		},
		{
			name:     "different reaction replaced",
			current:  models.ThumbUp,
			selected: models.Bad,
			policy:   Replace,
			want:     Decision{Action: Swap, Previous: models.ThumbUp, Next: models.Bad},
		},
		{
			name:     "unknown reaction",
			selected: models.ReactionType("love"),
			policy:   Block,
			wantErr:  ErrUnknownReaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.current, tt.selected, tt.policy)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransition_SelectTwiceReturnsToNone(t *testing.T) {
	first, err := Transition("", models.ThumbDown, Block)
	require.NoError(t, err)
	second, err := Transition(first.Next, models.ThumbDown, Block)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionType(""), second.Next)
	assert.Equal(t, Remove, second.Action)
}

func TestApplyCounts(t *testing.T) {
	counts := models.ReactionCounts{models.ThumbUp: 3, models.Bad: 0}

	swapped := Decision{Action: Swap, Previous: models.ThumbUp, Next: models.Bad}.ApplyCounts(counts)
	assert.Equal(t, 2, swapped[models.ThumbUp])
	assert.Equal(t, 1, swapped[models.Bad])
	assert.Equal(t, 3, counts[models.ThumbUp], "input must not change")

	floored := Decision{Action: Remove, Previous: models.Bad}.ApplyCounts(counts)
	assert.Equal(t, 0, floored[models.Bad])
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Block, p)

	p, err = ParsePolicy("replace")
	require.NoError(t, err)
	assert.Equal(t, Replace, p)

	_, err = ParsePolicy("merge")
	assert.Error(t, err)
}
