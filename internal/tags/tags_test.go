package tags

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	v := NewVocabulary(nil)

	tests := []struct {
		name     string
		tag      string
		itemTags []string
		userTags []string
		want     string
		wantErr  error
	}{
		{name: "allowed", tag: " 免费 ", want: "免费"},
		{name: "empty", tag: "   ", wantErr: ErrEmptyTag},
		{name: "outside vocabulary", tag: "fast", wantErr: ErrTagNotAllowed},
		{name: "already on item", tag: "万能", itemTags: []string{"万能"}, wantErr: ErrTagExists},
		{name: "already added by user", tag: "长文本", userTags: []string{"长文本"}, wantErr: ErrTagAlreadyAdded},
		{name: "case sensitive", tag: "做ppt很强", wantErr: ErrTagNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.tag, tt.itemTags, tt.userTags)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVocabulary_SuggestAndFilter(t *testing.T) {
	v := NewVocabulary([]string{"a", "b", "c", "b"})
	assert.Equal(t, []string{"a", "b", "c"}, v.Names())
	assert.Equal(t, []string{"a", "c"}, v.Suggest([]string{"b"}))
	assert.Equal(t, []string{"c", "a"}, v.Filter([]string{"c", "x", "a", "c"}))
}

func TestNotices_Expire(t *testing.T) {
	n := NewNotices()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	n.PostError("1", ErrTagExists)
	n.PostError("2", ErrTagNotAllowed)

	msg, ok := n.Get("1")
	require.True(t, ok)
	assert.Equal(t, ErrTagExists.Error(), msg)

	now = now.Add(2500 * time.Millisecond)
	_, ok = n.Get("1")
	assert.False(t, ok, "duplicate notice lasts two seconds")
	_, ok = n.Get("2")
	assert.True(t, ok, "vocabulary notice lasts three seconds")

	now = now.Add(time.Second)
	_, ok = n.Get("2")
	assert.False(t, ok)
}

func TestNotices_Clear(t *testing.T) {
	n := NewNotices()
	n.Post("k", "hello", time.Minute)
	n.Clear("k")
	_, ok := n.Get("k")
	assert.False(t, ok)
}
