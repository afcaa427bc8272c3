package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/rateai/internal/models"
	"go.uber.org/zap"
)

func sampleSession() *models.Session {
	act := models.NewActivity()
	act.Reactions[3] = models.Amazing
	act.Tags[3] = []string{"免费"}
	act.Ratings = append(act.Ratings, models.RatingRecord{
		ItemID:      3,
		SubmittedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Submission:  models.RatingSubmission{Scores: models.Scores{models.Versatility: 8}},
	})
	return &models.Session{
		User:        models.User{ID: 9, Username: "ann"},
		FavoriteIDs: []int{3, 5},
		Activity:    act,
	}
}

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()
	key := Key(DefaultKey, "42")

	_, err := s.LoadSession(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveSession(ctx, key, sampleSession()))

	got, err := s.LoadSession(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 9, got.User.ID)
	assert.Equal(t, []int{3, 5}, got.FavoriteIDs)
	assert.Equal(t, models.Amazing, got.Activity.Reactions[3])
	assert.Equal(t, []string{"免费"}, got.Activity.Tags[3])
	require.Len(t, got.Activity.Ratings, 1)
	assert.Equal(t, 8.0, got.Activity.Ratings[0].Submission.Scores[models.Versatility])
	assert.False(t, got.SavedAt.IsZero())

	// other scopes are isolated
	_, err = s.LoadSession(ctx, Key(DefaultKey, "43"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.ClearSession(ctx, key))
	_, err = s.LoadSession(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()
	exerciseStorage(t, s)
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, s.SaveSession(ctx, DefaultKey, sampleSession()))

	first, err := s.LoadSession(ctx, DefaultKey)
	require.NoError(t, err)
	first.FavoriteIDs = append(first.FavoriteIDs, 99)

	second, err := s.LoadSession(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5}, second.FavoriteIDs)
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStorage(RedisConfig{Addr: mr.Addr(), TTL: time.Hour}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	exerciseStorage(t, s)
}

func TestRedisStorage_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStorage(RedisConfig{Addr: mr.Addr(), TTL: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveSession(ctx, DefaultKey, sampleSession()))
	mr.FastForward(2 * time.Minute)

	_, err = s.LoadSession(ctx, DefaultKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedisStorage_RequiresAddr(t *testing.T) {
	_, err := NewRedisStorage(RedisConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "rateAI_user", Key("", ""))
	assert.Equal(t, "rateAI_user:7", Key("", "7"))
	assert.Equal(t, "custom:7", Key("custom", "7"))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "rateai", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=rateai sslmode=disable", c.DSN())
}
