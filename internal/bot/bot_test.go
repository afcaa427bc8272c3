package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/rateai/internal/api"
	"github.com/xaenox/rateai/internal/catalog"
	"github.com/xaenox/rateai/internal/comments"
	"github.com/xaenox/rateai/internal/models"
	"github.com/xaenox/rateai/internal/storage"
	"github.com/xaenox/rateai/internal/store"
	"github.com/xaenox/rateai/internal/validation"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func newTestBot(t *testing.T, handler http.HandlerFunc) (*Bot, *fakeSender) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cache := storage.NewMemoryStorage()

	sender := &fakeSender{}
	b := &Bot{
		sender: sender,
		logger: zap.NewNop(),
		newStore: func(scope string, nav store.Navigator) (*store.Store, error) {
			client, err := api.NewClient(api.Options{BaseURL: srv.URL}, zap.NewNop())
			if err != nil {
				return nil, err
			}
			return store.New(client, cache, store.Options{CacheKey: storage.Key("", scope), Navigator: nav}, zap.NewNop()), nil
		},
		sessions: map[int64]*chatSession{},
	}
	return b, sender
}

func command(chatID int64, text string) *tgbotapi.Message {
	cmd, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func catalogBackend(favoriteStatus int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/ais/":
			_, _ = w.Write([]byte(`[{"ai_id": 1, "name": "ChatGPT", "avg_score": 8.5, "rating_count": 12, "favorite_count": 1},
				{"ai_id": 2, "name": "Kimi", "avg_score": 8.1, "rating_count": 4, "price_text": "免费"}]`))
		case "/api/comments/":
			_, _ = w.Write([]byte(`[]`))
		case "/api/check-auth/":
			_, _ = w.Write([]byte(`{"authenticated": false}`))
		case "/api/favorites/":
			w.WriteHeader(favoriteStatus)
			_, _ = w.Write([]byte(`{"success": true, "is_favorite": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{}`))
		}
	}
}

func TestHandleMessage_FavoriteWithoutSessionPromptsLogin(t *testing.T) {
	b, sender := newTestBot(t, catalogBackend(http.StatusUnauthorized))

	b.handleMessage(command(5, "/fav kimi"))

	got := sender.texts()
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "/login")
	assert.Contains(t, got[0], "/ai/2")
}

func TestHandleMessage_Favorite(t *testing.T) {
	b, sender := newTestBot(t, catalogBackend(http.StatusOK))

	b.handleMessage(command(5, "/fav 2"))

	assert.Equal(t, []string{"⭐ Added Kimi to your favorites."}, sender.texts())
	s, err := b.session(context.Background(), 5)
	require.NoError(t, err)
	it, _ := s.Item(2)
	assert.Equal(t, 1, it.FavoriteCount)
}

func TestHandleMessage_SessionsArePerChat(t *testing.T) {
	b, _ := newTestBot(t, catalogBackend(http.StatusOK))

	b.handleMessage(command(5, "/list"))
	b.handleMessage(command(6, "/list"))
	b.handleMessage(command(5, "/rank"))

	assert.Len(t, b.sessions, 2)
	assert.NotSame(t, b.sessions[5].store, b.sessions[6].store)
}

func TestSession_SlowChatDoesNotBlockOthers(t *testing.T) {
	b, _ := newTestBot(t, catalogBackend(http.StatusOK))
	build := b.newStore
	started := make(chan struct{})
	release := make(chan struct{})
	b.newStore = func(scope string, nav store.Navigator) (*store.Store, error) {
		if scope == "5" {
			close(started)
			<-release
		}
		return build(scope, nav)
	}
	slow := make(chan struct{})
	go func() {
		defer close(slow)
		_, _ = b.session(context.Background(), 5)
	}()
	<-started

	done := make(chan error, 1)
	go func() {
		_, err := b.session(context.Background(), 6)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("chat 6 waited for chat 5 to start")
	}
	close(release)
	<-slow
}

func TestSession_FailedStartIsRetried(t *testing.T) {
	b, _ := newTestBot(t, catalogBackend(http.StatusOK))
	build := b.newStore
	calls := 0
	b.newStore = func(scope string, nav store.Navigator) (*store.Store, error) {
		calls++
		if calls == 1 {
			return nil, assert.AnError
		}
		return build(scope, nav)
	}

	_, err := b.session(context.Background(), 5)
	require.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, b.sessions)

	s, err := b.session(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, 2, calls)
}

func TestHandleMessage_TextSearches(t *testing.T) {
	b, sender := newTestBot(t, catalogBackend(http.StatusOK))

	b.handleMessage(&tgbotapi.Message{Text: "kim", Chat: &tgbotapi.Chat{ID: 9}})

	require.Len(t, sender.texts(), 1)
	assert.Equal(t, "AI tools (1):\n#2 Kimi ★8.1 (4 ratings)", sender.texts()[0])
}

func TestHandleMessage_RejectedTagShowsNotice(t *testing.T) {
	b, sender := newTestBot(t, catalogBackend(http.StatusOK))

	b.handleMessage(command(5, "/tag 1 fast"))

	got := sender.texts()
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "allowed vocabulary")
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `8\.2 \(11\) \#免费 a\_b`, escapeMarkdown("8.2 (11) #免费 a_b"))
	assert.Equal(t, `\\\!`, escapeMarkdown(`\!`))
}

func TestParseRatingArgs(t *testing.T) {
	form, err := parseRatingArgs([]string{"versatility=9", "image=7.5", "overall=8"})
	require.NoError(t, err)
	assert.Equal(t, validation.RatingForm{Versatility: 9, ImageGeneration: 7.5, Overall: 8}, form)

	for _, args := range [][]string{nil, {"versatility"}, {"speed=3"}, {"value=high"}} {
		_, err := parseRatingArgs(args)
		var verr *validation.Error
		assert.ErrorAs(t, err, &verr, "args %v", args)
	}
}

func TestParseReaction(t *testing.T) {
	for in, want := range map[string]models.ReactionType{
		"thumbUp": models.ThumbUp,
		"👎":       models.ThumbDown,
		"WOW":     models.Amazing,
		"bad":     models.Bad,
	} {
		got, ok := parseReaction(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := parseReaction("meh")
	assert.False(t, ok)
}

func TestFormatTree(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := comments.Load([]models.Comment{
		{ID: 1, ItemID: 1, Author: "bob", Content: "nice", CreatedAt: at},
		{ID: 2, ItemID: 1, ParentID: 1, Author: "amy", ReplyTo: "bob", Content: "agreed", CreatedAt: at},
	})

	want := "[1] bob · 2024-03-01\nnice\n    [2] amy → bob · 2024-03-01\n    agreed"
	assert.Equal(t, want, formatTree(a.Tree(1, comments.MaxDisplayDepth)))
}

func TestFormatItemDetail(t *testing.T) {
	it := &models.Item{
		ID:           2,
		Name:         "Kimi",
		Price:        "免费",
		AverageScore: 8.1,
		RatingCount:  4,
		Ratings:      models.Scores{models.Versatility: 8.2},
		Tags:         []models.Tag{{Name: "长文本", Count: 3}},
		Reactions:    models.ReactionCounts{models.ThumbUp: 2},
	}
	mine := &models.RatingSubmission{Scores: models.Scores{models.Versatility: 9}}

	got := formatItemDetail(it, detail{Favorite: true, MyRating: mine, MyReaction: models.ThumbUp, Notice: "tag is empty"})

	assert.Contains(t, got, "*Kimi* ⭐")
	assert.Contains(t, got, `*Score:* 8\.1 \(4 ratings\)`)
	assert.Contains(t, got, `Versatility: 8\.2 \(you: 9\)`)
	assert.Contains(t, got, `\#长文本×3`)
	assert.Contains(t, got, `\[👍 2\]`)
	assert.Contains(t, got, "⚠️ tag is empty")
}

func TestFormatRanking(t *testing.T) {
	items := []*models.Item{
		{ID: 2, Name: "Kimi", Price: "免费", AverageScore: 8.1, RatingCount: 4},
		{ID: 1, Name: "ChatGPT", Price: "$20", AverageScore: 8.5, RatingCount: 12},
	}
	got := formatRanking(catalog.RankValue, items, 1)
	assert.Equal(t, "🏆 Best value\n1. #2 Kimi ★8.1 (4 ratings) · free", got)
}

func TestLoginPrompt(t *testing.T) {
	assert.NotContains(t, loginPrompt("/"), "back at")
	assert.Contains(t, loginPrompt("/ai/3"), "back at /ai/3")
}
