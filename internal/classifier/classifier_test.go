package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/xaenox/rateai/internal/models"
	"github.com/xaenox/rateai/internal/tags"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	content string
	err     error
	got     openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

func newTestGPT(f *fakeCompleter) *GPTClassifier {
	c := NewGPTClassifier("key", "gpt-test", 100, 0, 2, tags.NewVocabulary(nil), zap.NewNop())
	c.client = f
	return c
}

func midjourney() *models.Item {
	return &models.Item{
		ID:          2,
		Name:        "Midjourney",
		Price:       "$10/month",
		Description: "Image generation from text prompts #多模态",
		Tags:        []models.Tag{{Name: "多模态", Count: 1}},
	}
}

func TestSimpleClassifier_Suggest(t *testing.T) {
	c := NewSimpleClassifier(tags.NewVocabulary(nil), 5)

	got := c.Suggest(context.Background(), midjourney())
	assert.Equal(t, []string{"画图一流"}, got)

	kimi := &models.Item{Name: "Kimi", Price: "免费", Description: "长文本 reading for students, 中文"}
	assert.Equal(t, []string{"免费", "长文本", "中文友好", "最适合学生"}, c.Suggest(context.Background(), kimi))
}

func TestGPTClassifier_FiltersToVocabulary(t *testing.T) {
	f := &fakeCompleter{content: "```json\n{\"tags\": [\"画图一流\", \"fast\", \"多模态\", \"贵但好用\"], \"reason\": \"x\"}\n```"}
	c := newTestGPT(f)

	got := c.Suggest(context.Background(), midjourney())

	assert.Equal(t, []string{"画图一流", "贵但好用"}, got)
	assert.Equal(t, "gpt-test", f.got.Model)
	assert.Contains(t, f.got.Messages[0].Content, "Midjourney")
}

func TestGPTClassifier_FallsBack(t *testing.T) {
	for name, f := range map[string]*fakeCompleter{
		"api error": {err: errors.New("boom")},
		"bad json":  {content: "sure! here are tags"},
	} {
		t.Run(name, func(t *testing.T) {
			got := newTestGPT(f).Suggest(context.Background(), midjourney())
			assert.Equal(t, []string{"画图一流"}, got)
		})
	}
}
