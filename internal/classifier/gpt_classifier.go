package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/xaenox/rateai/internal/models"
	"github.com/xaenox/rateai/internal/tags"
	"go.uber.org/zap"
)

type GPTResponse struct {
	Tags   []string `json:"tags"`
	Reason string   `json:"reason"`
}

// chatCompleter is the part of the OpenAI client the classifier uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type GPTClassifier struct {
	client      chatCompleter
	model       string
	maxTokens   int
	temperature float64
	maxTags     int
	vocab       *tags.Vocabulary
	fallback    *SimpleClassifier
	logger      *zap.Logger
}

func NewGPTClassifier(apiKey string, model string, maxTokens int, temperature float64, maxTags int, vocab *tags.Vocabulary, logger *zap.Logger) *GPTClassifier {
	return &GPTClassifier{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		maxTags:     maxTags,
		vocab:       vocab,
		fallback:    NewSimpleClassifier(vocab, maxTags),
		logger:      logger,
	}
}

func (c *GPTClassifier) prompt(item *models.Item) string {
	return fmt.Sprintf(`You label AI products for a rating site.
Pick at most %d tags for the product below. Only use tags from this list: %s.
Do not repeat tags the product already has: %s.

Return the response as a JSON object with this structure:
{
    "tags": ["tag1", "tag2"],
    "reason": "one short sentence"
}

Product: %s
Developer: %s
Price: %s
Description: %s`,
		c.maxTags,
		strings.Join(c.vocab.Names(), ", "),
		strings.Join(item.TagNames(), ", "),
		item.Name, item.Developer, item.Price, item.Description)
}

// Suggest asks the model for tags and keeps only vocabulary entries the item
// does not have yet. Any failure falls back to the keyword classifier.
func (c *GPTClassifier) Suggest(ctx context.Context, item *models.Item) []string {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: c.prompt(item),
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
		},
	)
	if err == nil && len(resp.Choices) == 0 {
		err = errors.New("empty completion")
	}
	if err != nil {
		c.logger.Error("Failed to get GPT response", zap.Error(err), zap.Int("ai_id", item.ID))
		return c.fallback.Suggest(ctx, item)
	}

	var gptResponse GPTResponse
	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	response = strings.TrimSuffix(strings.TrimPrefix(response, "```json"), "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &gptResponse); err != nil {
		c.logger.Error("Failed to parse GPT response",
			zap.Error(err),
			zap.String("response", response))
		return c.fallback.Suggest(ctx, item)
	}

	suggested := limit(c.vocab.Filter(withoutExisting(gptResponse.Tags, item)), c.maxTags)
	c.logger.Debug("GPT tag suggestion",
		zap.Int("ai_id", item.ID),
		zap.Strings("tags", suggested),
		zap.String("reason", gptResponse.Reason))
	return suggested
}
