package classifier

import (
	"context"
	"strings"

	"github.com/xaenox/rateai/internal/catalog"
	"github.com/xaenox/rateai/internal/models"
	"github.com/xaenox/rateai/internal/tags"
)

// Classifier proposes vocabulary tags for an item.
type Classifier interface {
	Suggest(ctx context.Context, item *models.Item) []string
}

type SimpleClassifier struct {
	vocab   *tags.Vocabulary
	maxTags int
}

func NewSimpleClassifier(vocab *tags.Vocabulary, maxTags int) *SimpleClassifier {
	return &SimpleClassifier{
		vocab:   vocab,
		maxTags: maxTags,
	}
}

// keyword rules per vocabulary tag, matched against name, description and price
var keywordRules = []struct {
	tag      string
	keywords []string
}{
	{"画图一流", []string{"image", "图像", "画", "draw", "art", "绘"}},
	{"做PPT很强", []string{"ppt", "slide", "presentation", "演示"}},
	{"长文本", []string{"long context", "长文", "document", "文档"}},
	{"多模态", []string{"multimodal", "多模态", "vision", "video", "audio"}},
	{"中文友好", []string{"中文", "chinese"}},
	{"最适合学生", []string{"student", "study", "学习", "homework", "作业"}},
	{"万能", []string{"general", "assistant", "通用", "万能"}},
}

// Suggest extracts hashtags from the description and applies keyword rules.
// Tags already on the item are skipped.
func (c *SimpleClassifier) Suggest(_ context.Context, item *models.Item) []string {
	var found []string

	for _, word := range strings.Fields(item.Description) {
		if strings.HasPrefix(word, "#") {
			found = append(found, strings.TrimPrefix(word, "#"))
		}
	}

	if catalog.IsFree(item.Price) {
		found = append(found, "免费")
	}

	text := strings.ToLower(item.Name + " " + item.Description)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				found = append(found, rule.tag)
				break
			}
		}
	}

	return limit(c.vocab.Filter(withoutExisting(found, item)), c.maxTags)
}

func withoutExisting(names []string, item *models.Item) []string {
	out := names[:0:0]
	for _, n := range names {
		if !item.HasTag(n) {
			out = append(out, n)
		}
	}
	return out
}

func limit(names []string, n int) []string {
	if n > 0 && len(names) > n {
		return names[:n]
	}
	return names
}
