package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xaenox/rateai/internal/catalog"
	"github.com/xaenox/rateai/internal/comments"
	"github.com/xaenox/rateai/internal/models"
	"github.com/xaenox/rateai/internal/validation"
)

const welcomeText = `Welcome to RateAI! 🤖
Browse and rate AI tools, leave comments and tags, and see how others rate them.

Send me a name to search the catalog, or use /help to see all available commands.`

const helpText = `Available commands:
/list [query] - List AI tools
/show <ai> - Show an AI tool
/comments <ai> - Show its comments
/rank [overall|students|value|image] - Show a ranking
/rate <ai> versatility=9 image=7 overall=8 - Rate an AI tool
/fav <ai> - Add or remove a favorite
/favorites - Show your favorites
/react <ai> <thumbUp|thumbDown|amazing|bad> - React to an AI tool
/tag <ai> <tag> - Add a tag
/suggest <ai> - Suggest tags
/comment <ai> <text> - Comment on an AI tool
/reply <comment id> <text> - Reply to a comment
/register <username> <email> <password> - Create an account
/login <username> <password> - Log in
/logout - Log out
/me - Show your profile and activity
/mycomments - Show your comments
/refresh - Reload the catalog

<ai> is the id or the name of the tool.`

var categoryLabels = map[models.Category]string{
	models.Versatility:      "Versatility",
	models.ImageGeneration:  "Image generation",
	models.InformationQuery: "Information query",
	models.StudyAssistance:  "Study assistance",
	models.ValueForMoney:    "Value for money",
}

var reactionEmoji = map[models.ReactionType]string{
	models.ThumbUp:   "👍",
	models.ThumbDown: "👎",
	models.Amazing:   "🤩",
	models.Bad:       "💩",
}

var rankingTitles = map[catalog.Ranking]string{
	catalog.RankOverall:  "Top rated",
	catalog.RankStudents: "Best for students",
	catalog.RankValue:    "Best value",
	catalog.RankImage:    "Best image generation",
}

// escapeMarkdown escapes the MarkdownV2 special characters, backslash first.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func loginPrompt(origin string) string {
	msg := "🔒 Please log in to continue: /login <username> <password>"
	if origin != "" && origin != "/" {
		msg += "\nYou will be back at " + origin + " afterwards."
	}
	return msg
}

func itemPath(id int) string {
	return "/ai/" + strconv.Itoa(id)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTags(tags []models.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = "#" + strings.ReplaceAll(t.Name, " ", "_")
		if t.Count > 1 {
			parts[i] += fmt.Sprintf("×%d", t.Count)
		}
	}
	return strings.Join(parts, " ")
}

func formatReactions(counts models.ReactionCounts, mine models.ReactionType) string {
	parts := make([]string, 0, len(models.ReactionTypes))
	for _, t := range models.ReactionTypes {
		p := fmt.Sprintf("%s %d", reactionEmoji[t], counts[t])
		if t == mine {
			p = "[" + p + "]"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "  ")
}

func formatItemLine(it *models.Item) string {
	return fmt.Sprintf("#%d %s ★%s (%d ratings)", it.ID, it.Name, formatScore(it.AverageScore), it.RatingCount)
}

func formatList(title string, items []*models.Item) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	for _, it := range items {
		sb.WriteString(formatItemLine(it))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatRanking(kind catalog.Ranking, items []*models.Item, limit int) string {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	var sb strings.Builder
	sb.WriteString("🏆 " + rankingTitles[kind] + "\n")
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. %s", i+1, formatItemLine(it))
		if kind == catalog.RankValue && catalog.IsFree(it.Price) {
			sb.WriteString(" · free")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// detail carries the per-user state shown next to an item.
type detail struct {
	Favorite   bool
	MyRating   *models.RatingSubmission
	MyReaction models.ReactionType
	Comments   int
	Notice     string
}

// formatItemDetail renders an item as MarkdownV2.
func formatItemDetail(it *models.Item, d detail) string {
	var sb strings.Builder
	title := "*" + escapeMarkdown(it.Name) + "*"
	if d.Favorite {
		title += " ⭐"
	}
	sb.WriteString(title + "\n")
	if it.Developer != "" {
		sb.WriteString("_" + escapeMarkdown(it.Developer) + "_\n")
	}
	if it.Description != "" {
		sb.WriteString(escapeMarkdown(it.Description) + "\n")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "*Score:* %s \\(%d ratings\\)\n", escapeMarkdown(formatScore(it.AverageScore)), it.RatingCount)
	if it.Overall > 0 {
		fmt.Fprintf(&sb, "*Overall:* %s\n", escapeMarkdown(formatScore(it.Overall)))
	}
	for _, c := range models.Categories {
		line := fmt.Sprintf("%s: %s", categoryLabels[c], formatScore(it.Ratings[c]))
		if d.MyRating != nil && d.MyRating.Scores[c] > 0 {
			line += fmt.Sprintf(" (you: %s)", formatScore(d.MyRating.Scores[c]))
		}
		sb.WriteString(escapeMarkdown(line) + "\n")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "*Price:* %s\n", escapeMarkdown(it.Price))
	if len(it.Tags) > 0 {
		fmt.Fprintf(&sb, "*Tags:* %s\n", escapeMarkdown(formatTags(it.Tags)))
	}
	if d.Notice != "" {
		sb.WriteString(escapeMarkdown("⚠️ "+d.Notice) + "\n")
	}
	sb.WriteString(escapeMarkdown(formatReactions(it.Reactions, d.MyReaction)) + "\n")
	fmt.Fprintf(&sb, "❤️ %d · 💬 %d\n", it.FavoriteCount, d.Comments)
	if len(it.Trend) > 0 {
		points := make([]string, len(it.Trend))
		for i, p := range it.Trend {
			points[i] = p.Label() + "月 " + formatScore(p.Score)
		}
		sb.WriteString(escapeMarkdown("Trend: "+strings.Join(points, " → ")) + "\n")
	}
	if it.Link != "" {
		sb.WriteString(escapeMarkdown(it.Link) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatTree renders a comment tree as indented plain text.
func formatTree(nodes []*comments.Node) string {
	var sb strings.Builder
	comments.Walk(nodes, func(n *comments.Node) {
		indent := strings.Repeat("    ", n.Depth)
		c := n.Comment
		head := fmt.Sprintf("%s[%d] %s", indent, c.ID, c.Author)
		if c.ReplyTo != "" && n.Depth > 0 {
			head += " → " + c.ReplyTo
		}
		if d := c.Date(); d != "" {
			head += " · " + d
		}
		sb.WriteString(head + "\n")
		sb.WriteString(indent + c.Content + "\n")
		if len(c.Images) > 0 {
			fmt.Fprintf(&sb, "%s🖼 %d image(s)\n", indent, len(c.Images))
		}
		if n.Hidden > 0 {
			fmt.Fprintf(&sb, "%s    … %d more replies\n", indent, n.Hidden)
		}
	})
	return strings.TrimRight(sb.String(), "\n")
}

// parseRatingArgs reads category=score pairs, e.g. "versatility=9 overall=8".
func parseRatingArgs(fields []string) (validation.RatingForm, error) {
	var form validation.RatingForm
	if len(fields) == 0 {
		return form, validation.Invalid("scores", "use category=score, e.g. versatility=9 overall=8")
	}
	for _, f := range fields {
		key, raw, ok := strings.Cut(f, "=")
		if !ok {
			return form, validation.Invalid(f, "use category=score")
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return form, validation.Invalid(key, "must be a number")
		}
		if k := strings.ToLower(key); k == "overall" || k == "o" {
			form.Overall = v
			continue
		}
		c, ok := models.ParseCategory(key)
		if !ok {
			return form, validation.Invalid(key, "is not a rating category")
		}
		switch c {
		case models.Versatility:
			form.Versatility = v
		case models.ImageGeneration:
			form.ImageGeneration = v
		case models.InformationQuery:
			form.InformationQuery = v
		case models.StudyAssistance:
			form.StudyAssistance = v
		case models.ValueForMoney:
			form.ValueForMoney = v
		}
	}
	return form, nil
}

func parseReaction(s string) (models.ReactionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "thumbup", "up", "like", "👍":
		return models.ThumbUp, true
	case "thumbdown", "down", "dislike", "👎":
		return models.ThumbDown, true
	case "amazing", "wow", "🤩":
		return models.Amazing, true
	case "bad", "💩":
		return models.Bad, true
	}
	return "", false
}

// splitFirst splits off the first word of the command arguments.
func splitFirst(args string) (string, string) {
	args = strings.TrimSpace(args)
	first, rest, _ := strings.Cut(args, " ")
	return first, strings.TrimSpace(rest)
}
