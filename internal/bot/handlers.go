package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xaenox/rateai/internal/api"
	"github.com/xaenox/rateai/internal/catalog"
	"github.com/xaenox/rateai/internal/comments"
	"github.com/xaenox/rateai/internal/models"
	"github.com/xaenox/rateai/internal/reaction"
	"github.com/xaenox/rateai/internal/store"
	"github.com/xaenox/rateai/internal/validation"
	"go.uber.org/zap"
)

const (
	maxListed = 20
	maxRanked = 10
)

// lookup resolves the <ai> argument and reports unknown ones to the chat.
func (b *Bot) lookup(s *store.Store, chatID int64, ref string) (*models.Item, bool) {
	if ref == "" {
		b.sendErrorMessage(chatID, "Please name an AI tool (id or name).")
		return nil, false
	}
	it, ok := s.FindItem(ref)
	if !ok {
		b.sendErrorMessage(chatID, fmt.Sprintf("No AI tool %q. Use /list to see the catalog.", ref))
		return nil, false
	}
	return it, true
}

func (b *Bot) handleList(_ context.Context, s *store.Store, chatID int64, query string) {
	items := s.Items(catalog.Filter{Query: query})
	if len(items) == 0 {
		b.sendMessage(chatID, "No AI tools found.")
		return
	}
	title := fmt.Sprintf("AI tools (%d):", len(items))
	if len(items) > maxListed {
		items = items[:maxListed]
	}
	b.sendMessage(chatID, formatList(title, items))
}

func (b *Bot) handleShow(ctx context.Context, s *store.Store, chatID int64, args string) {
	it, ok := b.lookup(s, chatID, strings.TrimSpace(args))
	if !ok {
		return
	}
	ctx = api.WithOrigin(ctx, itemPath(it.ID))

	d := detail{
		Favorite: s.IsFavorite(it.ID),
		Comments: s.CommentCount(it.ID),
	}
	if s.LoggedIn() {
		if _, err := s.LoadMyRating(ctx, it.ID); err != nil {
			b.logger.Warn("Failed to load own rating", zap.Error(err), zap.Int("ai_id", it.ID))
		}
		if _, err := s.LoadMyReaction(ctx, it.ID); err != nil {
			b.logger.Warn("Failed to load own reaction", zap.Error(err), zap.Int("ai_id", it.ID))
		}
	}
	if r, ok := s.MyRating(it.ID); ok {
		d.MyRating = &r
	}
	d.MyReaction = s.MyReaction(it.ID)
	d.Notice, _ = s.Notice(it.ID)

	b.sendMarkdown(chatID, formatItemDetail(it, d))
}

func (b *Bot) handleComments(_ context.Context, s *store.Store, chatID int64, args string) {
	it, ok := b.lookup(s, chatID, strings.TrimSpace(args))
	if !ok {
		return
	}
	tree := s.CommentTree(it.ID)
	if len(tree) == 0 {
		b.sendMessage(chatID, "No comments yet. Be the first: /comment "+strconv.Itoa(it.ID)+" <text>")
		return
	}
	b.sendMessage(chatID, "💬 "+it.Name+"\n\n"+formatTree(tree))
}

func (b *Bot) handleRank(_ context.Context, s *store.Store, chatID int64, args string) {
	kind := catalog.RankOverall
	if a := strings.TrimSpace(args); a != "" {
		k, err := catalog.ParseRanking(a)
		if err != nil {
			b.sendErrorMessage(chatID, err.Error())
			return
		}
		kind = k
	}
	items := s.Rank(kind)
	if len(items) == 0 {
		b.sendMessage(chatID, "The catalog is empty.")
		return
	}
	b.sendMessage(chatID, formatRanking(kind, items, maxRanked))
}

func (b *Bot) handleRate(ctx context.Context, s *store.Store, chatID int64, args string) {
	ref, rest := splitFirst(args)
	it, ok := b.lookup(s, chatID, ref)
	if !ok {
		return
	}
	form, err := parseRatingArgs(strings.Fields(rest))
	if err != nil {
		b.fail(chatID, err)
		return
	}
	form.ItemID = it.ID

	out, err := s.SubmitRating(api.WithOrigin(ctx, itemPath(it.ID)), form)
	if err != nil {
		b.fail(chatID, err)
		return
	}

	verb := "saved"
	if out.IsUpdate {
		verb = "updated"
	}
	score, count := out.Optimistic.AverageScore, out.Optimistic.RatingCount
	if out.Item != nil {
		score, count = out.Item.AverageScore, out.Item.RatingCount
	}
	text := fmt.Sprintf("✅ Rating %s for %s.\nScore: %s (%d ratings)",
		verb, it.Name, formatScore(score), count)
	if !out.Refreshed {
		text += "\nThe server numbers could not be loaded; showing a local estimate."
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) handleFavorite(ctx context.Context, s *store.Store, chatID int64, args string) {
	it, ok := b.lookup(s, chatID, strings.TrimSpace(args))
	if !ok {
		return
	}
	fav, err := s.ToggleFavorite(api.WithOrigin(ctx, itemPath(it.ID)), it.ID)
	if err != nil {
		b.fail(chatID, err)
		return
	}
	if fav {
		b.sendMessage(chatID, "⭐ Added "+it.Name+" to your favorites.")
	} else {
		b.sendMessage(chatID, "Removed "+it.Name+" from your favorites.")
	}
}

func (b *Bot) handleFavorites(_ context.Context, s *store.Store, chatID int64) {
	if !s.LoggedIn() {
		b.sendMessage(chatID, loginPrompt("/favorites"))
		return
	}
	items := s.Favorites()
	if len(items) == 0 {
		b.sendMessage(chatID, "You don't have any favorites yet.")
		return
	}
	b.sendMessage(chatID, formatList("⭐ Your favorites:", items))
}

func (b *Bot) handleReact(ctx context.Context, s *store.Store, chatID int64, args string) {
	ref, rest := splitFirst(args)
	it, ok := b.lookup(s, chatID, ref)
	if !ok {
		return
	}
	t, ok := parseReaction(rest)
	if !ok {
		b.sendErrorMessage(chatID, "Choose one of: thumbUp, thumbDown, amazing, bad.")
		return
	}
	out, err := s.React(api.WithOrigin(ctx, itemPath(it.ID)), it.ID, t)
	if err != nil {
		b.fail(chatID, err)
		return
	}

	var text string
	switch out.Decision.Action {
	case reaction.Remove:
		text = "Reaction removed."
	case reaction.Swap:
		text = "Reaction changed to " + reactionEmoji[out.Decision.Next] + "."
	default:
		text = "Reacted with " + reactionEmoji[out.Decision.Next] + "."
	}
	b.sendMessage(chatID, text+"\n"+formatReactions(out.Counts, out.Decision.Next))
}

func (b *Bot) handleTag(ctx context.Context, s *store.Store, chatID int64, args string) {
	ref, name := splitFirst(args)
	it, ok := b.lookup(s, chatID, ref)
	if !ok {
		return
	}
	current, err := s.AddTag(api.WithOrigin(ctx, itemPath(it.ID)), it.ID, name)
	if err != nil {
		if notice, ok := s.Notice(it.ID); ok {
			b.sendErrorMessage(chatID, notice)
			return
		}
		b.fail(chatID, err)
		return
	}
	b.sendMessage(chatID, "🏷 Tag added. Tags: "+formatTags(current))
}

func (b *Bot) handleSuggest(ctx context.Context, s *store.Store, chatID int64, args string) {
	it, ok := b.lookup(s, chatID, strings.TrimSpace(args))
	if !ok {
		return
	}
	names, err := s.SuggestTags(ctx, it.ID)
	if err != nil {
		b.fail(chatID, err)
		return
	}
	if len(names) == 0 {
		free := s.AvailableTags(it.ID)
		if len(free) == 0 {
			b.sendMessage(chatID, "No tag suggestions for "+it.Name+".")
			return
		}
		b.sendMessage(chatID, "No tag suggestions for "+it.Name+". Still available: "+strings.Join(free, ", "))
		return
	}
	lines := make([]string, len(names))
	for i, n := range names {
		lines[i] = fmt.Sprintf("/tag %d %s", it.ID, n)
	}
	b.sendMessage(chatID, "Suggested tags for "+it.Name+":\n"+strings.Join(lines, "\n"))
}

func (b *Bot) handleComment(ctx context.Context, s *store.Store, chatID int64, args string) {
	ref, text := splitFirst(args)
	it, ok := b.lookup(s, chatID, ref)
	if !ok {
		return
	}
	cm, err := s.AddComment(api.WithOrigin(ctx, itemPath(it.ID)), it.ID, text, nil)
	if err != nil {
		b.fail(chatID, err)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("💬 Comment #%d posted on %s.", cm.ID, it.Name))
}

func (b *Bot) handleReply(ctx context.Context, s *store.Store, chatID int64, args string) {
	ref, text := splitFirst(args)
	id, err := strconv.Atoi(ref)
	if err != nil {
		b.sendErrorMessage(chatID, "Usage: /reply <comment id> <text>")
		return
	}
	parent, ok := s.Comment(id)
	if ok {
		ctx = api.WithOrigin(ctx, itemPath(parent.ItemID))
	}
	cm, err := s.AddReply(ctx, id, text, nil)
	if err != nil {
		b.fail(chatID, err)
		return
	}
	msg := fmt.Sprintf("↩️ Reply #%d to %s posted.", cm.ID, cm.ReplyTo)
	if s.CommentDepth(cm.ID) > comments.MaxDisplayDepth {
		msg += " It is nested too deep to show in the thread view."
	}
	b.sendMessage(chatID, msg)
}

func (b *Bot) handleRegister(ctx context.Context, s *store.Store, chatID int64, args string) {
	f := strings.Fields(args)
	if len(f) < 3 {
		b.sendErrorMessage(chatID, "Usage: /register <username> <email> <password>")
		return
	}
	form := validation.RegisterForm{Username: f[0], Email: f[1], Password: f[2], ConfirmPassword: f[2]}
	if len(f) > 3 {
		form.ConfirmPassword = f[3]
	}
	res, err := s.Register(ctx, form)
	if err != nil {
		b.fail(chatID, err)
		return
	}
	if res.RequiresApproval {
		b.sendMessage(chatID, "✅ Registered. An administrator has to approve your account before you can log in.")
		return
	}
	b.sendMessage(chatID, "✅ Registered and logged in as "+res.User.Username+".")
}

func (b *Bot) handleLogin(ctx context.Context, s *store.Store, chatID int64, args string) {
	f := strings.Fields(args)
	if len(f) != 2 {
		b.sendErrorMessage(chatID, "Usage: /login <username> <password>")
		return
	}
	u, err := s.Login(ctx, validation.LoginForm{Username: f[0], Password: f[1]})
	if err != nil {
		b.fail(chatID, err)
		return
	}
	b.sendMessage(chatID, "👋 Welcome back, "+u.Username+"!")
}

func (b *Bot) handleMe(_ context.Context, s *store.Store, chatID int64) {
	u, ok := s.User()
	if !ok {
		b.sendMessage(chatID, loginPrompt("/profile"))
		return
	}
	a := s.Activity()
	text := fmt.Sprintf("👤 %s\n%s\nRatings: %d · Comments: %d · Reactions: %d · Favorites: %d",
		u.Username, u.Email, len(a.Ratings), len(a.Comments), len(a.Reactions), len(s.Favorites()))
	if len(a.Ratings) > 0 {
		text += "\n\nRecent ratings:"
		for i, r := range a.Ratings {
			if i == 5 {
				break
			}
			name := "#" + strconv.Itoa(r.ItemID)
			if it, ok := s.Item(r.ItemID); ok {
				name = it.Name
			}
			text += fmt.Sprintf("\n%s · %s", name, r.SubmittedAt.Format("2006-01-02"))
		}
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) handleMyComments(ctx context.Context, s *store.Store, chatID int64) {
	list, err := s.MyComments(api.WithOrigin(ctx, "/profile"))
	if err != nil {
		b.fail(chatID, err)
		return
	}
	if len(list) == 0 {
		b.sendMessage(chatID, "You haven't written any comments yet.")
		return
	}
	var sb strings.Builder
	sb.WriteString("💬 Your comments:\n")
	for _, c := range list {
		name := "#" + strconv.Itoa(c.ItemID)
		if it, ok := s.Item(c.ItemID); ok {
			name = it.Name
		}
		fmt.Fprintf(&sb, "\n[%d] %s · %s\n%s\n", c.ID, name, c.Date(), c.Content)
	}
	b.sendMessage(chatID, strings.TrimRight(sb.String(), "\n"))
}
