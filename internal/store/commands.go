package store

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/xaenox/rateai/internal/aggregate"
	"github.com/xaenox/rateai/internal/api"
	"github.com/xaenox/rateai/internal/comments"
	"github.com/xaenox/rateai/internal/models"
	"github.com/xaenox/rateai/internal/reaction"
	"github.com/xaenox/rateai/internal/tags"
	"github.com/xaenox/rateai/internal/validation"
	"go.uber.org/zap"
)

// ToggleFavorite flips the favorite state of the item on the backend and
// adjusts the local favorite set and counter by one.
func (s *Store) ToggleFavorite(ctx context.Context, itemID int) (bool, error) {
	if _, ok := s.Item(itemID); !ok {
		return false, ErrItemNotFound
	}
	res, err := s.api.ToggleFavorite(ctx, itemID)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if res.IsFavorite {
		s.favorites[itemID] = struct{}{}
	} else {
		delete(s.favorites, itemID)
	}
	if it, ok := s.items[itemID]; ok {
		if res.IsFavorite {
			it.FavoriteCount++
		} else if it.FavoriteCount > 0 {
			it.FavoriteCount--
		}
	}
	s.mu.Unlock()

	s.persist(ctx)
	s.notify(Event{Kind: ItemChanged, ItemID: itemID})
	return res.IsFavorite, nil
}

// RatingOutcome reports what a rating submission did to the item.
type RatingOutcome struct {
	IsUpdate bool
	Message  string
	// Optimistic is the locally computed aggregate shown while the request ran.
	Optimistic aggregate.Aggregate
	// Refreshed is false when the catalog could not be refetched and Item
	// still carries the optimistic values.
	Refreshed bool
	Item      *models.Item
}

// SubmitRating validates the form, patches the item optimistically, submits
// the rating and then overwrites the patch with the refetched catalog. A failed
// submission restores the item as it was before the patch.
func (s *Store) SubmitRating(ctx context.Context, form validation.RatingForm) (*RatingOutcome, error) {
	if err := s.validate.Validate(form); err != nil {
		return nil, err
	}
	sub := submissionFromForm(form)
	if sub.IsEmpty() {
		return nil, validation.Invalid("scores", "rate at least one category")
	}
	itemID := form.ItemID

	s.mu.Lock()
	item, ok := s.items[itemID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrItemNotFound
	}
	snapshot := aggregate.FromItem(item)
	var previous *models.RatingSubmission
	if rec, _, found := s.activity.Rating(itemID); found {
		prev := rec.Submission
		previous = &prev
	}
	optimistic := aggregate.Apply(snapshot, previous, sub)
	optimistic.ApplyTo(item)
	s.mu.Unlock()
	s.notify(Event{Kind: ItemChanged, ItemID: itemID})

	res, err := s.api.SubmitRating(ctx, itemID, sub)
	if err != nil {
		s.mu.Lock()
		s.rollbackRating(item, snapshot, optimistic, previous, sub)
		s.mu.Unlock()
		s.notify(Event{Kind: ItemChanged, ItemID: itemID})
		s.logger.Info("Rating rolled back", zap.Int("ai_id", itemID), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.recordRating(itemID, res.Submission)
	s.mu.Unlock()
	s.persist(ctx)

	out := &RatingOutcome{
		IsUpdate:   res.IsUpdate || previous != nil,
		Message:    res.Message,
		Optimistic: optimistic,
	}
	if items, err := s.api.ListItems(ctx); err != nil {
		s.logger.Warn("Failed to refresh catalog after rating, keeping local values",
			zap.Int("ai_id", itemID),
			zap.Error(err))
	} else {
		s.mu.Lock()
		s.setItems(items)
		s.mu.Unlock()
		out.Refreshed = true
	}
	s.notify(Event{Kind: ItemChanged, ItemID: itemID})

	out.Item, _ = s.Item(itemID)
	return out, nil
}

// rollbackRating undoes the optimistic patch of a failed submission on item.
// Untouched since the patch, the item gets its snapshot back; with other
// submissions patched on top only this one is taken out. An item replaced by
// a refetch already shows server values and is left alone. Caller holds mu.
func (s *Store) rollbackRating(item *models.Item, snapshot, optimistic aggregate.Aggregate, previous *models.RatingSubmission, sub models.RatingSubmission) {
	if s.items[item.ID] != item {
		return
	}
	cur := aggregate.FromItem(item)
	if cur.Equal(optimistic) {
		snapshot.ApplyTo(item)
		return
	}
	aggregate.Revert(cur, previous, sub).ApplyTo(item)
}

// recordRating keeps one ledger entry per item, newest first. Caller holds mu.
func (s *Store) recordRating(itemID int, sub models.RatingSubmission) {
	if _, i, ok := s.activity.Rating(itemID); ok {
		s.activity.Ratings = append(s.activity.Ratings[:i], s.activity.Ratings[i+1:]...)
	}
	rec := models.RatingRecord{
		ItemID:      itemID,
		SubmittedAt: s.now(),
		Submission:  models.RatingSubmission{Scores: sub.Scores.Clone(), Overall: sub.Overall},
	}
	s.activity.Ratings = append([]models.RatingRecord{rec}, s.activity.Ratings...)
}

func submissionFromForm(f validation.RatingForm) models.RatingSubmission {
	sub := models.RatingSubmission{Scores: models.Scores{}, Overall: f.Overall}
	for c, v := range map[models.Category]float64{
		models.Versatility:      f.Versatility,
		models.ImageGeneration:  f.ImageGeneration,
		models.InformationQuery: f.InformationQuery,
		models.StudyAssistance:  f.StudyAssistance,
		models.ValueForMoney:    f.ValueForMoney,
	} {
		if v > 0 {
			sub.Scores[c] = v
		}
	}
	return sub
}

// LoadMyRating fetches the user's stored rating of the item into the ledger,
// so a rating form can be pre-filled. The server copy replaces a stale entry.
func (s *Store) LoadMyRating(ctx context.Context, itemID int) (*models.RatingSubmission, error) {
	sub, err := s.api.GetRating(ctx, itemID)
	if err != nil || sub == nil {
		return sub, err
	}
	s.mu.Lock()
	if _, i, ok := s.activity.Rating(itemID); ok {
		s.activity.Ratings[i].Submission = models.RatingSubmission{Scores: sub.Scores.Clone(), Overall: sub.Overall}
	} else {
		s.recordRating(itemID, *sub)
	}
	s.mu.Unlock()
	s.persist(ctx)
	return sub, nil
}

// AddTag contributes a tag to the item. Rejected names never reach the
// backend; they leave an expiring notice for the item instead.
func (s *Store) AddTag(ctx context.Context, itemID int, name string) ([]models.Tag, error) {
	s.mu.RLock()
	item, ok := s.items[itemID]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrItemNotFound
	}
	name, err := s.vocab.Validate(name, item.TagNames(), s.activity.Tags[itemID])
	s.mu.RUnlock()
	if err != nil {
		if !errors.Is(err, tags.ErrEmptyTag) {
			s.notices.PostError(noticeKey(itemID), err)
		}
		return nil, err
	}

	res, err := s.api.AddTag(ctx, itemID, name)
	if err != nil {
		if !api.IsAuth(err) {
			s.notices.Post(noticeKey(itemID), UserMessage(err), noticeTTL)
		}
		return nil, err
	}

	s.mu.Lock()
	var current []models.Tag
	if it, ok := s.items[itemID]; ok {
		if res.Tags != nil {
			it.Tags = res.Tags
		} else if !it.HasTag(name) {
			it.Tags = append(it.Tags, models.Tag{Name: name, Count: 1})
		}
		current = append([]models.Tag(nil), it.Tags...)
	}
	s.activity.Tags[itemID] = append(s.activity.Tags[itemID], name)
	s.mu.Unlock()

	s.notices.Clear(noticeKey(itemID))
	s.persist(ctx)
	s.notify(Event{Kind: ItemChanged, ItemID: itemID})
	return current, nil
}

// SuggestTags proposes vocabulary tags for the item that neither the item
// nor the user's own contributions carry yet.
func (s *Store) SuggestTags(ctx context.Context, itemID int) ([]string, error) {
	item, ok := s.Item(itemID)
	if !ok {
		return nil, ErrItemNotFound
	}
	s.mu.RLock()
	mine := append([]string(nil), s.activity.Tags[itemID]...)
	s.mu.RUnlock()

	var out []string
	for _, name := range s.classifier.Suggest(ctx, item) {
		if !contains(mine, name) {
			out = append(out, name)
		}
	}
	return out, nil
}

// AddComment posts a top-level comment on the item.
func (s *Store) AddComment(ctx context.Context, itemID int, content string, images []string) (*models.Comment, error) {
	if _, ok := s.Item(itemID); !ok {
		return nil, ErrItemNotFound
	}
	return s.postComment(ctx, api.NewComment{ItemID: itemID, Content: content, Images: images})
}

// AddReply answers a comment. The reply belongs to the parent's item and is
// addressed to the parent's author.
func (s *Store) AddReply(ctx context.Context, parentID int, content string, images []string) (*models.Comment, error) {
	parent, ok := s.Comment(parentID)
	if !ok {
		return nil, ErrCommentNotFound
	}
	return s.postComment(ctx, api.NewComment{
		ItemID:   parent.ItemID,
		ParentID: parent.ID,
		ReplyTo:  parent.Author,
		Content:  content,
		Images:   images,
	})
}

func (s *Store) postComment(ctx context.Context, in api.NewComment) (*models.Comment, error) {
	form := validation.CommentForm{ItemID: in.ItemID, Content: in.Content, Images: in.Images}
	form.Normalize()
	if err := s.validate.Validate(form); err != nil {
		return nil, err
	}
	in.Content = comments.Sanitize(form.Content)
	if in.Content == "" {
		return nil, validation.Invalid("content", "is required")
	}

	cm, err := s.api.CreateComment(ctx, in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.arena.Add(*cm)
	s.activity.Comments = append([]models.CommentRecord{{
		ItemID:    cm.ItemID,
		CommentID: cm.ID,
		Content:   cm.Content,
	}}, s.activity.Comments...)
	s.mu.Unlock()

	s.persist(ctx)
	s.notify(Event{Kind: CommentsChanged, ItemID: cm.ItemID})
	return cm, nil
}

// MyComments fetches the user's own comments and rebuilds the comment part
// of the ledger from them.
func (s *Store) MyComments(ctx context.Context) ([]models.Comment, error) {
	list, err := s.api.MyComments(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]models.CommentRecord, 0, len(list))
	for _, c := range list {
		records = append(records, models.CommentRecord{ItemID: c.ItemID, CommentID: c.ID, Content: c.Content})
	}
	s.mu.Lock()
	if s.user != nil {
		s.activity.Comments = records
	}
	s.mu.Unlock()
	s.persist(ctx)
	return list, nil
}

// ReactOutcome is the reaction state after a click.
type ReactOutcome struct {
	Decision reaction.Decision
	Counts   models.ReactionCounts
}

// React applies a click on reaction t. A click that the policy rejects
// returns reaction.ErrReactionChangeBlocked without a request.
func (s *Store) React(ctx context.Context, itemID int, t models.ReactionType) (*ReactOutcome, error) {
	s.mu.RLock()
	_, ok := s.items[itemID]
	current := s.activity.Reactions[itemID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrItemNotFound
	}
	decision, err := reaction.Transition(current, t, s.policy)
	if err != nil {
		return nil, err
	}

	res, err := s.api.React(ctx, itemID, t)
	if err != nil {
		return nil, err
	}

	out := &ReactOutcome{Decision: decision}
	s.mu.Lock()
	if it, ok := s.items[itemID]; ok {
		if res.Counts != nil {
			it.Reactions = res.Counts
		} else {
			it.Reactions = decision.ApplyCounts(it.Reactions)
		}
		out.Counts = it.Reactions.Clone()
	}
	active := decision.Next
	if res.Echoed {
		active = res.Active
	}
	if active == "" {
		delete(s.activity.Reactions, itemID)
	} else {
		s.activity.Reactions[itemID] = active
	}
	s.mu.Unlock()

	s.logger.Debug("Reaction applied",
		zap.Int("ai_id", itemID),
		zap.Stringer("action", decision.Action),
		zap.String("reaction", string(t)))
	s.persist(ctx)
	s.notify(Event{Kind: ItemChanged, ItemID: itemID})
	return out, nil
}

// LoadMyReaction syncs the ledger with the user's reaction stored on the backend.
func (s *Store) LoadMyReaction(ctx context.Context, itemID int) (models.ReactionType, error) {
	t, err := s.api.GetReaction(ctx, itemID)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	if t == "" {
		delete(s.activity.Reactions, itemID)
	} else {
		s.activity.Reactions[itemID] = t
	}
	s.mu.Unlock()
	return t, nil
}

func noticeKey(itemID int) string {
	return "tag:" + strconv.Itoa(itemID)
}

func matchesRef(it *models.Item, ref string) bool {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		return it.ID == id
	}
	return strings.EqualFold(it.Name, ref)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
