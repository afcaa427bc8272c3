// Package store is the state container of one client session. It holds the
// catalog, the comment arena, the current user with favorites and activity
// ledger, and exposes the commands that mutate them.
//
// Network calls run outside the lock. Patches address items by id and are
// dropped when the item is no longer in the catalog.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xaenox/rateai/internal/api"
	"github.com/xaenox/rateai/internal/catalog"
	"github.com/xaenox/rateai/internal/classifier"
	"github.com/xaenox/rateai/internal/comments"
	"github.com/xaenox/rateai/internal/models"
	"github.com/xaenox/rateai/internal/reaction"
	"github.com/xaenox/rateai/internal/storage"
	"github.com/xaenox/rateai/internal/tags"
	"github.com/xaenox/rateai/internal/validation"
	"go.uber.org/zap"
)

// Navigator sends the user to another view. Front-ends implement it; the
// store uses it for the login redirect after a session expires.
type Navigator interface {
	Redirect(ctx context.Context, location string)
}

type NavigatorFunc func(ctx context.Context, location string)

func (f NavigatorFunc) Redirect(ctx context.Context, location string) { f(ctx, location) }

type EventKind int

const (
	CatalogLoaded EventKind = iota + 1
	ItemChanged
	CommentsChanged
	SessionChanged
)

// Event tells observers what changed. ItemID is set for item and comment events.
type Event struct {
	Kind   EventKind
	ItemID int
}

type Options struct {
	CacheKey       string
	Vocabulary     *tags.Vocabulary
	ReactionPolicy reaction.Policy
	Navigator      Navigator
	Classifier     classifier.Classifier
}

type Store struct {
	api        *api.Client
	cache      storage.Storage
	cacheKey   string
	vocab      *tags.Vocabulary
	notices    *tags.Notices
	policy     reaction.Policy
	nav        Navigator
	classifier classifier.Classifier
	validate   *validation.Validator
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.RWMutex
	items     map[int]*models.Item
	order     []int
	arena     *comments.Arena
	user      *models.User
	favorites map[int]struct{}
	activity  models.Activity

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

// New creates a store over the given client and cache and installs its
// handler for expired sessions on the client.
func New(client *api.Client, cache storage.Storage, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CacheKey == "" {
		opts.CacheKey = storage.DefaultKey
	}
	if opts.Vocabulary == nil {
		opts.Vocabulary = tags.NewVocabulary(nil)
	}
	if opts.ReactionPolicy == "" {
		opts.ReactionPolicy = reaction.Block
	}
	if opts.Classifier == nil {
		opts.Classifier = classifier.NewSimpleClassifier(opts.Vocabulary, 3)
	}
	s := &Store{
		api:        client,
		cache:      cache,
		cacheKey:   opts.CacheKey,
		vocab:      opts.Vocabulary,
		notices:    tags.NewNotices(),
		policy:     opts.ReactionPolicy,
		nav:        opts.Navigator,
		classifier: opts.Classifier,
		validate:   validation.New(),
		logger:     logger.With(zap.String("session", opts.CacheKey)),
		now:        time.Now,
		items:      map[int]*models.Item{},
		arena:      comments.NewArena(),
		favorites:  map[int]struct{}{},
		activity:   models.NewActivity(),
		observers:  map[int]func(Event){},
	}
	client.SetAuthFailureHandler(s.onAuthFailure)
	return s
}

// Subscribe registers fn for state changes and returns a function removing it.
// Observers run synchronously on the goroutine that made the change, after
// the lock is released.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify(ev Event) {
	s.obsMu.Lock()
	fns := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// setItems replaces the catalog with a server snapshot. Caller holds mu.
func (s *Store) setItems(items []*models.Item) {
	s.items = make(map[int]*models.Item, len(items))
	s.order = s.order[:0]
	for _, it := range items {
		if _, dup := s.items[it.ID]; !dup {
			s.order = append(s.order, it.ID)
		}
		s.items[it.ID] = it
	}
}

// Items returns copies of the catalog items matching the filter.
func (s *Store) Items(f catalog.Filter) []*models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(f.Apply(s.list()))
}

// Item returns a copy of one item.
func (s *Store) Item(id int) (*models.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return it.Clone(), true
}

// FindItem looks an item up by id or case-insensitive name.
func (s *Store) FindItem(ref string) (*models.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.list() {
		if matchesRef(it, ref) {
			return it.Clone(), true
		}
	}
	return nil, false
}

func (s *Store) Rank(kind catalog.Ranking) []*models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(catalog.Rank(s.list(), kind))
}

// CommentTree returns the display tree of the item's comments.
func (s *Store) CommentTree(itemID int) []*comments.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arena.Tree(itemID, comments.MaxDisplayDepth)
}

func (s *Store) CommentCount(itemID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arena.CountForItem(itemID)
}

// CommentDepth is the reply level of the comment, 0 for a root.
func (s *Store) CommentDepth(id int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arena.Depth(id)
}

func (s *Store) Comment(id int) (models.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.arena.Get(id)
	if !ok {
		return models.Comment{}, false
	}
	return *c, true
}

// Notice returns the transient message for the item's tag input, if any.
func (s *Store) Notice(itemID int) (string, bool) {
	return s.notices.Get(noticeKey(itemID))
}

// AvailableTags lists the vocabulary entries that neither the item nor the
// user's own contributions carry yet.
func (s *Store) AvailableTags(itemID int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[itemID]
	if !ok {
		return nil
	}
	mine := s.activity.Tags[itemID]
	var out []string
	for _, name := range s.vocab.Suggest(it.TagNames()) {
		if !contains(mine, name) {
			out = append(out, name)
		}
	}
	return out
}

func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Store) IsFavorite(itemID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[itemID]
	return ok
}

// Favorites returns the favorite items present in the catalog, by name.
func (s *Store) Favorites() []*models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Item
	for _, id := range s.favoriteIDs() {
		if it, ok := s.items[id]; ok {
			out = append(out, it)
		}
	}
	return cloneAll(catalog.Filter{}.Apply(out))
}

// Activity returns a copy of the activity ledger.
func (s *Store) Activity() models.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyActivity(s.activity)
}

// MyRating returns the user's last submitted rating of the item.
func (s *Store) MyRating(itemID int) (models.RatingSubmission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, _, ok := s.activity.Rating(itemID)
	if !ok {
		return models.RatingSubmission{}, false
	}
	return models.RatingSubmission{Scores: rec.Submission.Scores.Clone(), Overall: rec.Submission.Overall}, true
}

// MyReaction returns the user's active reaction on the item, empty for none.
func (s *Store) MyReaction(itemID int) models.ReactionType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activity.Reactions[itemID]
}

// list returns the catalog in server order. Caller holds mu.
func (s *Store) list() []*models.Item {
	out := make([]*models.Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// favoriteIDs returns the favorite set sorted. Caller holds mu.
func (s *Store) favoriteIDs() []int {
	ids := make([]int, 0, len(s.favorites))
	for id := range s.favorites {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func cloneAll(items []*models.Item) []*models.Item {
	out := make([]*models.Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func copyActivity(a models.Activity) models.Activity {
	out := models.NewActivity()
	for _, r := range a.Ratings {
		r.Submission.Scores = r.Submission.Scores.Clone()
		out.Ratings = append(out.Ratings, r)
	}
	out.Comments = append(out.Comments, a.Comments...)
	for k, v := range a.Reactions {
		out.Reactions[k] = v
	}
	for k, v := range a.Tags {
		out.Tags[k] = append([]string(nil), v...)
	}
	return out
}
