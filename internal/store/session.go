package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaenox/rateai/internal/api"
	"github.com/xaenox/rateai/internal/comments"
	"github.com/xaenox/rateai/internal/models"
	"github.com/xaenox/rateai/internal/storage"
	"github.com/xaenox/rateai/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Bootstrap loads the catalog and comments concurrently and reconciles the
// cached session with the backend's session check. Load failures are logged
// and leave the affected part empty; the first one is returned.
func (s *Store) Bootstrap(ctx context.Context) error {
	var (
		items []*models.Item
		all   []models.Comment
		g     errgroup.Group
	)
	g.Go(func() error {
		var err error
		if items, err = s.api.ListItems(ctx); err != nil {
			s.logger.Warn("Failed to load catalog", zap.Error(err))
		}
		return err
	})
	g.Go(func() error {
		var err error
		if all, err = s.api.ListComments(ctx); err != nil {
			s.logger.Warn("Failed to load comments", zap.Error(err))
		}
		return err
	})
	loadErr := g.Wait()

	s.mu.Lock()
	if items != nil {
		s.setItems(items)
	}
	if all != nil {
		s.arena = comments.Load(all)
	}
	itemCount, commentCount := len(s.items), s.arena.Len()
	s.mu.Unlock()
	s.notify(Event{Kind: CatalogLoaded})

	s.restoreSession(ctx)

	s.logger.Info("Store bootstrapped",
		zap.Int("items", itemCount),
		zap.Int("comments", commentCount))
	return loadErr
}

// restoreSession trusts the backend: an authenticated check keeps the cached
// ledger only for the same user, an unauthenticated one clears the cache, and
// an unreachable backend falls back to the cache.
func (s *Store) restoreSession(ctx context.Context) {
	cached := s.loadCache(ctx)

	status, err := s.api.CheckAuth(ctx)
	if err != nil {
		s.logger.Warn("Session check failed, using cached session", zap.Error(err))
		if cached != nil && cached.User.ID != 0 {
			s.setSession(&cached.User, cached.FavoriteIDs, cached.Activity)
		}
		return
	}
	if !status.Authenticated {
		s.clearCache(ctx)
		s.resetSession()
		return
	}

	activity := models.NewActivity()
	var favorites []int
	if cached != nil && cached.User.ID == status.User.ID {
		activity = cached.Activity
		favorites = cached.FavoriteIDs
	}
	if ids, err := s.api.ListFavorites(ctx); err == nil {
		favorites = ids
	} else {
		s.logger.Warn("Failed to load favorites", zap.Error(err))
		if api.IsAuth(err) {
			return
		}
	}
	s.setSession(status.User, favorites, activity)
	s.persist(ctx)
}

// Register creates an account. The session starts right away unless the
// backend says the account still needs approval.
func (s *Store) Register(ctx context.Context, form validation.RegisterForm) (*api.AuthResult, error) {
	if err := s.validate.Validate(form); err != nil {
		return nil, err
	}
	res, err := s.api.Register(ctx, form.Username, form.Email, form.Password)
	if err != nil {
		return nil, err
	}
	if !res.RequiresApproval {
		s.setSession(&res.User, nil, models.NewActivity())
		s.persist(ctx)
	}
	s.logger.Info("User registered",
		zap.String("username", res.User.Username),
		zap.Bool("requires_approval", res.RequiresApproval))
	return res, nil
}

// Login opens a session and restores the cached ledger if it belongs to the
// same user.
func (s *Store) Login(ctx context.Context, form validation.LoginForm) (*models.User, error) {
	if err := s.validate.Validate(form); err != nil {
		return nil, err
	}
	res, err := s.api.Login(ctx, form.Username, form.Password)
	if err != nil {
		return nil, err
	}

	activity := models.NewActivity()
	if cached := s.loadCache(ctx); cached != nil && cached.User.ID == res.User.ID {
		activity = cached.Activity
	}
	favorites, err := s.api.ListFavorites(ctx)
	if err != nil {
		s.logger.Warn("Failed to load favorites after login", zap.Error(err))
	}

	s.setSession(&res.User, favorites, activity)
	s.persist(ctx)
	s.logger.Info("User logged in", zap.Int("user_id", res.User.ID))
	u := res.User
	return &u, nil
}

// Logout ends the session. Local state is cleared even if the backend call fails.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("Logout request failed", zap.Error(err))
	}
	s.clearCache(ctx)
	s.resetSession()
}

// LoggedIn reports whether a user session is active.
func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Store) onAuthFailure(ctx context.Context, loginURL string) {
	s.clearCache(ctx)
	s.resetSession()
	if s.nav != nil {
		s.nav.Redirect(ctx, loginURL)
	}
}

func (s *Store) setSession(u *models.User, favorites []int, activity models.Activity) {
	user := *u
	activity.Normalize()
	s.mu.Lock()
	s.user = &user
	s.favorites = make(map[int]struct{}, len(favorites))
	for _, id := range favorites {
		s.favorites[id] = struct{}{}
	}
	s.activity = copyActivity(activity)
	s.mu.Unlock()
	s.notify(Event{Kind: SessionChanged})
}

func (s *Store) resetSession() {
	s.mu.Lock()
	s.user = nil
	s.favorites = map[int]struct{}{}
	s.activity = models.NewActivity()
	s.mu.Unlock()
	s.notify(Event{Kind: SessionChanged})
}

func (s *Store) loadCache(ctx context.Context) *models.Session {
	sess, err := s.cache.LoadSession(ctx, s.cacheKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Failed to read session cache", zap.Error(err))
		}
		return nil
	}
	return sess
}

// persist writes the current session to the cache. Failures are logged only;
// the cache is advisory.
func (s *Store) persist(ctx context.Context) {
	s.mu.RLock()
	if s.user == nil {
		s.mu.RUnlock()
		return
	}
	sess := &models.Session{
		User:        *s.user,
		FavoriteIDs: s.favoriteIDs(),
		Activity:    copyActivity(s.activity),
		SavedAt:     s.now(),
	}
	s.mu.RUnlock()

	if err := s.cache.SaveSession(ctx, s.cacheKey, sess); err != nil {
		s.logger.Warn("Failed to save session cache", zap.Error(err))
	}
}

func (s *Store) clearCache(ctx context.Context) {
	if err := s.cache.ClearSession(ctx, s.cacheKey); err != nil {
		s.logger.Warn("Failed to clear session cache", zap.Error(fmt.Errorf("clear %s: %w", s.cacheKey, err)))
	}
}
