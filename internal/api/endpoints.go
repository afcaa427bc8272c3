package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xaenox/rateai/internal/models"
)

// AuthStatus is the result of the session check.
type AuthStatus struct {
	Authenticated bool
	User          *models.User
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	User             models.User
	Message          string
	RequiresApproval bool
}

// FavoriteResult is the state after a favorite toggle.
type FavoriteResult struct {
	IsFavorite bool
}

// RatingResult is the backend's echo of a saved rating.
type RatingResult struct {
	Submission models.RatingSubmission
	IsUpdate   bool
	Message    string
}

// ReactionResult is the user's reaction after a toggle. Echoed reports whether
// the backend sent reaction_type at all; Active is empty for none. Counts is
// nil when the backend did not echo the counters.
type ReactionResult struct {
	Active models.ReactionType
	Echoed bool
	Counts models.ReactionCounts
}

// TagResult carries the item tags after a contribution, when echoed.
type TagResult struct {
	Tags    []models.Tag
	Message string
}

// NewComment is the payload of a comment or reply.
type NewComment struct {
	ItemID   int
	ParentID int
	ReplyTo  string
	Content  string
	Images   []string
}

type authEnvelope struct {
	Success          bool     `json:"success"`
	User             *userDTO `json:"user"`
	Message          string   `json:"message"`
	RequiresApproval bool     `json:"requires_approval"`
	Error            string   `json:"error"`
	Detail           string   `json:"detail"`
}

func (e *authEnvelope) result(fallback string) (*AuthResult, error) {
	if !e.Success || e.User == nil {
		msg := e.Error
		if msg == "" {
			msg = e.Detail
		}
		if msg == "" {
			msg = fallback
		}
		return nil, &ServerError{Status: http.StatusOK, Message: msg}
	}
	return &AuthResult{User: e.User.toModel(), Message: e.Message, RequiresApproval: e.RequiresApproval}, nil
}

// ListItems fetches the full catalog snapshot.
func (c *Client) ListItems(ctx context.Context) ([]*models.Item, error) {
	var out []aiDTO
	if _, err := c.do(ctx, call{method: http.MethodGet, path: "/api/ais/", result: &out}); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items := make([]*models.Item, 0, len(out))
	for i := range out {
		items = append(items, out[i].toModel())
	}
	return items, nil
}

// ListComments fetches the full comment snapshot.
func (c *Client) ListComments(ctx context.Context) ([]models.Comment, error) {
	var out []commentDTO
	if _, err := c.do(ctx, call{method: http.MethodGet, path: "/api/comments/", result: &out}); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return toComments(out), nil
}

// CheckAuth asks the backend whether the cookie session is still valid.
func (c *Client) CheckAuth(ctx context.Context) (*AuthStatus, error) {
	var out struct {
		Authenticated bool     `json:"authenticated"`
		User          *userDTO `json:"user"`
	}
	if _, err := c.do(ctx, call{method: http.MethodGet, path: "/api/check-auth/", result: &out}); err != nil {
		return nil, fmt.Errorf("check auth: %w", err)
	}
	st := &AuthStatus{Authenticated: out.Authenticated && out.User != nil}
	if st.Authenticated {
		u := out.User.toModel()
		st.User = &u
	}
	return st, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	var out authEnvelope
	body := map[string]string{"username": username, "email": email, "password": password}
	if _, err := c.do(ctx, call{method: http.MethodPost, path: "/api/register/", body: body, result: &out, fallback: "registration failed"}); err != nil {
		return nil, err
	}
	return out.result("registration failed")
}

// Login opens a cookie session. A 401 means bad credentials and a 403 an
// account that is not approved yet; neither triggers the login redirect.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	var out authEnvelope
	body := map[string]string{"username": username, "password": password}
	resp, err := c.do(ctx, call{method: http.MethodPost, path: "/api/login/", body: body, result: &out})
	if err != nil {
		var serr *ServerError
		if errors.As(err, &serr) && resp != nil && serr.Message == "" {
			switch resp.StatusCode() {
			case http.StatusUnauthorized:
				serr.Message = "invalid username or password"
			case http.StatusForbidden:
				serr.Message = "your account has not been approved yet"
			}
		}
		return nil, err
	}
	return out.result("login failed, please try again")
}

func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.do(ctx, call{method: http.MethodPost, path: "/api/logout/"}); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Client) ListFavorites(ctx context.Context) ([]int, error) {
	var out struct {
		Success     bool  `json:"success"`
		FavoriteIDs []int `json:"favorite_ids"`
	}
	if _, err := c.do(ctx, call{method: http.MethodGet, path: "/api/favorites/list/", result: &out, requireAuth: true}); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return out.FavoriteIDs, nil
}

func (c *Client) ToggleFavorite(ctx context.Context, itemID int) (*FavoriteResult, error) {
	var out struct {
		Success    bool `json:"success"`
		IsFavorite bool `json:"is_favorite"`
	}
	body := map[string]int{"ai_id": itemID}
	if _, err := c.do(ctx, call{method: http.MethodPost, path: "/api/favorites/", body: body, result: &out, requireAuth: true, fallback: "operation failed"}); err != nil {
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}
	return &FavoriteResult{IsFavorite: out.IsFavorite}, nil
}

// SubmitRating creates or updates the user's rating. Only the rated fields are sent.
func (c *Client) SubmitRating(ctx context.Context, itemID int, sub models.RatingSubmission) (*RatingResult, error) {
	var out struct {
		Success  bool       `json:"success"`
		Message  string     `json:"message"`
		Rating   *ratingDTO `json:"rating"`
		IsUpdate bool       `json:"is_update"`
	}
	_, err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        "/api/ratings/",
		body:        newRatingRequest(itemID, sub),
		result:      &out,
		requireAuth: true,
		fallback:    "failed to save rating",
	})
	if err != nil {
		return nil, fmt.Errorf("submit rating: %w", err)
	}
	res := &RatingResult{Submission: sub, IsUpdate: out.IsUpdate, Message: out.Message}
	if out.Rating != nil {
		res.Submission = out.Rating.toModel()
	}
	return res, nil
}

// GetRating returns the user's own rating of the item, nil when there is none.
func (c *Client) GetRating(ctx context.Context, itemID int) (*models.RatingSubmission, error) {
	var out struct {
		Rating *ratingDTO `json:"rating"`
	}
	path := "/api/ratings/" + strconv.Itoa(itemID) + "/"
	if _, err := c.do(ctx, call{method: http.MethodGet, path: path, result: &out, requireAuth: true}); err != nil {
		var serr *ServerError
		if errors.As(err, &serr) && serr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get rating: %w", err)
	}
	if out.Rating == nil {
		return nil, nil
	}
	sub := out.Rating.toModel()
	return &sub, nil
}

func (c *Client) AddTag(ctx context.Context, itemID int, name string) (*TagResult, error) {
	var out struct {
		Success bool     `json:"success"`
		Message string   `json:"message"`
		Tags    []tagDTO `json:"tags"`
	}
	body := map[string]any{"ai_id": itemID, "tag_name": name}
	if _, err := c.do(ctx, call{method: http.MethodPost, path: "/api/tags/add/", body: body, result: &out, requireAuth: true, fallback: "failed to add tag"}); err != nil {
		return nil, fmt.Errorf("add tag: %w", err)
	}
	res := &TagResult{Message: out.Message}
	if out.Tags != nil {
		res.Tags = toTags(out.Tags)
	}
	return res, nil
}

func (c *Client) CreateComment(ctx context.Context, in NewComment) (*models.Comment, error) {
	var out struct {
		Success bool        `json:"success"`
		Comment *commentDTO `json:"comment"`
	}
	body := map[string]any{
		"ai_id":   in.ItemID,
		"content": in.Content,
		"images":  in.Images,
	}
	if in.Images == nil {
		body["images"] = []string{}
	}
	if in.ParentID != 0 {
		body["parent_comment_id"] = in.ParentID
	}
	if in.ReplyTo != "" {
		body["reply_to_author"] = in.ReplyTo
	}
	if _, err := c.do(ctx, call{method: http.MethodPost, path: "/api/comments/create/", body: body, result: &out, requireAuth: true, fallback: "failed to post comment"}); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if out.Comment == nil {
		return nil, &ServerError{Status: http.StatusOK, Message: "backend did not return the comment"}
	}
	cm := out.Comment.toModel()
	if cm.ItemID == 0 {
		cm.ItemID = in.ItemID
	}
	if cm.ParentID == 0 {
		cm.ParentID = in.ParentID
	}
	if cm.ReplyTo == "" {
		cm.ReplyTo = in.ReplyTo
	}
	return &cm, nil
}

type reactionEnvelope struct {
	Success      bool           `json:"success"`
	ReactionType optionalString `json:"reaction_type"`
	ThumbUp      *int           `json:"reactions_thumb_up"`
	ThumbDown    *int           `json:"reactions_thumb_down"`
	Amazing      *int           `json:"reactions_amazing"`
	Bad          *int           `json:"reactions_bad"`
}

func (e *reactionEnvelope) result() *ReactionResult {
	res := &ReactionResult{
		Active: models.ReactionType(e.ReactionType.Value),
		Echoed: e.ReactionType.Set,
	}
	if e.ThumbUp != nil && e.ThumbDown != nil && e.Amazing != nil && e.Bad != nil {
		res.Counts = models.ReactionCounts{
			models.ThumbUp:   *e.ThumbUp,
			models.ThumbDown: *e.ThumbDown,
			models.Amazing:   *e.Amazing,
			models.Bad:       *e.Bad,
		}
	}
	return res
}

// React toggles or replaces the user's reaction on the item.
func (c *Client) React(ctx context.Context, itemID int, t models.ReactionType) (*ReactionResult, error) {
	var out reactionEnvelope
	body := map[string]any{"ai_id": itemID, "reaction_type": string(t)}
	if _, err := c.do(ctx, call{method: http.MethodPost, path: "/api/reactions/", body: body, result: &out, requireAuth: true, fallback: "failed to react"}); err != nil {
		return nil, fmt.Errorf("react: %w", err)
	}
	return out.result(), nil
}

// GetReaction returns the user's active reaction on the item, empty for none.
func (c *Client) GetReaction(ctx context.Context, itemID int) (models.ReactionType, error) {
	var out reactionEnvelope
	path := "/api/reactions/" + strconv.Itoa(itemID) + "/"
	if _, err := c.do(ctx, call{method: http.MethodGet, path: path, result: &out, requireAuth: true}); err != nil {
		return "", fmt.Errorf("get reaction: %w", err)
	}
	return out.result().Active, nil
}

// MyComments lists the comments written by the logged-in user.
func (c *Client) MyComments(ctx context.Context) ([]models.Comment, error) {
	resp, err := c.do(ctx, call{method: http.MethodGet, path: "/api/users/comments/", requireAuth: true})
	if err != nil {
		return nil, fmt.Errorf("my comments: %w", err)
	}
	out, err := decodeList[commentDTO](resp.Body(), "comments")
	if err != nil {
		return nil, fmt.Errorf("my comments: decode: %w", err)
	}
	return toComments(out), nil
}

func toComments(in []commentDTO) []models.Comment {
	out := make([]models.Comment, 0, len(in))
	for i := range in {
		out = append(out, in[i].toModel())
	}
	return out
}
