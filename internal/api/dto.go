package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/xaenox/rateai/internal/models"
)

// number decodes both JSON numbers and the quoted decimals the backend emits
// for decimal columns ("8.20").
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = number(f)
	return nil
}

// optionalString tells a field sent as null apart from a missing one.
type optionalString struct {
	Set   bool
	Value string
}

func (o *optionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(bytes.TrimSpace(b)) == "null" {
		o.Value = ""
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

type tagDTO struct {
	TagID   int    `json:"tag_id"`
	TagName string `json:"tag_name"`
	Count   int    `json:"count"`
}

type trendDTO struct {
	Month string `json:"month"`
	Score number `json:"score"`
}

type aiDTO struct {
	AIID                 int        `json:"ai_id"`
	Name                 string     `json:"name"`
	Developer            string     `json:"developer"`
	Description          string     `json:"description"`
	Price                *number    `json:"price"`
	PriceText            string     `json:"price_text"`
	OfficialURL          string     `json:"official_url"`
	AvgScore             number     `json:"avg_score"`
	RatingCount          int        `json:"rating_count"`
	FavoriteCount        int        `json:"favorite_count"`
	Tags                 []tagDTO   `json:"tags"`
	OverallScore         number     `json:"overall_score"`
	VersatilityScore     number     `json:"versatility_score"`
	ImageGenerationScore number     `json:"image_generation_score"`
	InformationScore     number     `json:"information_query_score"`
	StudyScore           number     `json:"study_assistance_score"`
	ValueScore           number     `json:"value_for_money_score"`
	ThumbUp              int        `json:"reactions_thumb_up"`
	ThumbDown            int        `json:"reactions_thumb_down"`
	Amazing              int        `json:"reactions_amazing"`
	Bad                  int        `json:"reactions_bad"`
	RatingTrend          []trendDTO `json:"ratingTrend"`
}

func (d *aiDTO) toModel() *models.Item {
	price := d.PriceText
	if price == "" && d.Price != nil {
		price = strconv.FormatFloat(float64(*d.Price), 'f', 2, 64)
	}
	if price == "" {
		price = "—"
	}
	item := &models.Item{
		ID:          d.AIID,
		Name:        d.Name,
		Developer:   d.Developer,
		Description: d.Description,
		Price:       price,
		Link:        d.OfficialURL,
		Ratings: models.Scores{
			models.Versatility:      float64(d.VersatilityScore),
			models.ImageGeneration:  float64(d.ImageGenerationScore),
			models.InformationQuery: float64(d.InformationScore),
			models.StudyAssistance:  float64(d.StudyScore),
			models.ValueForMoney:    float64(d.ValueScore),
		},
		Overall:       float64(d.OverallScore),
		AverageScore:  float64(d.AvgScore),
		RatingCount:   d.RatingCount,
		FavoriteCount: d.FavoriteCount,
		Tags:          toTags(d.Tags),
		Reactions: models.ReactionCounts{
			models.ThumbUp:   d.ThumbUp,
			models.ThumbDown: d.ThumbDown,
			models.Amazing:   d.Amazing,
			models.Bad:       d.Bad,
		},
	}
	for _, p := range d.RatingTrend {
		item.Trend = append(item.Trend, models.TrendPoint{Month: p.Month, Score: float64(p.Score)})
	}
	return item
}

func toTags(in []tagDTO) []models.Tag {
	out := make([]models.Tag, 0, len(in))
	seen := map[string]int{}
	for _, t := range in {
		if i, ok := seen[t.TagName]; ok {
			out[i].Count += max(t.Count, 1)
			continue
		}
		seen[t.TagName] = len(out)
		out = append(out, models.Tag{Name: t.TagName, Count: max(t.Count, 1)})
	}
	return out
}

type commentUserDTO struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

type commentDTO struct {
	CommentID       int             `json:"comment_id"`
	AIID            int             `json:"ai_id"`
	UserID          *int            `json:"user_id"`
	User            *commentUserDTO `json:"user"`
	ParentCommentID *int            `json:"parent_comment_id"`
	ReplyToAuthor   string          `json:"reply_to_author"`
	Content         string          `json:"content"`
	CreatedAt       string          `json:"created_at"`
	Upvotes         int             `json:"upvotes"`
	Images          []string        `json:"images"`
}

func (d *commentDTO) toModel() models.Comment {
	c := models.Comment{
		ID:        d.CommentID,
		ItemID:    d.AIID,
		ReplyTo:   d.ReplyToAuthor,
		Content:   d.Content,
		CreatedAt: parseTime(d.CreatedAt),
		Images:    d.Images,
		Upvotes:   d.Upvotes,
	}
	if d.ParentCommentID != nil {
		c.ParentID = *d.ParentCommentID
	}
	switch {
	case d.User != nil && d.User.Username != "":
		c.Author = d.User.Username
	case d.UserID != nil:
		c.Author = "user" + strconv.Itoa(*d.UserID)
	default:
		c.Author = "user"
	}
	return c
}

type userDTO struct {
	UserID     int     `json:"user_id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	AvatarURL  *string `json:"avatar_url"`
	IsApproved *bool   `json:"is_approved"`
	CreatedAt  string  `json:"created_at"`
}

func (d *userDTO) toModel() models.User {
	u := models.User{
		ID:        d.UserID,
		Username:  d.Username,
		Email:     d.Email,
		Approved:  true,
		CreatedAt: parseTime(d.CreatedAt),
	}
	if d.AvatarURL != nil {
		u.Avatar = *d.AvatarURL
	}
	if d.IsApproved != nil {
		u.Approved = *d.IsApproved
	}
	return u
}

type ratingDTO struct {
	RatingID             int     `json:"rating_id"`
	OverallScore         *number `json:"overall_score"`
	VersatilityScore     *number `json:"versatility_score"`
	ImageGenerationScore *number `json:"image_generation_score"`
	InformationScore     *number `json:"information_query_score"`
	StudyScore           *number `json:"study_assistance_score"`
	ValueScore           *number `json:"value_for_money_score"`
	CreatedAt            string  `json:"created_at"`
}

func (d *ratingDTO) toModel() models.RatingSubmission {
	sub := models.RatingSubmission{Scores: models.Scores{}}
	set := func(c models.Category, v *number) {
		if v != nil && *v > 0 {
			sub.Scores[c] = float64(*v)
		}
	}
	set(models.Versatility, d.VersatilityScore)
	set(models.ImageGeneration, d.ImageGenerationScore)
	set(models.InformationQuery, d.InformationScore)
	set(models.StudyAssistance, d.StudyScore)
	set(models.ValueForMoney, d.ValueScore)
	if d.OverallScore != nil {
		sub.Overall = float64(*d.OverallScore)
	}
	return sub
}

// ratingRequest is sparse: unrated categories are left out of the body.
type ratingRequest struct {
	AIID                 int     `json:"ai_id"`
	OverallScore         float64 `json:"overall_score,omitempty"`
	VersatilityScore     float64 `json:"versatility_score,omitempty"`
	ImageGenerationScore float64 `json:"image_generation_score,omitempty"`
	InformationScore     float64 `json:"information_query_score,omitempty"`
	StudyScore           float64 `json:"study_assistance_score,omitempty"`
	ValueScore           float64 `json:"value_for_money_score,omitempty"`
}

func newRatingRequest(itemID int, sub models.RatingSubmission) ratingRequest {
	return ratingRequest{
		AIID:                 itemID,
		OverallScore:         sub.Overall,
		VersatilityScore:     sub.Scores[models.Versatility],
		ImageGenerationScore: sub.Scores[models.ImageGeneration],
		InformationScore:     sub.Scores[models.InformationQuery],
		StudyScore:           sub.Scores[models.StudyAssistance],
		ValueScore:           sub.Scores[models.ValueForMoney],
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// decodeList accepts either a bare JSON array or an object wrapping it under key.
func decodeList[T any](raw []byte, key string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []T
		err := json.Unmarshal(raw, &out)
		return out, err
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil, nil
	}
	var out []T
	err := json.Unmarshal(inner, &out)
	return out, err
}
