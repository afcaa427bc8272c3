package validation

import "strings"

type RegisterForm struct {
	Username        string `json:"username" validate:"required,min=3,max=150"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CommentForm struct {
	ItemID  int      `json:"ai_id" validate:"gt=0"`
	Content string   `json:"content" validate:"required,max=2000"`
	Images  []string `json:"images" validate:"max=9,dive,required"`
}

// Normalize trims the free-text fields so whitespace-only content is rejected.
func (f *CommentForm) Normalize() {
	f.Content = strings.TrimSpace(f.Content)
}

type RatingForm struct {
	ItemID           int     `json:"ai_id" validate:"gt=0"`
	Overall          float64 `json:"overall" validate:"min=0,max=10"`
	Versatility      float64 `json:"versatility" validate:"min=0,max=10"`
	ImageGeneration  float64 `json:"imageGeneration" validate:"min=0,max=10"`
	InformationQuery float64 `json:"informationQuery" validate:"min=0,max=10"`
	StudyAssistance  float64 `json:"studyAssistance" validate:"min=0,max=10"`
	ValueForMoney    float64 `json:"valueForMoney" validate:"min=0,max=10"`
}
