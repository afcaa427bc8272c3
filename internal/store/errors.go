package store

import (
	"errors"
	"time"

	"github.com/xaenox/rateai/internal/api"
	"github.com/xaenox/rateai/internal/reaction"
	"github.com/xaenox/rateai/internal/tags"
	"github.com/xaenox/rateai/internal/validation"
)

var (
	ErrItemNotFound    = errors.New("AI not found")
	ErrCommentNotFound = errors.New("comment not found")
)

const noticeTTL = 3 * time.Second

// UserMessage turns a command error into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		verr *validation.Error
		serr *api.ServerError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, api.ErrUnauthorized):
		return "Your session has expired, please log in again."
	case errors.Is(err, api.ErrUnreachable):
		return "Cannot reach the server, please check your connection."
	case errors.As(err, &serr):
		return serr.Error()
	case errors.Is(err, tags.ErrEmptyTag),
		errors.Is(err, tags.ErrTagNotAllowed),
		errors.Is(err, tags.ErrTagExists),
		errors.Is(err, tags.ErrTagAlreadyAdded),
		errors.Is(err, reaction.ErrReactionChangeBlocked),
		errors.Is(err, reaction.ErrUnknownReaction),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrCommentNotFound):
		return err.Error()
	}
	return "Something went wrong, please try again."
}
