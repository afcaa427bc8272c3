package storage

import (
	"context"
	"errors"

	"github.com/xaenox/rateai/internal/models"
)

// DefaultKey is the namespace under which the logged-in user's session is kept.
const DefaultKey = "rateAI_user"

var ErrNotFound = errors.New("session not found")

// Storage persists the client-side session cache: profile, favorite ids and
// activity ledger. The cache is advisory; the backend's session check wins.
type Storage interface {
	LoadSession(ctx context.Context, key string) (*models.Session, error)
	SaveSession(ctx context.Context, key string, session *models.Session) error
	ClearSession(ctx context.Context, key string) error
	Close() error
}

// Key namespaces the cache key for one front-end session, e.g. a chat.
func Key(base, scope string) string {
	if base == "" {
		base = DefaultKey
	}
	if scope == "" {
		return base
	}
	return base + ":" + scope
}
