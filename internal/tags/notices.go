package tags

import (
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	vocabularyNoticeTTL = 3 * time.Second
	duplicateNoticeTTL  = 2 * time.Second
	maxNotices          = 256
)

type notice struct {
	message   string
	expiresAt time.Time
}

// Notices keeps transient, auto-expiring user-facing messages keyed by a view
// key (usually the item id).
type Notices struct {
	cache *expirable.LRU[string, notice]
	now   func() time.Time
}

func NewNotices() *Notices {
	return &Notices{
		cache: expirable.NewLRU[string, notice](maxNotices, nil, vocabularyNoticeTTL),
		now:   time.Now,
	}
}

// Post stores a message for the key for ttl.
func (n *Notices) Post(key, message string, ttl time.Duration) {
	n.cache.Add(key, notice{message: message, expiresAt: n.now().Add(ttl)})
}

// PostError stores the message for a rejected tag with the display time that
// fits the rejection reason.
func (n *Notices) PostError(key string, err error) {
	ttl := vocabularyNoticeTTL
	if errors.Is(err, ErrTagExists) || errors.Is(err, ErrTagAlreadyAdded) {
		ttl = duplicateNoticeTTL
	}
	n.Post(key, err.Error(), ttl)
}

// Get returns the active message for the key, if it has not expired yet.
func (n *Notices) Get(key string) (string, bool) {
	v, ok := n.cache.Get(key)
	if !ok {
		return "", false
	}
	if n.now().After(v.expiresAt) {
		n.cache.Remove(key)
		return "", false
	}
	return v.message, true
}

// Clear drops the message for the key, e.g. when the input changes.
func (n *Notices) Clear(key string) {
	n.cache.Remove(key)
}
