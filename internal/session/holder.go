// Package session keeps track of who is signed in. Sessions live in process
// memory only, a restart signs everybody out.
package session

import (
	"bitwise74/learning-api/internal/model"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v2"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idSize = 32

var ErrNotFound = errors.New("session not found or expired")

type Session struct {
	ID        string
	User      model.Snapshot
	CreatedAt time.Time
}

// Holder maps session IDs to sessions. A session that isn't used for the
// idle TTL is dropped.
type Holder struct {
	cache *ttlcache.Cache
}

func NewHolder(idle time.Duration) (*Holder, error) {
	c := ttlcache.NewCache()
	if err := c.SetTTL(idle); err != nil {
		return nil, err
	}

	return &Holder{cache: c}, nil
}

// Start opens a new session for user.
func (h *Holder) Start(user model.Snapshot) (*Session, error) {
	id, err := gonanoid.New(idSize)
	if err != nil {
		return nil, err
	}

	s := Session{
		ID:        id,
		User:      user,
		CreatedAt: time.Now(),
	}

	if err := h.cache.Set(id, s); err != nil {
		return nil, err
	}

	return &s, nil
}

// Get returns a copy of the session and resets its idle timer.
func (h *Holder) Get(id string) (*Session, error) {
	v, err := h.cache.Get(id)
	if err != nil {
		if errors.Is(err, ttlcache.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	s := v.(Session)
	return &s, nil
}

// Update replaces the user snapshot held by a session.
func (h *Holder) Update(id string, user model.Snapshot) error {
	s, err := h.Get(id)
	if err != nil {
		return err
	}

	s.User = user
	return h.cache.Set(id, *s)
}

// End drops the session. Ending an unknown session is not an error.
func (h *Holder) End(id string) error {
	err := h.cache.Remove(id)
	if err != nil && !errors.Is(err, ttlcache.ErrNotFound) {
		return err
	}

	return nil
}

func (h *Holder) Count() int {
	return h.cache.Count()
}

func (h *Holder) Close() error {
	return h.cache.Close()
}
