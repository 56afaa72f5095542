package wizard

import (
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

var (
	ErrSessionNotFound = errors.New("wizard session not found")
	ErrUnknownKind     = errors.New("unknown wizard kind")
)

// Store keeps in-progress wizards for a limited time.
type Store struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{cache: cache.New(ttl, ttl/2), ttl: ttl}
}

func (s *Store) Start(kind, owner string) (*Wizard, error) {
	def, ok := Definitions[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	w := New(def, owner)
	s.cache.Set(w.ID(), w, s.ttl)
	return w, nil
}

// Get returns the owner's wizard and extends its lifetime.
func (s *Store) Get(owner, id string) (*Wizard, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	w := v.(*Wizard)
	if w.Owner() != owner {
		return nil, ErrSessionNotFound
	}
	s.cache.Set(id, w, s.ttl)
	return w, nil
}

func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}
