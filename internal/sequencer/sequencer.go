package sequencer

import "sync"

// Token marks one request issued for a key.
type Token struct {
	Key string
	N   uint64
}

type entry struct {
	// commit serializes apply calls for the key.
	commit sync.Mutex
	latest uint64
}

// Sequencer hands out increasing tokens per key so that only the response to
// the most recent request for a key is applied. Token numbers come from one
// counter shared by all keys, so a forgotten key never reissues an old number.
type Sequencer struct {
	mu   sync.Mutex
	next uint64
	keys map[string]*entry
}

func New() *Sequencer {
	return &Sequencer{keys: make(map[string]*entry)}
}

func (s *Sequencer) Begin(key string) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[key]
	if !ok {
		e = &entry{}
		s.keys[key] = e
	}
	s.next++
	e.latest = s.next
	return Token{Key: key, N: s.next}
}

func (s *Sequencer) IsLatest(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.keys[t.Key]
	return ok && e.latest == t.N
}

// Commit runs apply if t is still the latest token for its key and reports
// whether it ran. Commits for one key run one at a time; other keys and Begin
// are not blocked while apply runs.
func (s *Sequencer) Commit(t Token, apply func()) bool {
	s.mu.Lock()
	e, ok := s.keys[t.Key]
	s.mu.Unlock()
	if !ok {
		return false
	}

	e.commit.Lock()
	defer e.commit.Unlock()
	if !s.IsLatest(t) {
		return false
	}
	apply()
	return true
}

// Forget drops the key. Outstanding tokens for it become stale.
func (s *Sequencer) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

// Len reports how many keys are tracked.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
