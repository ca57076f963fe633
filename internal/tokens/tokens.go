// package tokens manages the access/refresh token pair issued by the backend.
//
// Stores are injected into the API client rather than shared as process-global
// state, so tests and multiple client instances stay isolated.
package tokens

import "sync"

// TokenPair holds the credentials returned by login, register, and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Store persists a single token pair under fixed keys.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Pair returns the stored pair. ok is false when no access token is stored.
	Pair() (pair TokenPair, ok bool)

	// Save replaces both tokens.
	Save(pair TokenPair) error

	// Update replaces the access token and, when refresh is non-empty, the
	// refresh token. The backend may omit a rotated refresh token on refresh
	// responses, in which case the stored one is retained.
	Update(access, refresh string) error

	// Clear removes both tokens.
	Clear() error
}

// MemoryStore is an in-process Store for ephemeral sessions and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	pair TokenPair
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Pair() (TokenPair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, s.pair.Access != ""
}

func (s *MemoryStore) Save(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	return nil
}

func (s *MemoryStore) Update(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair.Access = access
	if refresh != "" {
		s.pair.Refresh = refresh
	}
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = TokenPair{}
	return nil
}
