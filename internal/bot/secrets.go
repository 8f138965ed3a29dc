package bot

import "sync"

// secretStore holds the answers to secret form fields in process memory.
// They never reach the state repository and are dropped after every
// submit attempt, so a retry asks for them again.
type secretStore struct {
	mu     sync.Mutex
	values map[int64]map[string]string
}

func newSecretStore() *secretStore {
	return &secretStore{values: make(map[int64]map[string]string)}
}

func (s *secretStore) put(userID int64, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.values[userID]
	if !ok {
		m = make(map[string]string)
		s.values[userID] = m
	}
	m[key] = value
}

func (s *secretStore) has(userID int64, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[userID][key]
	return ok
}

// take returns the secrets of userID and forgets them.
func (s *secretStore) take(userID int64) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.values[userID]
	delete(s.values, userID)
	return m
}

func (s *secretStore) drop(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, userID)
}
