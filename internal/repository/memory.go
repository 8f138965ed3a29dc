package repository

import (
	"context"
	"sync"
	"time"

	"clubly/internal/models"
)

type memoryState struct {
	state     *models.FormState
	expiresAt time.Time
}

// MemoryStateRepository is the in-process fallback when Redis is down.
type MemoryStateRepository struct {
	mu         sync.Mutex
	states     map[int64]memoryState
	rateLimits map[int64]*rateLimitEntry
	ttl        time.Duration
	now        func() time.Time
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		states:     make(map[int64]memoryState),
		rateLimits: make(map[int64]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemoryStateRepository) GetState(_ context.Context, userID int64) (*models.FormState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.states[userID]
	if !ok {
		return nil, nil
	}
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		delete(r.states, userID)
		return nil, nil
	}
	return cloneState(entry.state), nil
}

func (r *MemoryStateRepository) SetState(_ context.Context, state *models.FormState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.UserID] = memoryState{state: cloneState(state), expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *MemoryStateRepository) ClearState(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, userID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(_ context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[userID]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[userID] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}

// cloneState copies the state so callers cannot mutate stored data in place,
// matching the by-value semantics of the Redis repository.
func cloneState(s *models.FormState) *models.FormState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.TempData = make(map[string]string, len(s.TempData))
	for k, v := range s.TempData {
		cp.TempData[k] = v
	}
	return &cp
}
