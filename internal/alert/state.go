package alert

import (
	"context"
	"sync"
	"time"
)

// MemoryState is the default in-process AlertStateStore. Stamps live for the
// duration of the run and are lost on restart; deployments that need
// restart-safe cooldowns configure the Redis-backed store instead.
type MemoryState struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewMemoryState creates an empty in-memory alert state.
func NewMemoryState() *MemoryState {
	return &MemoryState{lastSent: make(map[string]time.Time)}
}

// LastSent returns the last stamp for key and whether one exists.
func (s *MemoryState) LastSent(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.lastSent[key]
	return ts, ok, nil
}

// Stamp records that an alert for key was forwarded at the given time.
func (s *MemoryState) Stamp(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSent[key] = at
	return nil
}

// Len returns the number of tracked keys.
func (s *MemoryState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lastSent)
}
