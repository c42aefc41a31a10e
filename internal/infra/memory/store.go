package memory

import (
	"context"
	"sync"

	"toohak-quiz-service/internal/domain"
)

// Store keeps the whole application snapshot in process memory. Load and
// Save hand out deep copies so callers can never alias the stored state.
type Store struct {
	mu   sync.RWMutex
	snap domain.Snapshot
}

func NewStore() *Store {
	return &Store{snap: domain.Empty()}
}

func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone(), nil
}

func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	return nil
}
