package state

import "sync"

// Store holds a State and serialises dispatches against it.
type Store interface {
	GetState() State
	Dispatch(actions ...Action)
}

type MemoryStore struct {
	mu    sync.RWMutex
	state State
}

func NewMemoryStore(initial State) *MemoryStore {
	return &MemoryStore{state: initial}
}

func (s *MemoryStore) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *MemoryStore) Dispatch(actions ...Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range actions {
		s.state = Reduce(s.state, a)
	}
}
