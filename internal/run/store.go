// internal/run/store.go
//
// In-memory repository of runs with per-run mutual exclusion: concurrent
// operations against the same run id serialize on that run's lock, while
// operations against different runs proceed in parallel. State is lost on
// process restart; an evicted or unknown id surfaces as ErrRunNotFound.
package run

import "sync"

// Store keys runs by id.
type Store struct {
	mu   sync.Mutex
	runs map[string]*storeEntry
}

type storeEntry struct {
	mu  sync.Mutex
	run *Run
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{runs: make(map[string]*storeEntry)}
}

// Put registers a run. An existing entry for the same id is replaced.
func (s *Store) Put(r *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = &storeEntry{run: r}
}

// With runs fn against the run for id while holding that run's lock.
// Returns ErrRunNotFound for unknown ids; otherwise fn's error.
func (s *Store) With(id string, fn func(*Run) error) error {
	s.mu.Lock()
	e, ok := s.runs[id]
	s.mu.Unlock()
	if !ok {
		return ErrRunNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.run)
}

// Delete evicts a run. Missing ids are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
}

// Len reports how many runs are live.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}
