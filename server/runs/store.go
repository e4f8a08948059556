package runs

import "sync"

// Store keeps finished runs.
type Store interface {
	// Runs returns saved runs, most recent first.
	Runs() []RunStatus
	// Save records a finished run.
	Save(RunStatus) error
}

// MemoryStore keeps a bounded run history in memory only.
type MemoryStore struct {
	max  int
	mu   sync.Mutex
	runs []RunStatus
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding at most max runs. A max of zero
// or less keeps every run.
func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{max: max, runs: make([]RunStatus, 0)}
}

// Runs returns copies of the saved runs, most recent first.
func (s *MemoryStore) Runs() []RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]RunStatus, len(s.runs))
	for i, run := range s.runs {
		result[i] = run.Copy()
	}
	return result
}

// Save stores a run, evicting the oldest once the store is full.
func (s *MemoryStore) Save(run RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = run.CalculateID()
	}

	// Prepend to keep most recent first
	s.runs = append([]RunStatus{run.Copy()}, s.runs...)
	if s.max > 0 && len(s.runs) > s.max {
		s.runs = s.runs[:s.max]
	}
	return nil
}
