package readmodel

import (
	"sync"

	"vault-risk-lab/internal/domain"
)

// Session serializes read-model updates from overlapping builds. Each build
// registers with Begin and reports with Apply; only the most recently begun
// build may publish, so a slow stale response never overwrites a newer one.
type Session struct {
	mu      sync.Mutex
	seq     uint64
	model   *domain.ReadModel
	err     error
	loading bool
}

// NewSession returns an empty session in the loading state.
func NewSession() *Session {
	return &Session{loading: true}
}

// Begin registers a new build and returns its token. Beginning a build
// supersedes every build begun before it.
func (s *Session) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.loading = true
	s.err = nil
	return s.seq
}

// Apply publishes a build's outcome. Stale tokens are ignored and Apply
// reports whether the outcome was accepted. A failed build keeps the last
// good model and records the error alongside it.
func (s *Session) Apply(token uint64, model *domain.ReadModel, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.seq {
		return false
	}
	if err != nil {
		s.err = err
	} else {
		s.model = model
		s.err = nil
	}
	s.loading = false
	return true
}

// State is a point-in-time view of a session.
type State struct {
	Model   *domain.ReadModel
	Err     error
	Loading bool
}

// Latest returns the last published model, the last error, and whether a
// build is in flight.
func (s *Session) Latest() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Model: s.model, Err: s.err, Loading: s.loading}
}
