package filter

import (
	"sync"

	"github.com/nao1215/showcase/internal/model"
)

// Generation identifies one search request.
type Generation uint64

// Sequencer enforces last-write-wins for searches that complete out of
// order. Each keystroke takes a generation from Next; a result is
// committed only if no newer generation has been issued since.
type Sequencer struct {
	mu        sync.Mutex
	issued    Generation
	committed Generation
	state     model.FilterState
	result    []model.Record
}

// Next issues the generation for a new search.
func (s *Sequencer) Next() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Commit stores result for gen. It returns false and keeps the previous
// result when gen is no longer the newest generation.
func (s *Sequencer) Commit(gen Generation, st model.FilterState, result []model.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued || gen <= s.committed {
		return false
	}
	s.committed = gen
	s.state = st
	s.result = result
	return true
}

// Current returns the newest committed state and result.
func (s *Sequencer) Current() (model.FilterState, []model.Record, Generation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.result, s.committed
}

// IsLatest reports whether gen is the newest issued generation.
func (s *Sequencer) IsLatest(gen Generation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.issued
}
