// Package session holds the per-user pipeline state and its persistence.
package session

import (
	"sync"
	"time"

	"crminsight/domain/core"
	"crminsight/domain/dataset"
	"crminsight/domain/model"
)

// State is the single-slot pipeline state. Fields are only read or written
// through Session.Do, which holds the session lock.
type State struct {
	Dataset  *dataset.Dataset
	Summary  *dataset.Summary
	Target   *model.TargetSpec
	Artifact *model.Artifact
}

// Session serializes pipeline operations over one State
type Session struct {
	ID        core.ID
	CreatedAt time.Time

	mu    sync.Mutex
	state State
}

// New creates an empty session
func New() *Session {
	return &Session{
		ID:        core.NewID(),
		CreatedAt: time.Now(),
	}
}

// Do runs fn with exclusive access to the session state
func (s *Session) Do(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// Update runs fn with exclusive access to the session state for changes
// that cannot fail
func (s *Session) Update(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Snapshot returns a shallow copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Commit replaces the target specification and artifact together
func (st *State) Commit(spec model.TargetSpec, artifact *model.Artifact) {
	st.Target = &spec
	st.Artifact = artifact
}

// RequireDataset returns the ingested dataset or ErrNoDataset
func (st *State) RequireDataset() (*dataset.Dataset, error) {
	if st.Dataset == nil {
		return nil, core.ErrNoDataset
	}
	return st.Dataset, nil
}

// RequireArtifact returns the fitted artifact or ErrNoArtifact
func (st *State) RequireArtifact() (*model.Artifact, error) {
	if st.Artifact == nil {
		return nil, core.ErrNoArtifact
	}
	return st.Artifact, nil
}
