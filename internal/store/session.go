package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/flood-risk/internal/assess"
)

var (
	// ErrNotFound is returned when a session has never been seen or was evicted.
	ErrNotFound = errors.New("session not found")

	// ErrSuperseded is returned when a newer request for the same session has
	// started; the stale result is dropped.
	ErrSuperseded = errors.New("request superseded by a newer one")
)

type session struct {
	state  assess.SessionState
	cancel context.CancelFunc
}

// SessionStore is a concurrency-safe in-memory implementation of
// assess.SessionStore.
type SessionStore struct {
	mu    sync.RWMutex
	clock clockwork.Clock

	// key: session id
	data map[string]*session
}

// NewSessionStore creates an empty store. A nil clock means real time.
func NewSessionStore(clock clockwork.Clock) *SessionStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionStore{
		clock: clock,
		data:  make(map[string]*session),
	}
}

// Begin opens a new generation for the session, cancels the in-flight
// request of the previous one and marks the session loading. The previous
// error is cleared; the previous assessment stays visible until replaced.
func (s *SessionStore) Begin(sessionID string, cancel context.CancelFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.data[sessionID]
	if !ok {
		sess = &session{state: assess.SessionState{SessionID: sessionID}}
		s.data[sessionID] = sess
	}

	if sess.cancel != nil {
		sess.cancel()
	}

	sess.cancel = cancel
	sess.state.Generation++
	sess.state.Status = assess.StatusLoading
	sess.state.Error = ""
	sess.state.UpdatedAt = s.clock.Now()

	return sess.state.Generation
}

// SetLocation records the place name being assessed.
func (s *SessionStore) SetLocation(sessionID string, generation uint64, location string) error {
	return s.update(sessionID, generation, func(st *assess.SessionState) {
		st.Location = location
	}, false)
}

// Complete stores the assessment if generation is still current.
func (s *SessionStore) Complete(sessionID string, generation uint64, a assess.Assessment) error {
	return s.update(sessionID, generation, func(st *assess.SessionState) {
		st.Status = assess.StatusReady
		st.Error = ""
		st.Location = a.Location
		st.Assessment = &a
	}, true)
}

// Fail records cause and clears any stale assessment if generation is still
// current.
func (s *SessionStore) Fail(sessionID string, generation uint64, cause error) error {
	return s.update(sessionID, generation, func(st *assess.SessionState) {
		st.Status = assess.StatusError
		st.Error = cause.Error()
		st.Assessment = nil
	}, true)
}

func (s *SessionStore) update(sessionID string, generation uint64, apply func(*assess.SessionState), final bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.data[sessionID]
	if !ok {
		return ErrNotFound
	}
	if sess.state.Generation != generation {
		return ErrSuperseded
	}

	apply(&sess.state)
	sess.state.UpdatedAt = s.clock.Now()
	if final {
		sess.cancel = nil
	}
	return nil
}

// Get returns a copy of the session state.
func (s *SessionStore) Get(sessionID string) (assess.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[sessionID]
	if !ok {
		return assess.SessionState{}, ErrNotFound
	}
	return sess.state, nil
}

// EvictIdle removes sessions not updated within maxIdle and not currently
// loading. It returns the number of sessions removed.
func (s *SessionStore) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.clock.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.data {
		if sess.state.Status == assess.StatusLoading {
			continue
		}
		if sess.state.UpdatedAt.Before(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
