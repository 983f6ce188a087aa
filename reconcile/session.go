package reconcile

import (
	"sync"
	"time"
)

// Session tracks the mutable editing-session state the engine consults
// before acting: which operations are in flight, whether a save is running,
// and when the last save completed. It is owned by the engine and passed by
// reference to the components that need it, never held as ambient globals.
type Session struct {
	mu       sync.Mutex
	active   map[string]int
	saving   bool
	lastSave time.Time
}

// NewSession constructs an empty session.
func NewSession() *Session {
	return &Session{active: make(map[string]int)}
}

// BeginOperation marks a named operation (upload, recording, bulk-import)
// active. Operations nest; every Begin needs a matching End.
func (s *Session) BeginOperation(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[name]++
}

// EndOperation releases one hold on the named operation.
func (s *Session) EndOperation(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[name] > 1 {
		s.active[name]--
		return
	}
	delete(s.active, name)
}

// ActiveOperations reports the number of distinct operations in flight.
func (s *Session) ActiveOperations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Busy reports whether a save or any operation is in flight. Satisfies the
// resolver's OperationGuard so stale resolutions become no-ops.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving || len(s.active) > 0
}

// Saving reports whether a save is currently running.
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// LastSave returns the completion time of the most recent save.
func (s *Session) LastSave() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSave
}

func (s *Session) beginSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = true
}

func (s *Session) endSave(completedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	s.lastSave = completedAt
}
