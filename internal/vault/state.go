package vault

import "sync"

// State is the process-wide daemon state: an initialized flag set once the
// listener is bound and a live connection count. It is mutated from every
// connection goroutine, so a single lock guards both fields; the lock is
// held only for the increment or decrement, never across IPC reads or
// writes. Constructed explicitly and passed to the server — no ambient
// globals — so it stays testable in isolation.
type State struct {
	mu          sync.Mutex
	initialized bool
	activeConns int
}

// NewState creates empty daemon state.
func NewState() *State {
	return &State{}
}

// MarkInitialized records that the IPC endpoint is bound.
func (s *State) MarkInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}

// Initialized reports whether the IPC endpoint has been bound.
func (s *State) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// ConnOpened increments the live connection count and returns it.
func (s *State) ConnOpened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeConns++
	return s.activeConns
}

// ConnClosed decrements the live connection count and returns it.
func (s *State) ConnClosed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeConns--
	return s.activeConns
}

// ActiveConnections returns the current live connection count.
func (s *State) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConns
}
