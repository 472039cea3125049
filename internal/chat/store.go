package chat

import "sync"

// Listener is notified after every dispatched batch with the resulting state.
type Listener func(State)

// Store is the single writer of the chat state. All mutations go through
// Dispatch so observers never see a half-applied batch.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// NewStore creates a store seeded with initial.
func NewStore(initial State) *Store {
	return &Store{state: initial, listeners: make(map[int]Listener)}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies cmds in order as one atomic transition and notifies
// listeners once. It returns the resulting state.
func (s *Store) Dispatch(cmds ...Command) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	for _, c := range cmds {
		next = Reduce(next, c)
	}
	s.state = next
	// Listeners run with the store locked; they must not block or dispatch.
	for _, fn := range s.listeners {
		fn(next)
	}
	return next
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
