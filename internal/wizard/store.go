package wizard

import "sync"

// Store wraps the reducer with dispatch and per-instance subscribers. Each
// checkout flow owns its own Store; there is no process-wide registry.
type Store struct {
	mu    sync.Mutex
	state State
	subs  []func(State)
}

func NewStore() *Store {
	return &Store{}
}

func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Dispatch applies the action and notifies subscribers with the new state.
// Subscribers run outside the lock so they may dispatch follow-up actions.
func (st *Store) Dispatch(a Action) State {
	st.mu.Lock()
	st.state = Reduce(st.state, a)
	next := st.state
	subs := append(([]func(State))(nil), st.subs...)
	st.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn and returns an unsubscribe func.
func (st *Store) Subscribe(fn func(State)) func() {
	st.mu.Lock()
	st.subs = append(st.subs, fn)
	idx := len(st.subs) - 1
	st.mu.Unlock()

	return func() {
		st.mu.Lock()
		st.subs[idx] = func(State) {}
		st.mu.Unlock()
	}
}
