package statemachine

// StateFn represents a state function following Rob Pike's pattern: the
// states are the functions themselves, and each returns the next state
// function (nil terminates the machine).
type StateFn[T any] func(*T) StateFn[T]

// Machine drives an entity through its state functions. It carries no lock;
// callers that share a machine across goroutines must serialize access (the
// game engine runs entirely under its room's registry lock).
type Machine[T any] struct {
	entity  *T
	stateFn StateFn[T]
}

// New creates a machine for entity starting in the given state.
func New[T any](entity *T, initial StateFn[T]) *Machine[T] {
	return &Machine[T]{
		entity:  entity,
		stateFn: initial,
	}
}

// Step executes the current state function once and transitions to whatever
// it returns. Stepping a terminated machine is a no-op.
func (m *Machine[T]) Step() {
	if m.stateFn == nil {
		return
	}
	m.stateFn = m.stateFn(m.entity)
}

// Run steps the machine until it terminates.
func (m *Machine[T]) Run() {
	for m.stateFn != nil {
		m.Step()
	}
}

// Current returns the current state function, nil once terminated.
func (m *Machine[T]) Current() StateFn[T] {
	return m.stateFn
}

// Set forces the machine into the given state without executing it.
func (m *Machine[T]) Set(stateFn StateFn[T]) {
	m.stateFn = stateFn
}
