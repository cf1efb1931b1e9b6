package queue

import (
	"slices"
	"sync"
)

// Manager holds named queues. Queues are only reached while the manager's
// lock is held, which makes it safe for concurrent callers.
type Manager struct {
	mu     sync.Mutex
	queues map[string]*Queue
	opts   []Option
}

// NewManager returns a manager whose queues are created with opts.
func NewManager(opts ...Option) *Manager {
	return &Manager{queues: make(map[string]*Queue), opts: opts}
}

// With runs fn on the named queue, creating it first if needed.
func (m *Manager) With(name string, fn func(q *Queue)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		q = New(m.opts...)
		m.queues[name] = q
	}
	fn(q)
}

// Lookup runs fn on the named queue if it exists.
func (m *Manager) Lookup(name string, fn func(q *Queue)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		return false
	}
	fn(q)
	return true
}

// Drop frees the named queue and forgets it.
func (m *Manager) Drop(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		return false
	}
	q.Free()
	delete(m.queues, name)
	return true
}

func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.queues))
	for name := range m.queues {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close frees every queue.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, q := range m.queues {
		q.Free()
		delete(m.queues, name)
	}
}
