package queue

import (
	"sync"
)

// Manager tracks the outboxes of every open connection so they can be drained together.
type Manager struct {
	outboxes map[string]*Outbox
	mutex    sync.Mutex
	size     int
}

// NewManager creates a Manager whose outboxes hold up to size frames each.
func NewManager(size int) *Manager {
	return &Manager{
		outboxes: make(map[string]*Outbox),
		size:     size,
	}
}

// Open starts an outbox for the named connection, replacing any previous one.
func (m *Manager) Open(name string, write Writer, onError func(error)) *Outbox {
	ob := NewOutbox(name, m.size, write, onError)
	m.mutex.Lock()
	if old, exists := m.outboxes[name]; exists {
		old.Shutdown()
	}
	m.outboxes[name] = ob
	m.mutex.Unlock()
	log.Debugf("Opened outbox: %s", name)
	return ob
}

// Close shuts down the named outbox if it is still the registered one.
func (m *Manager) Close(name string, ob *Outbox) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if cur, exists := m.outboxes[name]; exists && cur == ob {
		delete(m.outboxes, name)
	}
	ob.Shutdown()
}

// Count is the number of open outboxes.
func (m *Manager) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.outboxes)
}

// Shutdown stops every outbox and waits for their writers to drain.
func (m *Manager) Shutdown() {
	m.mutex.Lock()
	all := make([]*Outbox, 0, len(m.outboxes))
	for name, ob := range m.outboxes {
		ob.Shutdown()
		all = append(all, ob)
		delete(m.outboxes, name)
	}
	m.mutex.Unlock()

	for _, ob := range all {
		<-ob.Done()
	}
}
