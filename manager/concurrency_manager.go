package manager

import (
	"errors"
	"sync"
	"time"
)

// ErrServerFull is returned when every player slot is taken.
var ErrServerFull = errors.New("server is full")

// SlotMetrics holds the occupancy of the player slots.
type SlotMetrics struct {
	Occupied     int
	Rejected     int
	LastLogTime  time.Time
	countChanged bool
	mu           sync.Mutex
}

// SlotManager caps the number of connected players.
type SlotManager struct {
	sem      chan struct{}
	metrics  *SlotMetrics
	shutdown chan struct{}
	once     sync.Once
}

// NewSlotManager creates a manager with maxPlayers slots and starts its metrics logger.
func NewSlotManager(maxPlayers int) *SlotManager {
	if maxPlayers <= 0 {
		maxPlayers = 1
		log.Warnf("Invalid player limit, falling back to %d", maxPlayers)
	}
	sm := &SlotManager{
		sem:      make(chan struct{}, maxPlayers),
		metrics:  &SlotMetrics{},
		shutdown: make(chan struct{}),
	}
	go sm.monitorMetrics()
	return sm
}

// Acquire takes a slot without waiting. The returned release func frees it and is safe to call twice.
func (sm *SlotManager) Acquire() (func(), error) {
	select {
	case sm.sem <- struct{}{}:
		sm.metrics.incrementOccupied()
		var once sync.Once
		return func() {
			once.Do(func() {
				sm.metrics.decrementOccupied()
				<-sm.sem
			})
		}, nil
	default:
		sm.metrics.incrementRejected()
		return nil, ErrServerFull
	}
}

// Capacity is the total number of slots.
func (sm *SlotManager) Capacity() int {
	return cap(sm.sem)
}

// Occupied is the number of slots in use.
func (sm *SlotManager) Occupied() int {
	sm.metrics.mu.Lock()
	defer sm.metrics.mu.Unlock()
	return sm.metrics.Occupied
}

// Full reports whether no slot is free.
func (sm *SlotManager) Full() bool {
	return sm.Occupied() >= sm.Capacity()
}

// monitorMetrics logs changes in occupancy at most once per second.
func (sm *SlotManager) monitorMetrics() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-sm.shutdown:
			return
		case <-ticker.C:
		}

		m := sm.metrics
		m.mu.Lock()
		currentTime := time.Now()
		if m.countChanged && currentTime.Sub(m.LastLogTime) >= time.Second {
			log.Infof("Players: %d/%d | Rejected: %d", m.Occupied, sm.Capacity(), m.Rejected)
			m.LastLogTime = currentTime
			m.countChanged = false
		}
		m.mu.Unlock()
	}
}

func (m *SlotMetrics) incrementOccupied() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Occupied++
	m.countChanged = true
}

func (m *SlotMetrics) decrementOccupied() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Occupied > 0 {
		m.Occupied--
		m.countChanged = true
	}
}

func (m *SlotMetrics) incrementRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejected++
	m.countChanged = true
}

// Shutdown stops the metrics logger.
func (sm *SlotManager) Shutdown() {
	sm.once.Do(func() { close(sm.shutdown) })
}
