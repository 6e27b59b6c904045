package opponent

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

// BrainFactory builds a fresh brain for one session. The seed is only
// meaningful to brains with randomness.
type BrainFactory func(seed int64) Brain

// Instance is the opponent bound to one session.
type Instance struct {
	SessionID string
	Brain     Brain
	SpawnedAt time.Time
}

// Manager tracks one opponent instance per live session.
type Manager struct {
	factory   BrainFactory
	instances map[string]*Instance // keyed by session ID
	mu        sync.RWMutex
	rng       *rand.Rand
}

// NewManager creates a manager. A zero seed derives seeds from the clock.
func NewManager(factory BrainFactory, seed int64) *Manager {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Manager{
		factory:   factory,
		instances: make(map[string]*Instance),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Spawn binds a new brain to the session, replacing any existing one.
func (m *Manager) Spawn(sessionID string) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spawnLocked(sessionID)
}

func (m *Manager) spawnLocked(sessionID string) *Instance {
	inst := &Instance{
		SessionID: sessionID,
		Brain:     m.factory(m.rng.Int63()),
		SpawnedAt: time.Now(),
	}
	m.instances[sessionID] = inst
	log.Printf("[Opponent] Spawned %s for session %s", inst.Brain.Name(), sessionID)
	return inst
}

// Brain returns the session's brain. A session with no tracked instance
// (e.g. one evicted mid-round) gets a fresh brain that is not registered.
func (m *Manager) Brain(sessionID string) Brain {
	m.mu.RLock()
	inst := m.instances[sessionID]
	m.mu.RUnlock()
	if inst != nil {
		return inst.Brain
	}

	m.mu.Lock()
	seed := m.rng.Int63()
	m.mu.Unlock()
	log.Printf("[Opponent] No brain tracked for session %s, using an untracked one", sessionID)
	return m.factory(seed)
}

// Instance returns the tracked instance or nil.
func (m *Manager) Instance(sessionID string) *Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[sessionID]
}

// Despawn removes a session's opponent from tracking.
func (m *Manager) Despawn(sessionID string) {
	m.mu.Lock()
	inst := m.instances[sessionID]
	delete(m.instances, sessionID)
	m.mu.Unlock()

	if inst != nil {
		log.Printf("[Opponent] Despawned %s for session %s", inst.Brain.Name(), sessionID)
	}
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}
