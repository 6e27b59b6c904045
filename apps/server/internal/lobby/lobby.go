package lobby

import (
	"log"

	lru "github.com/hashicorp/golang-lru/v2"

	"stealsplit/game"
)

const DefaultCapacity = 10000

// Lobby holds every live session, bounded by an LRU so abandoned games
// are eventually dropped.
type Lobby struct {
	sessions *lru.Cache[string, *game.Session]
	onEvict  func(id string)
}

// New creates a lobby with room for capacity sessions. onEvict, if set, is
// called with the id of every session that leaves the lobby, whether pushed
// out by capacity or deleted.
func New(capacity int, onEvict func(id string)) (*Lobby, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Lobby{onEvict: onEvict}
	cache, err := lru.NewWithEvict[string, *game.Session](capacity, l.evicted)
	if err != nil {
		return nil, err
	}
	l.sessions = cache
	return l, nil
}

func (l *Lobby) evicted(id string, s *game.Session) {
	log.Printf("[Lobby] Session %s left at round %d", id, s.CurrentRound())
	if l.onEvict != nil {
		l.onEvict(id)
	}
}

// Put stores a session, replacing any session with the same id.
func (l *Lobby) Put(s *game.Session) {
	l.sessions.Add(s.ID, s)
}

// PutIfAbsent stores s unless a session with the same id is already live.
// It returns the session the lobby holds for that id and whether it is s.
func (l *Lobby) PutIfAbsent(s *game.Session) (*game.Session, bool) {
	prev, ok, _ := l.sessions.PeekOrAdd(s.ID, s)
	if ok {
		return prev, false
	}
	return s, true
}

// Get returns a session by id and marks it recently used.
func (l *Lobby) Get(id string) (*game.Session, bool) {
	return l.sessions.Get(id)
}

func (l *Lobby) Delete(id string) {
	l.sessions.Remove(id)
}

func (l *Lobby) Len() int {
	return l.sessions.Len()
}

// ListSessions returns live session ids, oldest first.
func (l *Lobby) ListSessions() []string {
	return l.sessions.Keys()
}
