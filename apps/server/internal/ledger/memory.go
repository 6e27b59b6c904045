package ledger

import (
	"context"
	"strings"
	"sync"

	"stealsplit/game"
)

// MemoryService keeps the most recent archived games in process memory.
type MemoryService struct {
	mu          sync.RWMutex
	recentLimit int
	order       []string // oldest first
	records     map[string]GameRecord
	tapes       map[string][]byte
}

func NewMemoryService(recentLimit int) *MemoryService {
	return &MemoryService{
		recentLimit: recentLimit,
		records:     make(map[string]GameRecord),
		tapes:       make(map[string][]byte),
	}
}

func (s *MemoryService) Close() error { return nil }

func (s *MemoryService) ArchiveGame(_ context.Context, state game.State, summary game.Summary) error {
	entry, err := newArchiveEntry(state, summary)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := entry.record.GameID
	if _, exists := s.records[id]; exists {
		s.removeLocked(id)
	}
	s.order = append(s.order, id)
	s.records[id] = entry.record
	s.tapes[id] = entry.tape

	for s.recentLimit > 0 && len(s.order) > s.recentLimit {
		s.removeLocked(s.order[0])
	}
	return nil
}

func (s *MemoryService) removeLocked(id string) {
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	delete(s.records, id)
	delete(s.tapes, id)
}

func (s *MemoryService) ListRecent(_ context.Context, limit int) ([]GameRecord, error) {
	limit = clampLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]GameRecord, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(items) < limit; i-- {
		items = append(items, s.records[s.order[i]])
	}
	return items, nil
}

func (s *MemoryService) GetGame(_ context.Context, gameID string) (*GameDetail, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	rec, ok := s.records[gameID]
	tape := s.tapes[gameID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeDetail(rec, tape)
}
