package game

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Session is one live game: its ledger plus the chat side-channel.
//
// Mutations are expected from a single caller at a time; Acquire/Release
// enforce that. The RWMutex only protects readers (snapshots, summaries)
// that run concurrently with the owner of the session.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.RWMutex
	ledger *Ledger
	chat   []ChatTurn

	inFlight atomic.Bool
}

// NewSession creates an empty session at round 1.
func NewSession(id string, cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidState("empty session id")
	}
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		ledger:    NewLedger(cfg.MaxRounds),
	}, nil
}

// RestoreSession creates a session whose ledger and chat are rebuilt from a
// client-held copy of the game.
func RestoreSession(id string, cfg Config, history []RoundRecord, chat []ChatTurn) (*Session, error) {
	s, err := NewSession(id, cfg)
	if err != nil {
		return nil, err
	}
	ledger, err := ReplayLedger(cfg.MaxRounds, history)
	if err != nil {
		return nil, err
	}
	s.ledger = ledger
	s.chat = append([]ChatTurn(nil), chat...)
	return s, nil
}

// Acquire marks the session busy. It returns false if another operation is
// already in flight.
func (s *Session) Acquire() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

func (s *Session) Release() {
	s.inFlight.Store(false)
}

func (s *Session) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Finished()
}

func (s *Session) CurrentRound() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.CurrentRound()
}

func (s *Session) MaxRounds() int {
	return s.ledger.MaxRounds()
}

func (s *Session) History() []RoundRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.History()
}

func (s *Session) ChatLog() []ChatTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ChatTurn(nil), s.chat...)
}

// AppendRound records a resolved round. See Ledger.Append.
func (s *Session) AppendRound(userChoice Decision, resp OpponentResponse) (RoundRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Append(userChoice, resp)
}

// AppendExchange records a user message and the opponent's reply together.
func (s *Session) AppendExchange(message, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat,
		ChatTurn{Role: RoleUser, Content: message},
		ChatTurn{Role: RoleOpponent, Content: reply},
	)
}

func (s *Session) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Summarize()
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, opponent := s.ledger.Scores()
	return State{
		SessionID:     s.ID,
		Round:         s.ledger.CurrentRound(),
		MaxRounds:     s.ledger.MaxRounds(),
		UserScore:     user,
		OpponentScore: opponent,
		History:       s.ledger.History(),
		ChatLog:       append([]ChatTurn{}, s.chat...),
		Finished:      s.ledger.Finished(),
		CreatedAt:     s.CreatedAt,
	}
}
