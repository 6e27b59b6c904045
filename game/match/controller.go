// Package match drives live Steal or Split sessions: it asks the opponent
// for its move, records the round and hands finished games off.
package match

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"stealsplit/game"
	"stealsplit/game/opponent"
)

// Registry stores live sessions. Implementations must be safe for
// concurrent use.
type Registry interface {
	// PutIfAbsent stores s unless its id is taken, and returns the stored
	// session together with whether it is s.
	PutIfAbsent(s *game.Session) (*game.Session, bool)
	Get(id string) (*game.Session, bool)
	Delete(id string)
}

// FinishInfo is emitted once when a session plays its last round.
type FinishInfo struct {
	State   game.State
	Summary game.Summary
}

// FinishHook is a post-game callback.
type FinishHook func(info FinishInfo)

// RoundOutcome is the result of one played round.
type RoundOutcome struct {
	Record   game.RoundRecord
	State    game.State
	Finished bool
	// OracleErr is set when the opponent's move is a fallback.
	OracleErr error
}

// Controller orchestrates rounds and chat for every live session.
type Controller struct {
	cfg      game.Config
	registry Registry
	brains   *opponent.Manager

	mu    sync.RWMutex
	hooks []FinishHook

	newID func() string
}

// New creates a controller. Sessions live in registry; opponents come from
// brains.
func New(cfg game.Config, registry Registry, brains *opponent.Manager) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil || brains == nil {
		return nil, fmt.Errorf("match: registry and brains are required")
	}
	return &Controller{
		cfg:      cfg,
		registry: registry,
		brains:   brains,
		newID:    uuid.NewString,
	}, nil
}

func (c *Controller) Config() game.Config { return c.cfg }

// AddFinishHook registers a callback fired when a session finishes.
func (c *Controller) AddFinishHook(hook FinishHook) {
	if hook == nil {
		return
	}
	c.mu.Lock()
	c.hooks = append(c.hooks, hook)
	c.mu.Unlock()
}

// StartNewSession discards previousID (if any) and opens a fresh session at
// round 1.
func (c *Controller) StartNewSession(previousID string) *game.Session {
	if previousID != "" {
		c.discard(previousID)
	}
	for {
		id := c.newID()
		s, err := game.NewSession(id, c.cfg)
		if err != nil {
			// cfg was validated in New and ids are never empty.
			panic(fmt.Sprintf("match: new session: %v", err))
		}
		if _, stored := c.registry.PutIfAbsent(s); !stored {
			continue
		}
		c.brains.Spawn(id)
		log.Printf("[Match] Session %s started (max rounds %d)", id, c.cfg.MaxRounds)
		return s
	}
}

func (c *Controller) discard(id string) {
	if _, ok := c.registry.Get(id); !ok {
		return
	}
	c.registry.Delete(id)
	c.brains.Despawn(id)
	log.Printf("[Match] Session %s discarded", id)
}

// Session looks up a live session.
func (c *Controller) Session(id string) (*game.Session, bool) {
	return c.registry.Get(id)
}

// RestoreSession registers a session rebuilt from a client-held history and
// chat log. An existing live session with the same id wins, including one
// restored concurrently.
func (c *Controller) RestoreSession(id string, history []game.RoundRecord, chat []game.ChatTurn) (*game.Session, error) {
	if s, ok := c.registry.Get(id); ok {
		return s, nil
	}
	s, err := game.RestoreSession(id, c.cfg, history, chat)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}
	if live, stored := c.registry.PutIfAbsent(s); !stored {
		return live, nil
	}
	c.brains.Spawn(id)
	log.Printf("[Match] Session %s restored at round %d", id, s.CurrentRound())
	return s, nil
}

// PlayRound resolves one round for the session. The returned record is
// valid whether or not the round ended the game.
func (c *Controller) PlayRound(ctx context.Context, sessionID string, choice game.Decision) (RoundOutcome, error) {
	if !choice.Valid() {
		return RoundOutcome{}, fmt.Errorf("%w: %v", game.ErrInvalidDecision, choice)
	}
	s, err := c.acquire(sessionID)
	if err != nil {
		return RoundOutcome{}, err
	}
	defer s.Release()

	if s.Finished() {
		return RoundOutcome{}, game.ErrSessionFinished
	}

	view := opponent.RoundView{
		SessionID:  s.ID,
		Round:      s.CurrentRound(),
		MaxRounds:  s.MaxRounds(),
		History:    s.History(),
		Chat:       s.ChatLog(),
		UserChoice: choice,
	}
	res := c.brains.Brain(s.ID).Decide(ctx, view)
	if res.Degraded() {
		log.Printf("[Match] Session %s round %d: opponent fallback: %v", s.ID, view.Round, res.Err)
	}

	record, err := s.AppendRound(choice, res.Response)
	if err != nil {
		return RoundOutcome{}, fmt.Errorf("append round: %w", err)
	}

	out := RoundOutcome{
		Record:    record,
		State:     s.Snapshot(),
		Finished:  s.Finished(),
		OracleErr: res.Err,
	}
	if out.Finished {
		log.Printf("[Match] Session %s finished: user=%d opponent=%d", s.ID, record.UserScore, record.OpponentScore)
		c.dispatchFinishHooks(FinishInfo{State: out.State, Summary: s.Summarize()})
	}
	return out, nil
}

// SendMessage forwards a chat message to the session's opponent. The user
// turn and the reply are recorded together, and only on success.
func (c *Controller) SendMessage(ctx context.Context, sessionID, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", game.ErrInvalidState("empty chat message")
	}
	s, err := c.acquire(sessionID)
	if err != nil {
		return "", err
	}
	defer s.Release()

	reply, err := c.brains.Brain(s.ID).Reply(ctx, opponent.ChatRequest{
		SessionID: s.ID,
		Message:   text,
		History:   s.History(),
		Chat:      s.ChatLog(),
	})
	if err != nil {
		log.Printf("[Match] Session %s chat failed: %v", s.ID, err)
		return "", err
	}
	s.AppendExchange(text, reply)
	return reply, nil
}

func (c *Controller) acquire(sessionID string) (*game.Session, error) {
	s, ok := c.registry.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if !s.Acquire() {
		return nil, game.ErrSessionBusy
	}
	return s, nil
}

func (c *Controller) dispatchFinishHooks(info FinishInfo) {
	c.mu.RLock()
	hooks := append([]FinishHook(nil), c.hooks...)
	c.mu.RUnlock()

	for _, hook := range hooks {
		go func(cb FinishHook) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Match] finish hook panic for session %s: %v", info.State.SessionID, r)
				}
			}()
			cb(info)
		}(hook)
	}
}
