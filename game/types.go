package game

import (
	"fmt"
	"strings"
	"time"
)

// Decision is a player's choice for one round.
type Decision byte

const (
	DecisionNone  Decision = 0
	DecisionSplit Decision = 1
	DecisionSteal Decision = 2
)

var DecisionDictionary = map[Decision]string{
	DecisionNone:  "None",
	DecisionSplit: "Split",
	DecisionSteal: "Steal",
}

const (
	DefaultMaxRounds = 200
)

func (d Decision) String() string {
	if s, ok := DecisionDictionary[d]; ok {
		return s
	}
	return fmt.Sprintf("Decision(%d)", byte(d))
}

// Valid reports whether d is Split or Steal.
func (d Decision) Valid() bool {
	return d == DecisionSplit || d == DecisionSteal
}

// ParseDecision accepts "split" or "steal" in any case.
func ParseDecision(raw string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "split":
		return DecisionSplit, nil
	case "steal":
		return DecisionSteal, nil
	default:
		return DecisionNone, fmt.Errorf("%w: %q", ErrInvalidDecision, raw)
	}
}

func (d Decision) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDecision, byte(d))
	}
	return []byte(d.String()), nil
}

func (d *Decision) UnmarshalText(text []byte) error {
	parsed, err := ParseDecision(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// OpponentResponse is the opponent's structured answer for one round.
type OpponentResponse struct {
	Choice      Decision `json:"llmChoice"`
	Explanation string   `json:"explanation"`
	Prediction  string   `json:"prediction"`
}

// RoundRecord is one resolved round. Score fields after the deltas are
// running totals including this round.
type RoundRecord struct {
	Round          int      `json:"round"`
	UserChoice     Decision `json:"userChoice"`
	OpponentChoice Decision `json:"llmChoice"`
	Explanation    string   `json:"explanation"`
	Prediction     string   `json:"prediction"`
	UserDelta      int      `json:"userDelta"`
	OpponentDelta  int      `json:"llmDelta"`
	UserScore      int      `json:"userScore"`
	OpponentScore  int      `json:"llmScore"`
}

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser     Role = "user"
	RoleOpponent Role = "opponent"
)

func (r *Role) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "user":
		*r = RoleUser
	case "opponent", "assistant", "ai", "llm":
		*r = RoleOpponent
	default:
		return fmt.Errorf("unknown chat role %q", string(text))
	}
	return nil
}

// ChatTurn is one message on the side-channel.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is a point-in-time copy of a session, suitable for the end-of-game
// hand-off.
type State struct {
	SessionID     string        `json:"sessionId"`
	Round         int           `json:"round"`
	MaxRounds     int           `json:"maxRounds"`
	UserScore     int           `json:"userScore"`
	OpponentScore int           `json:"llmScore"`
	History       []RoundRecord `json:"history"`
	ChatLog       []ChatTurn    `json:"chatHistory"`
	Finished      bool          `json:"finished"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Summary aggregates a session's history.
type Summary struct {
	RoundsPlayed   int    `json:"roundsPlayed"`
	UserSplits     int    `json:"userSplits"`
	UserSteals     int    `json:"userSteals"`
	OpponentSplits int    `json:"llmSplits"`
	OpponentSteals int    `json:"llmSteals"`
	UserScore      int    `json:"userScore"`
	OpponentScore  int    `json:"llmScore"`
	Winner         string `json:"winner"`
}

const (
	WinnerUser     = "user"
	WinnerOpponent = "opponent"
	WinnerTie      = "tie"
)
