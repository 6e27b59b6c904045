package opponent

import (
	"context"
	"errors"
	"fmt"

	"stealsplit/game"
)

// RoundView is the read-only projection of a session handed to a brain when
// the opponent has to decide.
type RoundView struct {
	SessionID  string
	Round      int
	MaxRounds  int
	History    []game.RoundRecord
	Chat       []game.ChatTurn
	UserChoice game.Decision
}

// ChatRequest carries one side-channel message plus the context around it.
type ChatRequest struct {
	SessionID string
	Message   string
	History   []game.RoundRecord
	Chat      []game.ChatTurn
}

// Result is what a Decider returns. Response is always usable. Err is set
// when Response is a fallback standing in for a failed or malformed oracle
// answer.
type Result struct {
	Response game.OpponentResponse
	Err      error
}

// Degraded reports whether the response is a fallback.
func (r Result) Degraded() bool { return r.Err != nil }

// Decider picks the opponent's move for a round.
type Decider interface {
	Decide(ctx context.Context, view RoundView) Result
}

// Chatter answers side-channel messages.
type Chatter interface {
	Reply(ctx context.Context, req ChatRequest) (string, error)
}

// Brain is the core interface every opponent type implements.
type Brain interface {
	Decider
	Chatter
	// Name returns a human-readable identifier for debugging.
	Name() string
}

const (
	FallbackExplanation = "No explanation provided"
	FallbackPrediction  = "No explanation was made."
	ErrorPrediction     = "Unable to make prediction due to error."
)

var (
	ErrEmptyResponse     = errors.New("empty oracle response")
	ErrMalformedResponse = errors.New("oracle response has no choice line")
)

// FallbackResult is the safe default used when the oracle cannot be reached:
// the opponent splits and the explanation names the failure.
func FallbackResult(err error) Result {
	return Result{
		Response: game.OpponentResponse{
			Choice:      game.DecisionSplit,
			Explanation: fmt.Sprintf("Error occurred: %v. Defaulting to Split.", err),
			Prediction:  ErrorPrediction,
		},
		Err: err,
	}
}
