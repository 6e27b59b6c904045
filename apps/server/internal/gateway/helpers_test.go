package gateway

import (
	"context"
	"errors"
	"testing"

	"stealsplit/apps/server/internal/lobby"
	"stealsplit/game"
	"stealsplit/game/match"
	"stealsplit/game/opponent"
)

// dove always splits.
func dovePersona() *opponent.Persona {
	return &opponent.Persona{ID: "dove", Name: "Dove", SplitProbability: 1, Banter: []string{"Peace."}}
}

type failingBrain struct{}

func (failingBrain) Name() string { return "failing" }

func (failingBrain) Decide(_ context.Context, _ opponent.RoundView) opponent.Result {
	return opponent.FallbackResult(errors.New("oracle unreachable"))
}

func (failingBrain) Reply(_ context.Context, _ opponent.ChatRequest) (string, error) {
	return "", errors.New("oracle unreachable")
}

func newTestController(t *testing.T, maxRounds int, factory opponent.BrainFactory) *match.Controller {
	t.Helper()
	if factory == nil {
		factory = func(seed int64) opponent.Brain { return opponent.NewScriptedBrain(dovePersona(), seed) }
	}
	brains := opponent.NewManager(factory, 1)
	lby, err := lobby.New(64, brains.Despawn)
	if err != nil {
		t.Fatalf("new lobby: %v", err)
	}
	ctrl, err := match.New(game.Config{MaxRounds: maxRounds}, lby, brains)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl
}

// ctxBrain splits while its context is live and reports the cancellation
// otherwise.
type ctxBrain struct{}

func (ctxBrain) Name() string { return "ctx" }

func (ctxBrain) Decide(ctx context.Context, _ opponent.RoundView) opponent.Result {
	if err := ctx.Err(); err != nil {
		return opponent.FallbackResult(err)
	}
	return opponent.Result{Response: game.OpponentResponse{Choice: game.DecisionSteal, Explanation: "live", Prediction: "live"}}
}

func (ctxBrain) Reply(ctx context.Context, _ opponent.ChatRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "live", nil
}
