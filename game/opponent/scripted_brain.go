package opponent

import (
	"context"
	"math/rand"
	"sync"

	"stealsplit/game"
)

// ScriptedBrain draws its decision from the persona's fixed split
// probability. History is ignored.
type ScriptedBrain struct {
	Persona *Persona

	mu  sync.Mutex
	rng *rand.Rand
}

// NewScriptedBrain creates a ScriptedBrain from a persona definition.
func NewScriptedBrain(persona *Persona, seed int64) *ScriptedBrain {
	if persona == nil {
		persona = DefaultPersona()
	}
	return &ScriptedBrain{
		Persona: persona.withDefaults(),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (b *ScriptedBrain) Name() string { return b.Persona.Name }

// Decide implements Decider. It never fails.
func (b *ScriptedBrain) Decide(_ context.Context, _ RoundView) Result {
	b.mu.Lock()
	roll := b.rng.Float64()
	b.mu.Unlock()

	if roll < b.Persona.SplitProbability {
		return Result{Response: game.OpponentResponse{
			Choice:      game.DecisionSplit,
			Explanation: b.Persona.SplitExplanation,
			Prediction:  b.Persona.Prediction,
		}}
	}
	return Result{Response: game.OpponentResponse{
		Choice:      game.DecisionSteal,
		Explanation: b.Persona.StealExplanation,
		Prediction:  b.Persona.Prediction,
	}}
}

// Reply implements Chatter with a random line of persona banter.
func (b *ScriptedBrain) Reply(_ context.Context, _ ChatRequest) (string, error) {
	b.mu.Lock()
	idx := b.rng.Intn(len(b.Persona.Banter))
	b.mu.Unlock()
	return b.Persona.Banter[idx], nil
}
