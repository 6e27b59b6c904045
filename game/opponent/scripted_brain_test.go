package opponent

import (
	"context"
	"testing"

	"stealsplit/game"
)

var (
	_ Brain = (*ScriptedBrain)(nil)
	_ Brain = (*OracleBrain)(nil)
)

func TestScriptedBrainSplitRateTracksPersona(t *testing.T) {
	brain := NewScriptedBrain(DefaultPersona(), 42)

	const rounds = 4000
	splits := 0
	for i := 0; i < rounds; i++ {
		res := brain.Decide(context.Background(), RoundView{Round: i + 1, MaxRounds: rounds})
		if res.Degraded() {
			t.Fatalf("scripted brain should never degrade, got %v", res.Err)
		}
		switch res.Response.Choice {
		case game.DecisionSplit:
			splits++
			if res.Response.Explanation != brain.Persona.SplitExplanation {
				t.Fatalf("unexpected split explanation %q", res.Response.Explanation)
			}
		case game.DecisionSteal:
			if res.Response.Explanation != brain.Persona.StealExplanation {
				t.Fatalf("unexpected steal explanation %q", res.Response.Explanation)
			}
		default:
			t.Fatalf("unexpected decision %v", res.Response.Choice)
		}
	}

	rate := float64(splits) / float64(rounds)
	if rate < 0.65 || rate > 0.75 {
		t.Fatalf("split rate out of range: got %.3f, want ~0.70", rate)
	}
}

func TestScriptedBrainExtremes(t *testing.T) {
	always := NewScriptedBrain(&Persona{ID: "dove", SplitProbability: 1}, 1)
	never := NewScriptedBrain(&Persona{ID: "hawk", SplitProbability: 0}, 1)

	for i := 0; i < 200; i++ {
		if got := always.Decide(context.Background(), RoundView{}).Response.Choice; got != game.DecisionSplit {
			t.Fatalf("dove: expected Split, got %v", got)
		}
		if got := never.Decide(context.Background(), RoundView{}).Response.Choice; got != game.DecisionSteal {
			t.Fatalf("hawk: expected Steal, got %v", got)
		}
	}
}

func TestScriptedBrainSameSeedSameSequence(t *testing.T) {
	a := NewScriptedBrain(DefaultPersona(), 7)
	b := NewScriptedBrain(DefaultPersona(), 7)
	for i := 0; i < 100; i++ {
		ca := a.Decide(context.Background(), RoundView{}).Response.Choice
		cb := b.Decide(context.Background(), RoundView{}).Response.Choice
		if ca != cb {
			t.Fatalf("round %d: expected identical sequences, got %v and %v", i, ca, cb)
		}
	}
}

func TestScriptedBrainReplyUsesBanter(t *testing.T) {
	brain := NewScriptedBrain(&Persona{ID: "quiet", Banter: []string{"..."}}, 3)
	reply, err := brain.Reply(context.Background(), ChatRequest{Message: "hello?"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != "..." {
		t.Fatalf("expected banter line, got %q", reply)
	}
}
