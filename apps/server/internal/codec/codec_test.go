package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stealsplit/game"
)

func sampleState(t *testing.T) game.State {
	t.Helper()
	s, err := game.NewSession("sess-1", game.Config{MaxRounds: 3})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := s.AppendRound(game.DecisionSteal, game.OpponentResponse{
		Choice:      game.DecisionSplit,
		Explanation: "trust",
		Prediction:  "split",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.AppendExchange("hello", "hi")
	state := s.Snapshot()
	state.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return state
}

func TestStateTapeRoundTrip(t *testing.T) {
	state := sampleState(t)
	tape, err := EncodeState(state)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeState(tape)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(state, got); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeStateDeterministic(t *testing.T) {
	state := sampleState(t)
	a, err := EncodeState(state)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := EncodeState(state)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical tapes for identical states")
	}
}

func TestDecodeStateRejectsGarbage(t *testing.T) {
	if _, err := DecodeState([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDecodeClientEnvelope(t *testing.T) {
	env, err := DecodeClientEnvelope([]byte(`{"type":"play","sessionId":"abc","payload":{"choice":"Steal"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != ClientPlay || env.SessionID != "abc" || len(env.Payload) == 0 {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if _, err := DecodeClientEnvelope([]byte(`{"sessionId":"abc"}`)); err == nil {
		t.Fatalf("expected error for missing type")
	}
	if _, err := DecodeClientEnvelope([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for bad json")
	}
}
