package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stealsplit/game"
	"stealsplit/game/opponent"
)

func newMux(t *testing.T, maxRounds int, factory opponent.BrainFactory) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewHTTPHandler(newTestController(t, maxRounds, factory)).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestInteractPlaysRounds(t *testing.T) {
	mux := newMux(t, 200, nil)

	rec := do(t, mux, http.MethodPost, "/api/llm-interact", map[string]any{"userChoice": "Steal"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	first := decode[interactResponse](t, rec)
	if first.SessionID == "" || first.Round != 1 {
		t.Fatalf("unexpected first response %+v", first)
	}
	if first.LLMChoice != game.DecisionSplit || first.UserScore != 10 || first.LLMScore != 0 || first.GameOver {
		t.Fatalf("expected Steal/Split at 10/0, got %+v", first)
	}

	rec = do(t, mux, http.MethodPost, "/api/llm-interact", map[string]any{"userChoice": "split", "sessionId": first.SessionID})
	second := decode[interactResponse](t, rec)
	if second.Round != 2 || second.UserScore != 15 || second.LLMScore != 5 {
		t.Fatalf("unexpected second response %+v", second)
	}
}

func TestInteractRejectsBadInput(t *testing.T) {
	mux := newMux(t, 200, nil)

	if rec := do(t, mux, http.MethodGet, "/api/llm-interact", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodPost, "/api/llm-interact", map[string]any{"userChoice": "Share"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown choice, got %d", rec.Code)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/llm-interact", bytes.NewBufferString("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestInteractFinishedSessionConflicts(t *testing.T) {
	mux := newMux(t, 1, nil)
	first := decode[interactResponse](t, do(t, mux, http.MethodPost, "/api/llm-interact", map[string]any{"userChoice": "Split"}))
	if !first.GameOver {
		t.Fatalf("expected game over after the only round")
	}
	rec := do(t, mux, http.MethodPost, "/api/llm-interact", map[string]any{"userChoice": "Split", "sessionId": first.SessionID})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestInteractRebuildsUnknownSessionFromHistory(t *testing.T) {
	mux := newMux(t, 200, nil)
	body := map[string]any{
		"userChoice": "Split",
		"sessionId":  "client-held",
		"gameHistory": []map[string]any{
			{"round": 1, "userChoice": "Steal", "llmChoice": "Split", "userScore": 0, "llmScore": 0, "timestamp": "ignored"},
		},
	}
	rec := do(t, mux, http.MethodPost, "/api/llm-interact", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[interactResponse](t, rec)
	if got.SessionID != "client-held" || got.Round != 2 || got.UserScore != 15 || got.LLMScore != 5 {
		t.Fatalf("expected rebuilt session at round 2 with 15/5, got %+v", got)
	}
}

func TestInteractOracleFailureStillPlays(t *testing.T) {
	mux := newMux(t, 200, func(int64) opponent.Brain { return failingBrain{} })
	rec := do(t, mux, http.MethodPost, "/api/llm-interact", map[string]any{"userChoice": "Steal"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[interactResponse](t, rec)
	if got.LLMChoice != game.DecisionSplit || got.Prediction != opponent.ErrorPrediction {
		t.Fatalf("expected fallback response, got %+v", got)
	}
}

func TestInteractSurvivesClientCancel(t *testing.T) {
	mux := newMux(t, 200, func(int64) opponent.Brain { return ctxBrain{} })

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]any{"userChoice": "Split"}); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/llm-interact", &buf).WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[interactResponse](t, rec)
	if resp.LLMChoice != game.DecisionSteal || resp.Explanation != "live" {
		t.Fatalf("expected the opponent to decide under a live context, got %+v", resp)
	}
}

func TestChat(t *testing.T) {
	mux := newMux(t, 200, nil)
	session := decode[game.State](t, do(t, mux, http.MethodPost, "/api/sessions", nil))

	rec := do(t, mux, http.MethodPost, "/api/chat", map[string]any{"message": "will you split?", "sessionId": session.SessionID})
	if got := decode[chatResponse](t, rec); got.Response != "Peace." {
		t.Fatalf("unexpected chat reply %q", got.Response)
	}

	state := decode[game.State](t, do(t, mux, http.MethodGet, "/api/sessions/"+session.SessionID, nil))
	if len(state.ChatLog) != 2 || state.Round != 1 {
		t.Fatalf("expected two chat turns and no round change, got %+v", state)
	}

	if rec := do(t, mux, http.MethodGet, "/api/chat", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestChatFailureReturnsApology(t *testing.T) {
	mux := newMux(t, 200, func(int64) opponent.Brain { return failingBrain{} })
	rec := do(t, mux, http.MethodPost, "/api/chat", map[string]any{"message": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[chatResponse](t, rec); got.Response != ChatApology {
		t.Fatalf("expected apology, got %q", got.Response)
	}
}

func TestSessionsEndpoints(t *testing.T) {
	mux := newMux(t, 200, nil)
	first := decode[game.State](t, do(t, mux, http.MethodPost, "/api/sessions", nil))
	if first.Round != 1 || first.MaxRounds != 200 {
		t.Fatalf("unexpected new session %+v", first)
	}

	second := decode[game.State](t, do(t, mux, http.MethodPost, "/api/sessions", map[string]any{"previousSessionId": first.SessionID}))
	if second.SessionID == first.SessionID {
		t.Fatalf("expected a distinct session id")
	}
	if rec := do(t, mux, http.MethodGet, "/api/sessions/"+first.SessionID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected previous session to be gone, got %d", rec.Code)
	}

	do(t, mux, http.MethodPost, "/api/llm-interact", map[string]any{"userChoice": "Split", "sessionId": second.SessionID})
	summary := decode[summaryResponse](t, do(t, mux, http.MethodGet, "/api/sessions/"+second.SessionID+"/summary", nil))
	if summary.Summary.RoundsPlayed != 1 || summary.Summary.UserSplits != 1 || summary.State.UserScore != 5 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if rec := do(t, mux, http.MethodGet, "/api/sessions/"+second.SessionID+"/bogus", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodPost, "/api/sessions", map[string]any{"unexpected": true}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
