package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stealsplit/apps/server/internal/config"
	"stealsplit/game/opponent"
)

var testMessages = []opponent.Message{
	{Role: opponent.RoleSystem, Content: "You are playing a game of Split or Steal."},
	{Role: opponent.RoleUser, Content: "Round 1 of 200."},
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "llama3" || req.Stream || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected request body %+v", req)
		}
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{Message: ollamaMessage{Role: "assistant", Content: "Choice: Split"}})
	}))
	defer srv.Close()

	text, err := NewOllama(srv.URL+"/", "llama3", srv.Client()).Complete(context.Background(), testMessages)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "Choice: Split" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestOllamaStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "missing", srv.Client()).Complete(context.Background(), testMessages)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected body in error, got %q", err.Error())
	}
}

func TestOllamaHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := NewOllama(srv.URL, "slow", srv.Client()).Complete(ctx, testMessages); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != "grok-beta" || len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("unexpected body %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "grok-beta",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "Choice: Steal\nExplanation: test\nPrediction: split"}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewOpenAI(srv.URL+"/v1", "test-key", "grok-beta", srv.Client())
	text, err := client.Complete(context.Background(), testMessages)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !strings.HasPrefix(text, "Choice: Steal") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestOpenAIServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "k", "grok-beta", srv.Client()).Complete(context.Background(), testMessages)
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected no retries, got %d calls", calls)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := config.OracleConfig{Provider: config.ProviderOpenAI, Timeout: time.Second}
	if _, err := New(cfg); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}

	cfg.APIKey = "k"
	if c, err := New(cfg); err != nil {
		t.Fatalf("openai: %v", err)
	} else if _, ok := c.(*OpenAI); !ok {
		t.Fatalf("expected *OpenAI, got %T", c)
	}

	cfg.Provider = config.ProviderOllama
	if c, err := New(cfg); err != nil {
		t.Fatalf("ollama: %v", err)
	} else if _, ok := c.(*Ollama); !ok {
		t.Fatalf("expected *Ollama, got %T", c)
	}

	cfg.Provider = "smoke-signals"
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewOllamaFromEnvTargetsLocalhost(t *testing.T) {
	t.Setenv("ORACLE_PROVIDER", "ollama")
	cfg, err := config.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c, err := New(cfg.Oracle)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	o, ok := c.(*Ollama)
	if !ok {
		t.Fatalf("expected *Ollama, got %T", c)
	}
	if o.baseURL != config.DefaultOllamaBaseURL {
		t.Fatalf("expected %q, got %q", config.DefaultOllamaBaseURL, o.baseURL)
	}
}

func TestOracleBrainEndToEndFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	brain := opponent.NewOracleBrain(NewOllama(srv.URL, "llama3", srv.Client()), time.Second, "ollama")
	res := brain.Decide(context.Background(), opponent.RoundView{Round: 1, MaxRounds: 200})
	if !res.Degraded() {
		t.Fatalf("expected degraded result")
	}
	if !strings.Contains(res.Response.Explanation, "oracle status 502") {
		t.Fatalf("explanation should carry the status, got %q", res.Response.Explanation)
	}
}
