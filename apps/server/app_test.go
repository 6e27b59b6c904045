package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"stealsplit/apps/server/internal/config"
	"stealsplit/game"
	"stealsplit/game/opponent"
)

func testConfig(maxRounds int) config.Config {
	return config.Config{
		Addr:            ":0",
		MaxRounds:       maxRounds,
		SessionCapacity: 16,
		Opponent: config.OpponentConfig{
			Strategy: config.StrategyScripted,
			Persona:  opponent.DefaultPersonaID,
			Seed:     7,
		},
		Oracle: config.OracleConfig{
			Provider: config.ProviderOpenAI,
			Timeout:  time.Second,
		},
		Archive: config.ArchiveConfig{Mode: config.ArchiveModeMemory},
	}
}

func TestNewBrainFactory(t *testing.T) {
	personas := opponent.NewRegistry()

	cfg := testConfig(10)
	factory, name, err := newBrainFactory(cfg, personas)
	if err != nil {
		t.Fatalf("scripted: %v", err)
	}
	if name != "scripted:default" {
		t.Fatalf("unexpected name %q", name)
	}
	if _, ok := factory(1).(*opponent.ScriptedBrain); !ok {
		t.Fatalf("expected scripted brain")
	}

	cfg.Opponent.Persona = "ghost"
	if _, _, err := newBrainFactory(cfg, personas); err == nil {
		t.Fatalf("expected error for unknown persona")
	}

	cfg = testConfig(10)
	cfg.Opponent.Strategy = config.StrategyOracle
	if _, _, err := newBrainFactory(cfg, personas); err == nil {
		t.Fatalf("expected error for oracle without API key")
	}
	cfg.Oracle.APIKey = "k"
	cfg.Oracle.Model = "grok-beta"
	factory, name, err = newBrainFactory(cfg, personas)
	if err != nil {
		t.Fatalf("oracle: %v", err)
	}
	if name != "openai:grok-beta" {
		t.Fatalf("unexpected name %q", name)
	}
	if _, ok := factory(1).(*opponent.OracleBrain); !ok {
		t.Fatalf("expected oracle brain")
	}
}

func TestFinishedGamesAreArchived(t *testing.T) {
	a, err := newApp(testConfig(3))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	var out bytes.Buffer
	input := strings.NewReader("split\nsay hello\nsteal\nbogus\nsplit\n")
	if err := playLoop(context.Background(), a.ctrl, input, &out, false); err != nil {
		t.Fatalf("play: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Round 3:") || !strings.Contains(text, "Winner:") {
		t.Fatalf("unexpected output:\n%s", text)
	}
	if !strings.Contains(text, `unknown command "bogus"`) {
		t.Fatalf("expected unknown command notice:\n%s", text)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		items, err := a.archive.ListRecent(context.Background(), 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(items) == 1 {
			if items[0].Rounds != 3 {
				t.Fatalf("expected 3 archived rounds, got %d", items[0].Rounds)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("finished game was not archived")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunDuelGame(t *testing.T) {
	a, err := newApp(testConfig(20))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	hawk := opponent.NewScriptedBrain(&opponent.Persona{ID: "hawk", SplitProbability: 0}, 1)
	var out bytes.Buffer
	sum, err := runDuelGame(context.Background(), a.ctrl, hawk, &out)
	if err != nil {
		t.Fatalf("duel: %v", err)
	}
	if sum.RoundsPlayed != 20 || sum.UserSteals != 20 || sum.OpponentScore != 0 {
		t.Fatalf("unexpected duel summary %+v", sum)
	}
	if sum.Winner == game.WinnerOpponent {
		t.Fatalf("an always-steal challenger cannot lose")
	}
}
