package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"stealsplit/apps/server/internal/config"
	"stealsplit/apps/server/internal/ledger"
	"stealsplit/apps/server/internal/lobby"
	"stealsplit/apps/server/internal/oracle"
	"stealsplit/game"
	"stealsplit/game/match"
	"stealsplit/game/opponent"
)

// app is the wired set of services shared by every subcommand.
type app struct {
	cfg         config.Config
	personas    *opponent.PersonaRegistry
	brains      *opponent.Manager
	lobby       *lobby.Lobby
	ctrl        *match.Controller
	archive     ledger.Service
	archiveMode string
	brainName   string
}

func newApp(cfg config.Config) (*app, error) {
	personas := opponent.NewRegistry()
	if cfg.Opponent.PersonasFile != "" {
		if err := personas.LoadFromFile(cfg.Opponent.PersonasFile); err != nil {
			return nil, err
		}
		log.Printf("[Server] Loaded %d personas from %s", personas.Count(), cfg.Opponent.PersonasFile)
	}

	factory, brainName, err := newBrainFactory(cfg, personas)
	if err != nil {
		return nil, err
	}
	brains := opponent.NewManager(factory, cfg.Opponent.Seed)

	lby, err := lobby.New(cfg.SessionCapacity, brains.Despawn)
	if err != nil {
		return nil, fmt.Errorf("init lobby: %w", err)
	}
	ctrl, err := match.New(game.Config{MaxRounds: cfg.MaxRounds}, lby, brains)
	if err != nil {
		return nil, fmt.Errorf("init controller: %w", err)
	}

	archive, archiveMode, err := ledger.NewService(cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("init archive (%s): %w", archiveMode, err)
	}
	ctrl.AddFinishHook(archiveHook(archive))

	return &app{
		cfg:         cfg,
		personas:    personas,
		brains:      brains,
		lobby:       lby,
		ctrl:        ctrl,
		archive:     archive,
		archiveMode: archiveMode,
		brainName:   brainName,
	}, nil
}

func (a *app) Close() error {
	return a.archive.Close()
}

// newBrainFactory returns the opponent constructor for the configured
// strategy and a name for logs.
func newBrainFactory(cfg config.Config, personas *opponent.PersonaRegistry) (opponent.BrainFactory, string, error) {
	switch cfg.Opponent.Strategy {
	case config.StrategyOracle:
		completer, err := oracle.New(cfg.Oracle)
		if err != nil {
			return nil, "", fmt.Errorf("init oracle: %w", err)
		}
		name := cfg.Oracle.Provider + ":" + cfg.Oracle.Model
		brain := opponent.NewOracleBrain(completer, cfg.Oracle.Timeout, name)
		return func(int64) opponent.Brain { return brain }, name, nil
	default:
		persona := personas.Get(cfg.Opponent.Persona)
		if persona == nil {
			return nil, "", fmt.Errorf("unknown OPPONENT_PERSONA %q", cfg.Opponent.Persona)
		}
		return func(seed int64) opponent.Brain {
			return opponent.NewScriptedBrain(persona, seed)
		}, "scripted:" + persona.ID, nil
	}
}

func archiveHook(archive ledger.Service) match.FinishHook {
	return func(info match.FinishInfo) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := archive.ArchiveGame(ctx, info.State, info.Summary); err != nil {
			log.Printf("[Archive] archive game %s failed: %v", info.State.SessionID, err)
			return
		}
		log.Printf("[Archive] Archived game %s (winner=%s)", info.State.SessionID, info.Summary.Winner)
	}
}
