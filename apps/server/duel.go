package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stealsplit/game"
	"stealsplit/game/match"
	"stealsplit/game/opponent"
)

var (
	duelRounds     int
	duelChallenger string
	duelSeed       int64
)

var duelCmd = &cobra.Command{
	Use:   "duel",
	Short: "Pit the configured opponent against a scripted persona",
	RunE:  runDuel,
}

func init() {
	duelCmd.Flags().IntVar(&duelRounds, "rounds", 10, "Number of rounds")
	duelCmd.Flags().StringVar(&duelChallenger, "challenger", opponent.DefaultPersonaID, "Persona id playing the user's seat")
	duelCmd.Flags().Int64Var(&duelSeed, "seed", 1, "Seed for the challenger")
}

func runDuel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if duelRounds > 0 {
		cfg.MaxRounds = duelRounds
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	persona := a.personas.Get(duelChallenger)
	if persona == nil {
		return fmt.Errorf("unknown challenger persona %q", duelChallenger)
	}
	challenger := opponent.NewScriptedBrain(persona, duelSeed)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sum, err := runDuelGame(ctx, a.ctrl, challenger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s vs %s: %d-%d, winner %s\n",
		challenger.Name(), a.brainName, sum.UserScore, sum.OpponentScore, sum.Winner)
	return nil
}

// runDuelGame plays a whole session with challenger in the user's seat. The
// challenger sees the history from its own side.
func runDuelGame(ctx context.Context, ctrl *match.Controller, challenger opponent.Decider, out io.Writer) (game.Summary, error) {
	s := ctrl.StartNewSession("")
	for !s.Finished() {
		view := opponent.RoundView{
			SessionID: s.ID,
			Round:     s.CurrentRound(),
			MaxRounds: s.MaxRounds(),
			History:   opponent.MirrorHistory(s.History()),
		}
		move := challenger.Decide(ctx, view).Response.Choice
		res, err := ctrl.PlayRound(ctx, s.ID, move)
		if err != nil {
			return game.Summary{}, err
		}
		r := res.Record
		fmt.Fprintf(out, "Round %3d: %-5s vs %-5s  %4d-%d\n", r.Round, r.UserChoice, r.OpponentChoice, r.UserScore, r.OpponentScore)
	}
	return s.Summarize(), nil
}
