package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stealsplit/game"
	"stealsplit/game/match"
)

var playRounds int

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game in the terminal against the configured opponent",
	Long: `Play reads one command per line:
  split | steal      play a round
  say <message>      chat with the opponent
  score              show the running score
  quit               stop early`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVar(&playRounds, "rounds", 0, "Number of rounds (overrides STEALSPLIT_MAX_ROUNDS)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if playRounds > 0 {
		cfg.MaxRounds = playRounds
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	return playLoop(cmd.Context(), a.ctrl, os.Stdin, cmd.OutOrStdout(), interactive)
}

func playLoop(ctx context.Context, ctrl *match.Controller, in io.Reader, out io.Writer, interactive bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s := ctrl.StartNewSession("")
	fmt.Fprintf(out, "Session %s: %d rounds. Type split, steal, say <message> or quit.\n", s.ID, s.MaxRounds())

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprintf(out, "[round %d] > ", s.CurrentRound())
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		cmdWord, rest, _ := strings.Cut(line, " ")

		switch strings.ToLower(cmdWord) {
		case "":
			continue
		case "quit", "exit":
			printSummary(out, s.Summarize())
			return nil
		case "score":
			printSummary(out, s.Summarize())
		case "say":
			reply, err := ctrl.SendMessage(ctx, s.ID, rest)
			if err != nil {
				fmt.Fprintf(out, "opponent: (no reply: %v)\n", err)
				continue
			}
			fmt.Fprintf(out, "opponent: %s\n", reply)
		default:
			choice, err := game.ParseDecision(cmdWord)
			if err != nil {
				fmt.Fprintf(out, "unknown command %q\n", cmdWord)
				continue
			}
			res, err := ctrl.PlayRound(ctx, s.ID, choice)
			if err != nil {
				return err
			}
			r := res.Record
			fmt.Fprintf(out, "Round %d: you %s, opponent %s (+%d/+%d) score %d-%d\n",
				r.Round, r.UserChoice, r.OpponentChoice, r.UserDelta, r.OpponentDelta, r.UserScore, r.OpponentScore)
			fmt.Fprintf(out, "  opponent: %s\n  prediction: %s\n", r.Explanation, r.Prediction)
			if res.Finished {
				printSummary(out, s.Summarize())
				return nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	printSummary(out, s.Summarize())
	return nil
}

func printSummary(out io.Writer, sum game.Summary) {
	fmt.Fprintf(out, "Rounds played: %d\n", sum.RoundsPlayed)
	fmt.Fprintf(out, "You: %d (split %d, steal %d)\n", sum.UserScore, sum.UserSplits, sum.UserSteals)
	fmt.Fprintf(out, "Opponent: %d (split %d, steal %d)\n", sum.OpponentScore, sum.OpponentSplits, sum.OpponentSteals)
	fmt.Fprintf(out, "Winner: %s\n", sum.Winner)
}
