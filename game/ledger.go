package game

import "fmt"

// Ledger is the append-only round history of one session. It owns round
// numbering and the running totals. Not safe for concurrent use; Session
// guards it.
type Ledger struct {
	maxRounds     int
	records       []RoundRecord
	userScore     int
	opponentScore int
}

func NewLedger(maxRounds int) *Ledger {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Ledger{
		maxRounds: maxRounds,
		records:   make([]RoundRecord, 0, min(maxRounds, 256)),
	}
}

// CurrentRound is the number of the next round to be played.
func (l *Ledger) CurrentRound() int {
	return len(l.records) + 1
}

func (l *Ledger) MaxRounds() int { return l.maxRounds }

// Finished reports whether every round has been played.
func (l *Ledger) Finished() bool {
	return l.CurrentRound() > l.maxRounds
}

func (l *Ledger) Scores() (user, opponent int) {
	return l.userScore, l.opponentScore
}

func (l *Ledger) Len() int { return len(l.records) }

// Append scores the round and records it under the current round number.
func (l *Ledger) Append(userChoice Decision, resp OpponentResponse) (RoundRecord, error) {
	if l.Finished() {
		return RoundRecord{}, fmt.Errorf("append round %d of %d: %w", l.CurrentRound(), l.maxRounds, ErrRoundLimit)
	}
	if !userChoice.Valid() {
		return RoundRecord{}, fmt.Errorf("user choice: %w", ErrInvalidDecision)
	}
	if !resp.Choice.Valid() {
		return RoundRecord{}, fmt.Errorf("opponent choice: %w", ErrInvalidDecision)
	}

	userDelta, opponentDelta := Score(userChoice, resp.Choice)
	l.userScore += userDelta
	l.opponentScore += opponentDelta

	rec := RoundRecord{
		Round:          l.CurrentRound(),
		UserChoice:     userChoice,
		OpponentChoice: resp.Choice,
		Explanation:    resp.Explanation,
		Prediction:     resp.Prediction,
		UserDelta:      userDelta,
		OpponentDelta:  opponentDelta,
		UserScore:      l.userScore,
		OpponentScore:  l.opponentScore,
	}
	l.records = append(l.records, rec)
	return rec, nil
}

// History returns a copy of all recorded rounds in order.
func (l *Ledger) History() []RoundRecord {
	out := make([]RoundRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Last returns the most recent round, if any.
func (l *Ledger) Last() (RoundRecord, bool) {
	if len(l.records) == 0 {
		return RoundRecord{}, false
	}
	return l.records[len(l.records)-1], true
}

func (l *Ledger) Summarize() Summary {
	s := Summary{
		RoundsPlayed:  len(l.records),
		UserScore:     l.userScore,
		OpponentScore: l.opponentScore,
	}
	for _, r := range l.records {
		if r.UserChoice == DecisionSteal {
			s.UserSteals++
		} else {
			s.UserSplits++
		}
		if r.OpponentChoice == DecisionSteal {
			s.OpponentSteals++
		} else {
			s.OpponentSplits++
		}
	}
	switch {
	case s.UserScore > s.OpponentScore:
		s.Winner = WinnerUser
	case s.OpponentScore > s.UserScore:
		s.Winner = WinnerOpponent
	default:
		s.Winner = WinnerTie
	}
	return s
}

// ReplayLedger rebuilds a ledger from previously played rounds, recomputing
// every score. Round numbers in the input must run 1..n without gaps.
func ReplayLedger(maxRounds int, rounds []RoundRecord) (*Ledger, error) {
	l := NewLedger(maxRounds)
	for i, r := range rounds {
		if r.Round != i+1 {
			return nil, ErrInvalidState(fmt.Sprintf("round %d at position %d", r.Round, i+1))
		}
		if _, err := l.Append(r.UserChoice, OpponentResponse{
			Choice:      r.OpponentChoice,
			Explanation: r.Explanation,
			Prediction:  r.Prediction,
		}); err != nil {
			return nil, fmt.Errorf("replay round %d: %w", r.Round, err)
		}
	}
	return l, nil
}
