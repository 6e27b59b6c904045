package game

const (
	mutualSplitPoints = 5
	stealPoints       = 10
)

// Score returns the points each side earns for one round. Anything other
// than Steal is scored as Split.
func Score(user, opponent Decision) (userDelta, opponentDelta int) {
	userSteals := user == DecisionSteal
	opponentSteals := opponent == DecisionSteal

	switch {
	case !userSteals && !opponentSteals:
		return mutualSplitPoints, mutualSplitPoints
	case userSteals && !opponentSteals:
		return stealPoints, 0
	case !userSteals && opponentSteals:
		return 0, stealPoints
	default:
		// both steal, nobody gets anything
		return 0, 0
	}
}
