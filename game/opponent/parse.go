package opponent

import (
	"strings"

	"stealsplit/game"
)

const (
	prefixChoice      = "choice:"
	prefixExplanation = "explanation:"
	prefixPrediction  = "prediction:"
)

// ParseResponse extracts a structured response from free-form oracle text.
//
// Lines starting (case-insensitively) with "choice:", "explanation:" or
// "prediction:" are picked up; a later line of the same kind replaces an
// earlier one. Any choice text containing "steal" is Steal, everything else,
// including a missing line, is Split. Note this means "I will not steal"
// reads as Steal.
func ParseResponse(text string) game.OpponentResponse {
	fields := scanFields(text)

	resp := game.OpponentResponse{
		Choice:      normalizeChoice(fields.choice),
		Explanation: fields.explanation,
		Prediction:  fields.prediction,
	}
	if resp.Explanation == "" {
		resp.Explanation = FallbackExplanation
	}
	if resp.Prediction == "" {
		resp.Prediction = FallbackPrediction
	}
	return resp
}

type parsedFields struct {
	choice      string
	explanation string
	prediction  string
	hasChoice   bool
}

func scanFields(text string) parsedFields {
	var out parsedFields
	for _, raw := range strings.Split(strings.TrimSpace(text), "\n") {
		line := strings.TrimLeft(strings.TrimSpace(raw), "*-#> ")
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, prefixChoice):
			out.choice = valueAfterColon(line)
			out.hasChoice = true
		case strings.HasPrefix(lower, prefixExplanation):
			out.explanation = valueAfterColon(line)
		case strings.HasPrefix(lower, prefixPrediction):
			out.prediction = valueAfterColon(line)
		}
	}
	return out
}

func valueAfterColon(line string) string {
	_, after, _ := strings.Cut(line, ":")
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(after), "*"))
}

func normalizeChoice(raw string) game.Decision {
	if strings.Contains(strings.ToLower(raw), "steal") {
		return game.DecisionSteal
	}
	return game.DecisionSplit
}
