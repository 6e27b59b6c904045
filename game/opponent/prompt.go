package opponent

import (
	"fmt"
	"strings"

	"stealsplit/game"
)

// Message is one entry of a chat-style completion request.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const chatContextTurns = 10

const decisionSystemPrompt = "You are playing a game of Split or Steal. Respond with Choice, Explanation, and Prediction."

// FormatHistory renders rounds as "Round N: User chose X, AI chose Y" lines.
func FormatHistory(history []game.RoundRecord) string {
	if len(history) == 0 {
		return "No previous rounds played."
	}
	var b strings.Builder
	for i, r := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Round %d: User chose %s, AI chose %s", r.Round, r.UserChoice, r.OpponentChoice)
	}
	return b.String()
}

// DecisionMessages builds the completion request for a round decision.
func DecisionMessages(view RoundView) []Message {
	var b strings.Builder
	fmt.Fprintf(&b, "You are playing Split or Steal game. This is round %d of %d. Here's the game history:\n\n", view.Round, view.MaxRounds)
	b.WriteString(FormatHistory(view.History))
	if recent := recentChat(view.Chat, chatContextTurns); len(recent) > 0 {
		b.WriteString("\n\nRecent conversation with the user:\n")
		for _, turn := range recent {
			fmt.Fprintf(&b, "%s: %s\n", speaker(turn.Role), turn.Content)
		}
	}
	if view.UserChoice.Valid() {
		fmt.Fprintf(&b, "\n\nThe user has just chosen: %s\n\n", view.UserChoice)
	} else {
		b.WriteString("\n\nThe user has not revealed their choice yet.\n\n")
	}
	b.WriteString(`Based on this information, choose either "Split" or "Steal" for your next move.
Provide a brief explanation for your choice and a prediction about the user's next move.
Format your response exactly like this:
Choice: Split
Explanation: I choose split because of the pattern of cooperation.
Prediction: The user will likely split next round.`)

	return []Message{
		{Role: RoleSystem, Content: decisionSystemPrompt},
		{Role: RoleUser, Content: b.String()},
	}
}

// ChatMessages builds the completion request for a side-channel reply.
func ChatMessages(req ChatRequest) []Message {
	system := fmt.Sprintf(`You are playing a Split or Steal game. Current game state:
%s
Engage in conversation with the user, but remember you're playing against them.
Be strategic but friendly. Don't reveal your next move directly.`, FormatHistory(req.History))

	msgs := make([]Message, 0, len(req.Chat)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	for _, turn := range req.Chat {
		role := RoleUser
		if turn.Role == game.RoleOpponent {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: turn.Content})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: req.Message})
	return msgs
}

func recentChat(chat []game.ChatTurn, n int) []game.ChatTurn {
	if len(chat) <= n {
		return chat
	}
	return chat[len(chat)-n:]
}

func speaker(r game.Role) string {
	if r == game.RoleOpponent {
		return "You"
	}
	return "User"
}

// MirrorHistory swaps the user and opponent sides of every round, so a brain
// can play the user's seat.
func MirrorHistory(history []game.RoundRecord) []game.RoundRecord {
	out := make([]game.RoundRecord, len(history))
	for i, r := range history {
		out[i] = game.RoundRecord{
			Round:          r.Round,
			UserChoice:     r.OpponentChoice,
			OpponentChoice: r.UserChoice,
			UserDelta:      r.OpponentDelta,
			OpponentDelta:  r.UserDelta,
			UserScore:      r.OpponentScore,
			OpponentScore:  r.UserScore,
		}
	}
	return out
}
