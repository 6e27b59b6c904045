package opponent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Completer is the external text-completion capability behind an
// OracleBrain. Implementations return the raw assistant text.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

const defaultOracleTimeout = 20 * time.Second

// OracleBrain asks an external language model for its move and parses the
// free-text answer. Failures never escape Decide; see FallbackResult.
type OracleBrain struct {
	completer Completer
	timeout   time.Duration
	name      string
}

func NewOracleBrain(completer Completer, timeout time.Duration, name string) *OracleBrain {
	if timeout <= 0 {
		timeout = defaultOracleTimeout
	}
	if strings.TrimSpace(name) == "" {
		name = "oracle"
	}
	return &OracleBrain{
		completer: completer,
		timeout:   timeout,
		name:      name,
	}
}

func (b *OracleBrain) Name() string { return b.name }

// Decide implements Decider.
func (b *OracleBrain) Decide(ctx context.Context, view RoundView) Result {
	text, err := b.complete(ctx, DecisionMessages(view))
	if err != nil {
		log.Printf("[Opponent] %s decision failed: session=%s round=%d err=%v", b.name, view.SessionID, view.Round, err)
		return FallbackResult(err)
	}

	resp := ParseResponse(text)
	if !scanFields(text).hasChoice {
		log.Printf("[Opponent] %s answer has no choice line: session=%s round=%d", b.name, view.SessionID, view.Round)
		return Result{Response: resp, Err: ErrMalformedResponse}
	}
	return Result{Response: resp}
}

// Reply implements Chatter. Unlike Decide, failures are returned.
func (b *OracleBrain) Reply(ctx context.Context, req ChatRequest) (string, error) {
	text, err := b.complete(ctx, ChatMessages(req))
	if err != nil {
		return "", fmt.Errorf("%s chat: %w", b.name, err)
	}
	return strings.TrimSpace(text), nil
}

func (b *OracleBrain) complete(ctx context.Context, msgs []Message) (string, error) {
	if b.completer == nil {
		return "", fmt.Errorf("no oracle configured")
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	text, err := b.completer.Complete(ctx, msgs)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
