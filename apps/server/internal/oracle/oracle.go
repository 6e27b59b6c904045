// Package oracle provides the language-model transports behind
// opponent.OracleBrain.
package oracle

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stealsplit/apps/server/internal/config"
	"stealsplit/game/opponent"
)

var (
	ErrMissingAPIKey = errors.New("oracle API key is not set")
	ErrNoChoices     = errors.New("oracle returned no choices")
)

// StatusError is a non-success HTTP answer from an oracle endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("oracle status %d", e.StatusCode)
	}
	return fmt.Sprintf("oracle status %d: %s", e.StatusCode, e.Body)
}

// New builds the completer selected by cfg.Provider.
func New(cfg config.OracleConfig) (opponent.Completer, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout + 5*time.Second}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", config.ProviderOpenAI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, ErrMissingAPIKey
		}
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, httpClient), nil
	case config.ProviderOllama:
		return NewOllama(cfg.BaseURL, cfg.Model, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported oracle provider %q", cfg.Provider)
	}
}
