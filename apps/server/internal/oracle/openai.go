package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"stealsplit/game/opponent"
)

// OpenAI talks to any OpenAI-compatible chat-completions endpoint.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a client for baseURL (e.g. https://api.x.ai/v1).
// Retries are disabled: a failed call falls back to a default move.
func NewOpenAI(baseURL, apiKey, model string, httpClient *http.Client) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Complete implements opponent.Completer.
func (o *OpenAI) Complete(ctx context.Context, messages []opponent.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: toOpenAIMessages(messages),
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []opponent.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case opponent.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case opponent.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
