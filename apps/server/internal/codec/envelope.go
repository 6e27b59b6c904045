package codec

import (
	"encoding/json"
	"fmt"
	"time"
)

// Client frame types.
const (
	ClientNewGame = "new_game"
	ClientResume  = "resume"
	ClientPlay    = "play"
	ClientChat    = "chat"
)

// Server frame types.
const (
	ServerSession   = "session"
	ServerRound     = "round"
	ServerChat      = "chat"
	ServerChatError = "chat_error"
	ServerGameOver  = "game_over"
	ServerError     = "error"
)

// ClientEnvelope is one inbound WebSocket frame.
type ClientEnvelope struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// ServerEnvelope is one outbound WebSocket frame.
type ServerEnvelope struct {
	Type       string `json:"type"`
	SessionID  string `json:"sessionId,omitempty"`
	ServerSeq  uint64 `json:"seq"`
	ServerTsMs int64  `json:"ts"`
	Payload    any    `json:"payload,omitempty"`
}

// WrapServerEnvelope creates a ServerEnvelope with common fields.
func WrapServerEnvelope(sessionID string, serverSeq uint64, frameType string, payload any) *ServerEnvelope {
	return &ServerEnvelope{
		Type:       frameType,
		SessionID:  sessionID,
		ServerSeq:  serverSeq,
		ServerTsMs: time.Now().UnixMilli(),
		Payload:    payload,
	}
}

func DecodeClientEnvelope(data []byte) (*ClientEnvelope, error) {
	var env ClientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode client frame: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("decode client frame: missing type")
	}
	return &env, nil
}

// ErrorPayload is the body of an error or chat_error frame.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
