package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"stealsplit/game"
	"stealsplit/game/match"
)

// ChatApology is returned in place of a reply when the chat side-channel
// fails.
const ChatApology = "Sorry, I couldn't process that message. Let's continue with the game."

const requestTimeout = 30 * time.Second

type HTTPHandler struct {
	ctrl *match.Controller
}

type errorResponse struct {
	Error string `json:"error"`
}

type interactRequest struct {
	UserChoice  string             `json:"userChoice"`
	SessionID   string             `json:"sessionId"`
	GameHistory []game.RoundRecord `json:"gameHistory"`
	ChatHistory []game.ChatTurn    `json:"chatHistory"`
}

type interactResponse struct {
	LLMChoice   game.Decision `json:"llmChoice"`
	Explanation string        `json:"explanation"`
	Prediction  string        `json:"prediction"`

	SessionID string `json:"sessionId"`
	Round     int    `json:"round"`
	UserScore int    `json:"userScore"`
	LLMScore  int    `json:"llmScore"`
	GameOver  bool   `json:"gameOver"`
}

type chatRequest struct {
	Message     string             `json:"message"`
	SessionID   string             `json:"sessionId"`
	GameHistory []game.RoundRecord `json:"gameHistory"`
	ChatHistory []game.ChatTurn    `json:"chatHistory"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type newSessionRequest struct {
	PreviousSessionID string `json:"previousSessionId"`
}

type summaryResponse struct {
	Summary game.Summary `json:"summary"`
	State   game.State   `json:"state"`
}

func NewHTTPHandler(ctrl *match.Controller) *HTTPHandler {
	return &HTTPHandler{ctrl: ctrl}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/llm-interact", h.handleInteract)
	mux.HandleFunc("/api/chat", h.handleChat)
	mux.HandleFunc("/api/sessions", h.handleNewSession)
	mux.HandleFunc("/api/sessions/", h.handleSession)
}

func (h *HTTPHandler) handleInteract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req interactRequest
	// Client history items may carry display-only fields, so unknown keys
	// are tolerated here.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	choice, err := game.ParseDecision(req.UserChoice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.resolveSession(req.SessionID, req.GameHistory, req.ChatHistory)
	if err != nil {
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}

	ctx, cancel := roundContext(r)
	defer cancel()
	out, err := h.ctrl.PlayRound(ctx, s.ID, choice)
	if err != nil {
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, interactResponse{
		LLMChoice:   out.Record.OpponentChoice,
		Explanation: out.Record.Explanation,
		Prediction:  out.Record.Prediction,
		SessionID:   s.ID,
		Round:       out.Record.Round,
		UserScore:   out.Record.UserScore,
		LLMScore:    out.Record.OpponentScore,
		GameOver:    out.Finished,
	})
}

// roundContext detaches from the client connection: once started, a round
// or chat exchange runs to completion even if the client goes away.
func roundContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), requestTimeout)
}

func (h *HTTPHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	s, err := h.resolveSession(req.SessionID, req.GameHistory, req.ChatHistory)
	if err != nil {
		log.Printf("[Gateway] chat session resolve failed: %v", err)
		writeJSON(w, http.StatusOK, chatResponse{Response: ChatApology})
		return
	}

	ctx, cancel := roundContext(r)
	defer cancel()
	reply, err := h.ctrl.SendMessage(ctx, s.ID, req.Message)
	if err != nil {
		writeJSON(w, http.StatusOK, chatResponse{Response: ChatApology})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}

// resolveSession finds the live session, or rebuilds it from the history the
// client holds when the server does not know it.
func (h *HTTPHandler) resolveSession(id string, history []game.RoundRecord, chat []game.ChatTurn) (*game.Session, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		if s, ok := h.ctrl.Session(id); ok {
			return s, nil
		}
		return h.ctrl.RestoreSession(id, history, chat)
	}
	if len(history) == 0 && len(chat) == 0 {
		return h.ctrl.StartNewSession(""), nil
	}
	return h.ctrl.RestoreSession(uuid.NewString(), history, chat)
}

func (h *HTTPHandler) handleNewSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req newSessionRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	s := h.ctrl.StartNewSession(strings.TrimSpace(req.PreviousSessionID))
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *HTTPHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	parts := strings.Split(path, "/")
	sessionID := strings.TrimSpace(parts[0])
	if sessionID == "" || len(parts) > 2 || (len(parts) == 2 && parts[1] != "summary") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	s, ok := h.ctrl.Session(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if len(parts) == 2 {
		writeJSON(w, http.StatusOK, summaryResponse{Summary: s.Summarize(), State: s.Snapshot()})
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func statusForError(err error) (int, string) {
	var invalid game.InvalidStateError
	switch {
	case errors.Is(err, game.ErrInvalidDecision), errors.Is(err, game.ErrRoundLimit), errors.As(err, &invalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, match.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, game.ErrSessionFinished):
		return http.StatusConflict, "game is over; start a new session"
	case errors.Is(err, game.ErrSessionBusy):
		return http.StatusConflict, "a request for this session is already in progress"
	default:
		log.Printf("[Gateway] internal error: %v", err)
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
