package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPHandler struct {
	ledger Service
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(ledgerService Service) *HTTPHandler {
	return &HTTPHandler{ledger: ledgerService}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/games/recent", h.handleRecent)
	mux.HandleFunc("/api/games/", h.handleGame)
}

func (h *HTTPHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"))
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.ledger.ListRecent(ctx, limit)
	if err != nil {
		log.Printf("[Archive] list recent failed: %v", err)
		writeError(w, http.StatusInternalServerError, "query recent games failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

func (h *HTTPHandler) handleGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	gameID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/games/"))
	if gameID == "" || strings.Contains(gameID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	detail, err := h.ledger.GetGame(ctx, gameID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "game not found")
		case errors.Is(err, ErrDigestMismatch):
			log.Printf("[Archive] %v", err)
			writeError(w, http.StatusInternalServerError, "archived game is corrupt")
		default:
			log.Printf("[Archive] get game %s failed: %v", gameID, err)
			writeError(w, http.StatusInternalServerError, "query game failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 20
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 20
	}
	if n > 100 {
		return 100
	}
	return n
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
