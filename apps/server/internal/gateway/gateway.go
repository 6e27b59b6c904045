package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"stealsplit/apps/server/internal/codec"
	"stealsplit/game"
	"stealsplit/game/match"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// Connection represents a WebSocket client connection
type Connection struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	LastPing atomic.Int64 // unix millis

	// Session bound by new_game or resume.
	SessionID string

	seq       atomic.Uint64
	closeOnce sync.Once
	done      chan struct{}
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	nextConnID  uint64
	ctrl        *match.Controller
}

func New(ctrl *match.Controller) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		ctrl:        ctrl,
	}
}

// HandleWebSocket handles WebSocket upgrade and connection
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	connID := fmt.Sprintf("conn_%d", g.nextConnID)
	c := &Connection{
		ID:      connID,
		Conn:    conn,
		Send:    make(chan []byte, 64),
		Gateway: g,
		done:    make(chan struct{}),
	}
	c.LastPing.Store(time.Now().UnixMilli())
	g.connections[connID] = c
	total := len(g.connections)
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: %s, total: %d", connID, total)

	go c.readPump()
	go c.writePump()
}

func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.close()
	}()

	c.Conn.SetReadLimit(65536)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.LastPing.Store(time.Now().UnixMilli())
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	env, err := codec.DecodeClientEnvelope(data)
	if err != nil {
		log.Printf("[Gateway] %s: %v", c.ID, err)
		c.sendError(http.StatusBadRequest, "invalid message format")
		return
	}

	switch env.Type {
	case codec.ClientNewGame:
		c.handleNewGame(env)
	case codec.ClientResume:
		c.handleResume(env)
	case codec.ClientPlay:
		c.handlePlay(env)
	case codec.ClientChat:
		c.handleChat(env)
	default:
		log.Printf("[Gateway] Unknown frame type from %s: %q", c.ID, env.Type)
		c.sendError(http.StatusBadRequest, "unknown message type")
	}
}

type newGamePayload struct {
	PreviousSessionID string `json:"previousSessionId"`
}

type playPayload struct {
	Choice string `json:"choice"`
}

type chatPayload struct {
	Message string `json:"message"`
}

type roundPayload struct {
	Record   game.RoundRecord `json:"record"`
	State    game.State       `json:"state"`
	GameOver bool             `json:"gameOver"`
	Degraded bool             `json:"degraded"`
}

type gameOverPayload struct {
	Summary game.Summary `json:"summary"`
	State   game.State   `json:"state"`
}

type chatReplyPayload struct {
	Response string `json:"response"`
}

func (c *Connection) handleNewGame(env *codec.ClientEnvelope) {
	var req newGamePayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			c.sendError(http.StatusBadRequest, "invalid new_game payload")
			return
		}
	}
	previous := req.PreviousSessionID
	if previous == "" {
		previous = c.SessionID
	}
	s := c.Gateway.ctrl.StartNewSession(previous)
	c.SessionID = s.ID
	c.send(codec.ServerSession, s.Snapshot())
}

func (c *Connection) handleResume(env *codec.ClientEnvelope) {
	s, ok := c.Gateway.ctrl.Session(env.SessionID)
	if !ok {
		c.sendError(http.StatusNotFound, "session not found")
		return
	}
	c.SessionID = s.ID
	c.send(codec.ServerSession, s.Snapshot())
}

func (c *Connection) handlePlay(env *codec.ClientEnvelope) {
	var req playPayload
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		c.sendError(http.StatusBadRequest, "invalid play payload")
		return
	}
	choice, err := game.ParseDecision(req.Choice)
	if err != nil {
		c.sendError(http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	out, err := c.Gateway.ctrl.PlayRound(ctx, c.targetSession(env), choice)
	if err != nil {
		status, msg := statusForError(err)
		c.sendError(status, msg)
		return
	}

	c.send(codec.ServerRound, roundPayload{
		Record:   out.Record,
		State:    out.State,
		GameOver: out.Finished,
		Degraded: out.OracleErr != nil,
	})
	if out.Finished {
		s, ok := c.Gateway.ctrl.Session(out.State.SessionID)
		summary := game.Summary{}
		if ok {
			summary = s.Summarize()
		}
		c.send(codec.ServerGameOver, gameOverPayload{Summary: summary, State: out.State})
	}
}

func (c *Connection) handleChat(env *codec.ClientEnvelope) {
	var req chatPayload
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		c.sendError(http.StatusBadRequest, "invalid chat payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	reply, err := c.Gateway.ctrl.SendMessage(ctx, c.targetSession(env), req.Message)
	if err != nil {
		status, _ := statusForError(err)
		c.send(codec.ServerChatError, codec.ErrorPayload{Code: status, Message: ChatApology})
		return
	}
	c.send(codec.ServerChat, chatReplyPayload{Response: reply})
}

func (c *Connection) targetSession(env *codec.ClientEnvelope) string {
	if env.SessionID != "" {
		return env.SessionID
	}
	return c.SessionID
}

func (c *Connection) sendError(code int, msg string) {
	c.send(codec.ServerError, codec.ErrorPayload{Code: code, Message: msg})
}

func (c *Connection) send(frameType string, payload any) {
	env := codec.WrapServerEnvelope(c.SessionID, c.seq.Add(1), frameType, payload)
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[Gateway] marshal %s frame failed: %v", frameType, err)
		return
	}
	select {
	case c.Send <- data:
	case <-c.done:
	default:
		log.Printf("[Gateway] %s send buffer full, dropping %s frame", c.ID, frameType)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.connections, c.ID)
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, len(g.connections))
}
