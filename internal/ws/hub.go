package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rulerace/rulerace-server/internal/model"
	"github.com/rulerace/rulerace-server/internal/protocol"
	"github.com/rulerace/rulerace-server/internal/services/session"
)

// SessionHandler is the session layer as seen from the transport.
type SessionHandler interface {
	CreateRoom(ctx context.Context, client session.Client, playerName string, timeLimitMinutes int)
	JoinRoom(ctx context.Context, client session.Client, code model.RoomCode, playerName string)
	StartGame(ctx context.Context, client session.Client)
	StopGame(ctx context.Context, client session.Client)
	UpdateProgress(ctx context.Context, client session.Client, msg protocol.UpdateProgress)
	GetStats(ctx context.Context, client session.Client)
	Reconnect(ctx context.Context, client session.Client, priorID model.PlayerID)
	HandleDisconnect(ctx context.Context, playerID model.PlayerID)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks live connections and their player bindings, and routes
// outbound messages onto them.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*Conn]model.PlayerID
	byPlayer map[model.PlayerID]*Conn

	controller  SessionHandler
	baseContext context.Context
	logger      *slog.Logger
}

// NewHub creates a Hub. SetController must be called before any connection
// is served.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		conns:       make(map[*Conn]model.PlayerID),
		byPlayer:    make(map[model.PlayerID]*Conn),
		baseContext: context.Background(),
		logger:      logger.With(slog.String("component", "ws")),
	}
}

// SetController wires the session layer in after construction; the hub and
// controller reference each other, so one side has to be attached late.
func (h *Hub) SetController(controller SessionHandler) {
	h.controller = controller
}

// ServeWS upgrades an HTTP request to a websocket connection and runs its
// read loop until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &Conn{hub: h, ws: ws, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	h.conns[c] = ""
	h.mu.Unlock()

	go c.writePump()
	c.readPump()
}

// SendToPlayer queues a message for the player's live connection, if any.
func (h *Hub) SendToPlayer(id model.PlayerID, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("message marshal failed", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	c, ok := h.byPlayer[id]
	h.mu.RUnlock()
	if ok {
		c.enqueue(data)
	}
}

// BroadcastToRoom queues a message for every listed member with a live
// connection, marshalling once. exclude skips one member, typically the
// player the message is about.
func (h *Hub) BroadcastToRoom(members []model.PlayerID, msg any, exclude model.PlayerID) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("message marshal failed", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range members {
		if id == exclude {
			continue
		}
		if c, ok := h.byPlayer[id]; ok {
			c.enqueue(data)
		}
	}
}

// bind points the player's routing entry at this connection. A previous
// connection for the same player keeps draining its buffer but receives
// nothing new.
func (h *Hub) bind(c *Conn, id model.PlayerID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.byPlayer[id]; ok && prev != c {
		h.conns[prev] = ""
	}
	h.conns[c] = id
	h.byPlayer[id] = c
}

// playerFor returns the player bound to the connection, or "".
func (h *Hub) playerFor(c *Conn) model.PlayerID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns[c]
}

// unregister removes a connection and returns the player it was bound to.
func (h *Hub) unregister(c *Conn) model.PlayerID {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, ok := h.conns[c]
	if !ok {
		return ""
	}
	delete(h.conns, c)
	if id != "" && h.byPlayer[id] == c {
		delete(h.byPlayer, id)
	}
	close(c.send)
	return id
}
