package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rulerace/rulerace-server/internal/model"
	"github.com/rulerace/rulerace-server/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 120 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 64
)

// Conn is one websocket connection. It carries at most one player binding,
// assigned when the session layer accepts a create, join or reconnect.
type Conn struct {
	hub  *Hub
	ws   *websocket.Conn
	send chan []byte
}

// PlayerID returns the player currently bound to this connection, or "".
func (c *Conn) PlayerID() model.PlayerID {
	return c.hub.playerFor(c)
}

// Bind associates this connection with a player, displacing any stale
// connection the player had.
func (c *Conn) Bind(id model.PlayerID) {
	c.hub.bind(c, id)
}

// Send marshals and queues a message for this connection. A full send
// buffer drops the message rather than blocking the session loop.
func (c *Conn) Send(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("message marshal failed", slog.Any("error", err))
		return
	}
	c.enqueue(data)
}

func (c *Conn) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

// readPump reads client messages until the connection drops, dispatching
// each to the session layer. Runs on the HTTP handler goroutine.
func (c *Conn) readPump() {
	defer func() {
		playerID := c.hub.unregister(c)
		_ = c.ws.Close()
		c.hub.controller.HandleDisconnect(c.hub.baseContext, playerID)
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.dispatch(data)
	}
}

func (c *Conn) dispatch(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		c.Send(protocol.NewError("Invalid message format"))
		return
	}

	ctx := c.hub.baseContext
	switch m := msg.(type) {
	case protocol.CreateRoom:
		c.hub.controller.CreateRoom(ctx, c, m.PlayerName, m.TimeLimitMinutes)
	case protocol.JoinRoom:
		c.hub.controller.JoinRoom(ctx, c, model.RoomCode(m.RoomCode), m.PlayerName)
	case protocol.StartGame:
		c.hub.controller.StartGame(ctx, c)
	case protocol.StopGame:
		c.hub.controller.StopGame(ctx, c)
	case protocol.UpdateProgress:
		c.hub.controller.UpdateProgress(ctx, c, m)
	case protocol.GetStats:
		c.hub.controller.GetStats(ctx, c)
	case protocol.Reconnect:
		c.hub.controller.Reconnect(ctx, c, model.PlayerID(m.PlayerID))
	}
}

// writePump drains the send buffer onto the wire and keeps the connection
// alive with pings. Runs on its own goroutine per connection.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
