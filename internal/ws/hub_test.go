package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulerace/rulerace-server/internal/model"
	"github.com/rulerace/rulerace-server/internal/protocol"
	"github.com/rulerace/rulerace-server/internal/testutil"
)

func newTestHub() *Hub {
	return NewHub(testutil.NopLogger())
}

// newTestConn registers a connection without a real socket; only the send
// buffer is exercised
func newTestConn(h *Hub) *Conn {
	c := &Conn{hub: h, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	h.conns[c] = ""
	h.mu.Unlock()
	return c
}

func drain(t *testing.T, c *Conn) []map[string]any {
	t.Helper()
	var out []map[string]any
	for {
		select {
		case data := <-c.send:
			var msg map[string]any
			require.NoError(t, json.Unmarshal(data, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestBindRoutesDirectMessages(t *testing.T) {
	h := newTestHub()
	c := newTestConn(h)

	c.Bind("player-1")
	assert.Equal(t, model.PlayerID("player-1"), c.PlayerID())

	h.SendToPlayer("player-1", protocol.NewError("boom"))

	msgs := drain(t, c)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0]["type"])
}

func TestSendToUnknownPlayerIsNoop(t *testing.T) {
	h := newTestHub()
	c := newTestConn(h)
	c.Bind("player-1")

	h.SendToPlayer("someone-else", protocol.NewError("boom"))

	assert.Empty(t, drain(t, c))
}

func TestRebindDisplacesStaleConnection(t *testing.T) {
	h := newTestHub()
	stale := newTestConn(h)
	stale.Bind("player-1")

	fresh := newTestConn(h)
	fresh.Bind("player-1")

	h.SendToPlayer("player-1", protocol.NewError("boom"))

	assert.Empty(t, drain(t, stale))
	assert.Len(t, drain(t, fresh), 1)
	assert.Equal(t, model.PlayerID(""), stale.PlayerID())
}

func TestBroadcastExcludesOneMember(t *testing.T) {
	h := newTestHub()
	a := newTestConn(h)
	a.Bind("a")
	b := newTestConn(h)
	b.Bind("b")
	c := newTestConn(h)
	c.Bind("c")

	members := []model.PlayerID{"a", "b", "c"}
	h.BroadcastToRoom(members, protocol.NewPlayerLeft("b"), "b")

	assert.Len(t, drain(t, a), 1)
	assert.Empty(t, drain(t, b))
	assert.Len(t, drain(t, c), 1)
}

func TestBroadcastSkipsMembersWithoutConnections(t *testing.T) {
	h := newTestHub()
	a := newTestConn(h)
	a.Bind("a")

	members := []model.PlayerID{"a", "offline"}
	h.BroadcastToRoom(members, protocol.NewPlayerLeft("x"), "")

	assert.Len(t, drain(t, a), 1)
}

func TestUnregisterReturnsBoundPlayer(t *testing.T) {
	h := newTestHub()
	c := newTestConn(h)
	c.Bind("player-1")

	id := h.unregister(c)
	assert.Equal(t, model.PlayerID("player-1"), id)

	// The routing entry is gone
	h.SendToPlayer("player-1", protocol.NewError("boom"))
	h.mu.RLock()
	_, present := h.byPlayer["player-1"]
	h.mu.RUnlock()
	assert.False(t, present)
}

func TestUnregisterStaleConnectionKeepsFreshBinding(t *testing.T) {
	h := newTestHub()
	stale := newTestConn(h)
	stale.Bind("player-1")
	fresh := newTestConn(h)
	fresh.Bind("player-1")

	// The stale connection finally closes; the fresh binding must survive
	id := h.unregister(stale)
	assert.Equal(t, model.PlayerID(""), id)

	h.SendToPlayer("player-1", protocol.NewError("boom"))
	assert.Len(t, drain(t, fresh), 1)
}

func TestSendDropsWhenBufferFull(t *testing.T) {
	h := newTestHub()
	c := &Conn{hub: h, send: make(chan []byte, 1)}
	h.mu.Lock()
	h.conns[c] = ""
	h.mu.Unlock()
	c.Bind("player-1")

	h.SendToPlayer("player-1", protocol.NewError("first"))
	// Buffer is full; this one is dropped instead of blocking
	h.SendToPlayer("player-1", protocol.NewError("second"))

	msgs := drain(t, c)
	require.Len(t, msgs, 1)
	assert.Equal(t, "first", msgs[0]["message"])
}
