package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulerace/rulerace-server/internal/api"
	"github.com/rulerace/rulerace-server/internal/api/handler"
	"github.com/rulerace/rulerace-server/internal/dependencies/clock"
	"github.com/rulerace/rulerace-server/internal/factory"
	"github.com/rulerace/rulerace-server/internal/testutil"
)

// newTestServer starts a full server with in-memory storage and returns it
// plus its base URL
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	// API tests are integration tests; use the production factory with
	// real random/clock/scheduler
	app, err := factory.New(factory.Config{Logger: testutil.NopLogger()})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		Hub:         app.Hub,
		DailyAnswer: app.DailyAnswer,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// dialWS opens a websocket connection to the test server
func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws://" + strings.TrimPrefix(srv.URL, "http://") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readMessage reads one message with a deadline so a missing message fails
// fast instead of hanging the test
func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// readUntil reads messages until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()

	for i := 0; i < 10; i++ {
		msg := readMessage(t, conn)
		if msg["type"] == msgType {
			return msg
		}
	}
	t.Fatalf("no %s message received", msgType)
	return nil
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := make([]byte, 2)
	_, _ = resp.Body.Read(body)
	assert.Equal(t, "OK", string(body))
}

func TestCreateRoomFlow(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)

	send(t, conn, map[string]any{"type": "create_room", "playerName": "Alice", "timeLimit": 10})

	created := readUntil(t, conn, "room_created")
	assert.Len(t, created["roomCode"], 6)
	assert.NotEmpty(t, created["playerId"])
	assert.Equal(t, true, created["isHost"])
}

func TestJoinAndStartFlow(t *testing.T) {
	srv := newTestServer(t)

	host := dialWS(t, srv)
	send(t, host, map[string]any{"type": "create_room", "playerName": "Host"})
	created := readUntil(t, host, "room_created")
	code := created["roomCode"].(string)

	player := dialWS(t, srv)
	send(t, player, map[string]any{"type": "join_room", "roomCode": code, "playerName": "Bob"})
	joined := readUntil(t, player, "room_joined")
	assert.Equal(t, code, joined["roomCode"])
	assert.Equal(t, false, joined["isHost"])

	// Host sees the join
	joinedBroadcast := readUntil(t, host, "player_joined")
	playerInfo := joinedBroadcast["player"].(map[string]any)
	assert.Equal(t, "Bob", playerInfo["name"])

	// Host starts; both sides observe game_started
	send(t, host, map[string]any{"type": "start_game"})
	started := readUntil(t, player, "game_started")
	assert.NotZero(t, started["timeLimit"])
	readUntil(t, host, "game_started")
}

func TestJoinUnknownRoom(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)

	send(t, conn, map[string]any{"type": "join_room", "roomCode": "NOPE99", "playerName": "Bob"})

	failed := readUntil(t, conn, "join_failed")
	assert.Equal(t, "Room not found", failed["message"])
}

func TestInvalidMessageGetsErrorReply(t *testing.T) {
	srv := newTestServer(t)
	conn := dialWS(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	errMsg := readUntil(t, conn, "error")
	assert.Equal(t, "Invalid message format", errMsg["message"])
}

func TestProgressReachesHostStats(t *testing.T) {
	srv := newTestServer(t)

	host := dialWS(t, srv)
	send(t, host, map[string]any{"type": "create_room", "playerName": "Host"})
	created := readUntil(t, host, "room_created")
	code := created["roomCode"].(string)

	player := dialWS(t, srv)
	send(t, player, map[string]any{"type": "join_room", "roomCode": code, "playerName": "Bob"})
	readUntil(t, player, "room_joined")

	send(t, host, map[string]any{"type": "start_game"})
	readUntil(t, player, "game_started")

	send(t, player, map[string]any{
		"type":           "update_progress",
		"rulesCompleted": 3,
		"totalRules":     20,
		"password":       "abc",
	})

	// Host receives a stats push reflecting the update
	for i := 0; i < 10; i++ {
		msg := readUntil(t, host, "room_stats")
		stats := msg["stats"].(map[string]any)
		players := stats["players"].([]any)
		if len(players) == 1 {
			p := players[0].(map[string]any)
			if p["rulesCompleted"].(float64) == 3 {
				return
			}
		}
	}
	t.Fatal("host never observed the progress update")
}

func TestReconnectFlow(t *testing.T) {
	srv := newTestServer(t)

	host := dialWS(t, srv)
	send(t, host, map[string]any{"type": "create_room", "playerName": "Host"})
	created := readUntil(t, host, "room_created")
	code := created["roomCode"].(string)
	playerID := created["playerId"].(string)

	require.NoError(t, host.Close())

	fresh := dialWS(t, srv)
	send(t, fresh, map[string]any{"type": "reconnect", "playerId": playerID})

	rec := readUntil(t, fresh, "reconnected")
	assert.Equal(t, code, rec["roomCode"])
	assert.Equal(t, "Host", rec["playerName"])
	assert.Equal(t, false, rec["gameStarted"])
}

func TestDailyAnswerProxiesUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ".json"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"solution":"tests","days_since_launch":123}`))
	}))
	defer upstream.Close()

	daily := handler.NewDailyAnswerHandler(upstream.URL+"/v2/%s.json", clock.New(), testutil.NopLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/daily-answer", nil)
	rr := httptest.NewRecorder()
	daily.Get(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "tests", body["solution"])
}

func TestDailyAnswerUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	daily := handler.NewDailyAnswerHandler(upstream.URL+"/v2/%s.json", clock.New(), testutil.NopLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/daily-answer", nil)
	rr := httptest.NewRecorder()
	daily.Get(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}
