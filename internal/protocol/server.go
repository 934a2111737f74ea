package protocol

import "github.com/rulerace/rulerace-server/internal/model"

// Server -> client message types
const (
	TypeRoomCreated  = "room_created"
	TypeRoomJoined   = "room_joined"
	TypeJoinFailed   = "join_failed"
	TypePlayerJoined = "player_joined"
	TypePlayerLeft   = "player_left"
	TypeGameStarted  = "game_started"
	TypeGameEnded    = "game_ended"
	TypeRoomStats    = "room_stats"
	TypeReconnected  = "reconnected"
	TypeError        = "error"
)

// RoomCreated confirms room creation to the host.
type RoomCreated struct {
	Type     string         `json:"type"`
	RoomCode model.RoomCode `json:"roomCode"`
	PlayerID model.PlayerID `json:"playerId"`
	IsHost   bool           `json:"isHost"`
}

func NewRoomCreated(code model.RoomCode, playerID model.PlayerID) RoomCreated {
	return RoomCreated{Type: TypeRoomCreated, RoomCode: code, PlayerID: playerID, IsHost: true}
}

// RoomJoined confirms membership to a joining player.
type RoomJoined struct {
	Type     string         `json:"type"`
	RoomCode model.RoomCode `json:"roomCode"`
	PlayerID model.PlayerID `json:"playerId"`
	IsHost   bool           `json:"isHost"`
}

func NewRoomJoined(code model.RoomCode, playerID model.PlayerID, isHost bool) RoomJoined {
	return RoomJoined{Type: TypeRoomJoined, RoomCode: code, PlayerID: playerID, IsHost: isHost}
}

// JoinFailed reports a rejected join_room.
type JoinFailed struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewJoinFailed(message string) JoinFailed {
	return JoinFailed{Type: TypeJoinFailed, Message: message}
}

// PlayerRef is the minimal player identity carried in room broadcasts.
type PlayerRef struct {
	ID   model.PlayerID `json:"id"`
	Name string         `json:"name"`
}

// PlayerJoined announces a new member to the rest of a room.
type PlayerJoined struct {
	Type   string    `json:"type"`
	Player PlayerRef `json:"player"`
}

func NewPlayerJoined(id model.PlayerID, name string) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, Player: PlayerRef{ID: id, Name: name}}
}

// PlayerLeft announces a member removed before game start.
type PlayerLeft struct {
	Type     string         `json:"type"`
	PlayerID model.PlayerID `json:"playerId"`
}

func NewPlayerLeft(id model.PlayerID) PlayerLeft {
	return PlayerLeft{Type: TypePlayerLeft, PlayerID: id}
}

// GameStarted announces the lobby -> running transition. TimeLimit and
// StartedAt are milliseconds.
type GameStarted struct {
	Type      string `json:"type"`
	TimeLimit int64  `json:"timeLimit"`
	StartedAt int64  `json:"startedAt"`
}

func NewGameStarted(timeLimitMs, startedAtMs int64) GameStarted {
	return GameStarted{Type: TypeGameStarted, TimeLimit: timeLimitMs, StartedAt: startedAtMs}
}

// GameEnded announces the terminal transition with the ranked leaderboard.
type GameEnded struct {
	Type       string                   `json:"type"`
	Reason     model.EndReason          `json:"reason"`
	FinalStats []model.FinalPlayerStats `json:"finalStats"`
}

func NewGameEnded(reason model.EndReason, finalStats []model.FinalPlayerStats) GameEnded {
	return GameEnded{Type: TypeGameEnded, Reason: reason, FinalStats: finalStats}
}

// RoomStats carries the aggregate host view.
type RoomStats struct {
	Type  string          `json:"type"`
	Stats model.RoomStats `json:"stats"`
}

func NewRoomStats(stats model.RoomStats) RoomStats {
	return RoomStats{Type: TypeRoomStats, Stats: stats}
}

// Reconnected returns the current room snapshot to a rebinding connection.
type Reconnected struct {
	Type        string         `json:"type"`
	RoomCode    model.RoomCode `json:"roomCode"`
	PlayerName  string         `json:"playerName"`
	GameStarted bool           `json:"gameStarted"`
	GameEnded   bool           `json:"gameEnded"`
	StartedAt   *int64         `json:"startedAt"`
	TimeLimit   int64          `json:"timeLimit"`
}

func NewReconnected(room *model.Room, playerName string) Reconnected {
	return Reconnected{
		Type:        TypeReconnected,
		RoomCode:    room.Code,
		PlayerName:  playerName,
		GameStarted: room.Started,
		GameEnded:   room.Ended,
		StartedAt:   model.UnixMsPtr(room.StartedAt),
		TimeLimit:   room.TimeLimitMs,
	}
}

// ErrorMessage reports protocol, authorization and precondition failures to
// the offending connection only.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}
