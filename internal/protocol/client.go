package protocol

import (
	"encoding/json"
	"errors"

	"github.com/rulerace/rulerace-server/internal/model"
)

// ErrInvalidMessage is returned for payloads that are not JSON, carry no
// handled type, or miss a required field.
var ErrInvalidMessage = errors.New("invalid message format")

// Client -> server message types
const (
	TypeCreateRoom     = "create_room"
	TypeJoinRoom       = "join_room"
	TypeStartGame      = "start_game"
	TypeStopGame       = "stop_game"
	TypeUpdateProgress = "update_progress"
	TypeGetStats       = "get_stats"
	TypeReconnect      = "reconnect"
)

// ClientMessage is the tagged union of inbound messages. Variants are
// validated at construction in Decode; a variant that reaches the state
// machine is well-formed.
type ClientMessage interface {
	clientMessage()
}

// CreateRoom requests a new room with the sender as host.
type CreateRoom struct {
	PlayerName       string `json:"playerName"`
	TimeLimitMinutes int    `json:"timeLimit"` // whole minutes; 0 means default
}

// JoinRoom requests membership of an existing lobby room.
type JoinRoom struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

// StartGame transitions the sender's room to running (host only).
type StartGame struct{}

// StopGame ends the sender's running room (host only).
type StopGame struct{}

// UpdateProgress replaces the sender's progress record wholesale.
type UpdateProgress struct {
	RulesCompleted int               `json:"rulesCompleted"`
	TotalRules     int               `json:"totalRules"`
	Password       string            `json:"password"`
	RuleStates     []model.RuleState `json:"ruleStates"`
	AllSolved      bool              `json:"allSolved"`
}

// GetStats requests the aggregate room view (host only, soft-fail otherwise).
type GetStats struct{}

// Reconnect rebinds the sending connection to a previously issued player ID.
type Reconnect struct {
	PlayerID string `json:"playerId"`
}

func (CreateRoom) clientMessage()     {}
func (JoinRoom) clientMessage()       {}
func (StartGame) clientMessage()      {}
func (StopGame) clientMessage()       {}
func (UpdateProgress) clientMessage() {}
func (GetStats) clientMessage()       {}
func (Reconnect) clientMessage()      {}

// Decode parses an inbound payload into its typed variant, validating
// required fields at the union's construction boundary.
func Decode(data []byte) (ClientMessage, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrInvalidMessage
	}

	switch env.Type {
	case TypeCreateRoom:
		var msg CreateRoom
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, ErrInvalidMessage
		}
		if msg.PlayerName == "" || msg.TimeLimitMinutes < 0 {
			return nil, ErrInvalidMessage
		}
		return msg, nil

	case TypeJoinRoom:
		var msg JoinRoom
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, ErrInvalidMessage
		}
		if msg.RoomCode == "" || msg.PlayerName == "" {
			return nil, ErrInvalidMessage
		}
		return msg, nil

	case TypeStartGame:
		return StartGame{}, nil

	case TypeStopGame:
		return StopGame{}, nil

	case TypeUpdateProgress:
		var msg UpdateProgress
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, ErrInvalidMessage
		}
		return msg, nil

	case TypeGetStats:
		return GetStats{}, nil

	case TypeReconnect:
		var msg Reconnect
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, ErrInvalidMessage
		}
		if msg.PlayerID == "" {
			return nil, ErrInvalidMessage
		}
		return msg, nil

	default:
		return nil, ErrInvalidMessage
	}
}
