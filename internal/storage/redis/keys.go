package redis

import (
	"fmt"

	"github.com/rulerace/rulerace-server/internal/model"
)

// Key prefix for all session data
const keyPrefix = "rulerace"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// codeIndexKey returns the Redis key for the room_code -> room_id index
func codeIndexKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:idx:code:%s", keyPrefix, code)
}

// hostIndexKey returns the Redis key for the host_player_id -> room_id index
func hostIndexKey(hostID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:host:%s", keyPrefix, hostID)
}
