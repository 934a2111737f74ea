package storage

import (
	"context"

	"github.com/rulerace/rulerace-server/internal/model"
)

// Storage defines the registry interface for rooms and players. The session
// controller is the only component that mutates through it.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error)
	GetRoomByHost(ctx context.Context, hostID model.PlayerID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error

	// LiveCodeExists reports whether the code belongs to a room that has not
	// ended. Codes of ended rooms may be reissued.
	LiveCodeExists(ctx context.Context, code model.RoomCode) (bool, error)
}
