package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rulerace/rulerace-server/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) sampleRoom(id, code, host string) *model.Room {
	return &model.Room{
		ID:          model.RoomID(id),
		Code:        model.RoomCode(code),
		HostID:      model.PlayerID(host),
		Members:     []model.PlayerID{model.PlayerID(host)},
		CreatedAt:   time.Now(),
		TimeLimitMs: model.DefaultTimeLimitMs,
	}
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:       "player-1",
		Name:     "Alice",
		RoomID:   "room-1",
		JoinedAt: time.Now(),
	}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.Name, retrieved.Name)
	s.Equal(player.RoomID, retrieved.RoomID)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestDeletePlayer() {
	player := &model.Player{ID: "player-1", Name: "Alice"}
	_ = s.storage.SavePlayer(s.ctx, player)

	err := s.storage.DeletePlayer(s.ctx, "player-1")
	s.Require().NoError(err)

	_, err = s.storage.GetPlayer(s.ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Room tests

func (s *StorageSuite) TestSaveAndGetRoom() {
	room := s.sampleRoom("room-1", "ABC123", "host-1")

	err := s.storage.SaveRoom(s.ctx, room)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(room.Code, retrieved.Code)
	s.Equal(room.HostID, retrieved.HostID)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestGetRoomByCode() {
	room := s.sampleRoom("room-1", "ABC123", "host-1")
	_ = s.storage.SaveRoom(s.ctx, room)

	retrieved, err := s.storage.GetRoomByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(room.ID, retrieved.ID)
}

func (s *StorageSuite) TestGetRoomByCodeNotFound() {
	_, err := s.storage.GetRoomByCode(s.ctx, "NOPE99")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestGetRoomByHost() {
	room := s.sampleRoom("room-1", "ABC123", "host-1")
	_ = s.storage.SaveRoom(s.ctx, room)

	retrieved, err := s.storage.GetRoomByHost(s.ctx, "host-1")
	s.Require().NoError(err)
	s.Equal(room.ID, retrieved.ID)
}

func (s *StorageSuite) TestDeleteRoomClearsIndexes() {
	room := s.sampleRoom("room-1", "ABC123", "host-1")
	_ = s.storage.SaveRoom(s.ctx, room)

	err := s.storage.DeleteRoom(s.ctx, "room-1")
	s.Require().NoError(err)

	_, err = s.storage.GetRoom(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, err = s.storage.GetRoomByCode(s.ctx, "ABC123")
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, err = s.storage.GetRoomByHost(s.ctx, "host-1")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestDeleteRoomKeepsReassignedCode() {
	first := s.sampleRoom("room-1", "ABC123", "host-1")
	_ = s.storage.SaveRoom(s.ctx, first)

	// Another room takes over the same code
	second := s.sampleRoom("room-2", "ABC123", "host-2")
	_ = s.storage.SaveRoom(s.ctx, second)

	err := s.storage.DeleteRoom(s.ctx, "room-1")
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoomByCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.RoomID("room-2"), retrieved.ID)
}

// LiveCodeExists tests

func (s *StorageSuite) TestLiveCodeExists() {
	room := s.sampleRoom("room-1", "ABC123", "host-1")
	_ = s.storage.SaveRoom(s.ctx, room)

	exists, err := s.storage.LiveCodeExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.LiveCodeExists(s.ctx, "XYZ789")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestLiveCodeExistsIgnoresEndedRooms() {
	room := s.sampleRoom("room-1", "ABC123", "host-1")
	room.Ended = true
	room.EndReason = model.EndReasonStopped
	_ = s.storage.SaveRoom(s.ctx, room)

	exists, err := s.storage.LiveCodeExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.False(exists)
}
