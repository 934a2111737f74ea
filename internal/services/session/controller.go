package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rulerace/rulerace-server/internal/dependencies/clock"
	"github.com/rulerace/rulerace-server/internal/dependencies/random"
	"github.com/rulerace/rulerace-server/internal/dependencies/scheduler"
	"github.com/rulerace/rulerace-server/internal/model"
	"github.com/rulerace/rulerace-server/internal/protocol"
	"github.com/rulerace/rulerace-server/internal/services/stats"
	"github.com/rulerace/rulerace-server/internal/storage"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// EmptyRoomSweepDelay is how long an empty lobby room survives before
	// the deferred sweep deletes it
	EmptyRoomSweepDelay = 5 * time.Minute
)

// Client is a live connection handle attributed to at most one player.
// Bind re-associates the connection; a player has zero or one live
// connection at a time.
type Client interface {
	PlayerID() model.PlayerID
	Bind(id model.PlayerID)
	Send(msg any)
}

// Sender delivers messages over whatever connections are currently live.
// Delivery is fire-and-forget: a player without a live connection is a
// silent no-op, the normal state for a disconnected participant.
type Sender interface {
	SendToPlayer(id model.PlayerID, msg any)
	BroadcastToRoom(members []model.PlayerID, msg any, exclude model.PlayerID)
}

// Controller is the session state machine and the sole mutator of room and
// player state. A single lock serializes every inbound operation and timer
// callback, so each handler runs to completion before the next — the
// registries need no further synchronization.
type Controller struct {
	mu sync.Mutex

	storage   storage.Storage
	stats     *stats.Projector
	sender    Sender
	clock     clock.Clock
	random    random.Random
	scheduler scheduler.Scheduler
	logger    *slog.Logger
}

// NewController creates a new session Controller
func NewController(
	store storage.Storage,
	projector *stats.Projector,
	sender Sender,
	clk clock.Clock,
	rnd random.Random,
	sched scheduler.Scheduler,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:   store,
		stats:     projector,
		sender:    sender,
		clock:     clk,
		random:    rnd,
		scheduler: sched,
		logger:    logger.With(slog.String("component", "session")),
	}
}

// CreateRoom issues a player ID for the caller and creates a lobby room with
// them as host. A connection already bound to a host with a live room gets
// that room back instead of a duplicate.
func (c *Controller) CreateRoom(ctx context.Context, client Client, playerName string, timeLimitMinutes int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id := client.PlayerID(); id != "" {
		if room, err := c.storage.GetRoomByHost(ctx, id); err == nil && !room.Ended {
			client.Send(protocol.NewRoomCreated(room.Code, id))
			c.pushStats(ctx, room)
			return
		}
	}

	now := c.clock.Now()
	host := &model.Player{
		ID:       model.PlayerID(uuid.NewString()),
		Name:     playerName,
		JoinedAt: now,
	}

	timeLimitMs := model.DefaultTimeLimitMs
	if timeLimitMinutes > 0 {
		timeLimitMs = int64(timeLimitMinutes) * 60 * 1000
	}

	room := &model.Room{
		ID:          model.RoomID(uuid.NewString()),
		Code:        c.generateCode(ctx),
		HostID:      host.ID,
		Members:     []model.PlayerID{host.ID},
		CreatedAt:   now,
		TimeLimitMs: timeLimitMs,
	}
	host.RoomID = room.ID

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		c.fail(client, "room create failed", err)
		return
	}
	if err := c.storage.SavePlayer(ctx, host); err != nil {
		c.fail(client, "room create failed", err)
		return
	}

	client.Bind(host.ID)
	client.Send(protocol.NewRoomCreated(room.Code, host.ID))
	c.pushStats(ctx, room)

	c.logger.Info("room created",
		slog.String("room", string(room.ID)),
		slog.String("code", string(room.Code)),
		slog.Int64("time_limit_ms", room.TimeLimitMs))
}

// JoinRoom issues a player ID for the caller and registers them in the room
// matching the code, provided it is still in the lobby.
func (c *Controller) JoinRoom(ctx context.Context, client Client, code model.RoomCode, playerName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoomByCode(ctx, code)
	if err != nil {
		client.Send(protocol.NewJoinFailed("Room not found"))
		return
	}
	if room.Started || room.Ended {
		client.Send(protocol.NewJoinFailed("Game already started"))
		return
	}

	player := &model.Player{
		ID:       model.PlayerID(uuid.NewString()),
		Name:     playerName,
		RoomID:   room.ID,
		JoinedAt: c.clock.Now(),
	}
	room.Members = append(room.Members, player.ID)

	if err := c.storage.SavePlayer(ctx, player); err != nil {
		c.fail(client, "join failed", err)
		return
	}
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		c.fail(client, "join failed", err)
		return
	}

	client.Bind(player.ID)
	client.Send(protocol.NewRoomJoined(room.Code, player.ID, false))
	c.sender.BroadcastToRoom(room.Members, protocol.NewPlayerJoined(player.ID, player.Name), player.ID)
	c.pushStats(ctx, room)

	c.logger.Info("player joined",
		slog.String("room", string(room.ID)),
		slog.String("player_id", string(player.ID)))
}

// StartGame transitions the caller's room from lobby to running and arms the
// time-limit timer. Host only.
func (c *Controller) StartGame(ctx context.Context, client Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, room := c.caller(ctx, client)
	if room == nil {
		client.Send(protocol.NewError("You are not in a room"))
		return
	}
	if player.ID != room.HostID {
		client.Send(protocol.NewError("Only the host can start the game"))
		return
	}
	if room.Started || room.Ended {
		client.Send(protocol.NewError("Game already started"))
		return
	}

	now := c.clock.Now()
	room.Started = true
	room.StartedAt = &now
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		c.fail(client, "start failed", err)
		return
	}

	c.sender.BroadcastToRoom(room.Members, protocol.NewGameStarted(room.TimeLimitMs, now.UnixMilli()), "")

	// The timer is never cancelled; ExpireRoom re-validates at fire time.
	roomID := room.ID
	c.scheduler.AfterFunc(time.Duration(room.TimeLimitMs)*time.Millisecond, func() {
		c.ExpireRoom(context.Background(), roomID)
	})

	c.pushStats(ctx, room)

	c.logger.Info("game started",
		slog.String("room", string(room.ID)),
		slog.Int64("time_limit_ms", room.TimeLimitMs))
}

// StopGame ends the caller's running room with reason "stopped". Host only.
func (c *Controller) StopGame(ctx context.Context, client Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, room := c.caller(ctx, client)
	if room == nil {
		client.Send(protocol.NewError("You are not in a room"))
		return
	}
	if player.ID != room.HostID {
		client.Send(protocol.NewError("Only the host can stop the game"))
		return
	}
	if !room.Started || room.Ended {
		client.Send(protocol.NewError("Game is not running"))
		return
	}

	c.endGame(ctx, room, model.EndReasonStopped)
}

// UpdateProgress replaces the caller's progress record with the
// client-supplied fields. When the update leaves every participant solved,
// the game auto-completes.
func (c *Controller) UpdateProgress(ctx context.Context, client Client, msg protocol.UpdateProgress) {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, room := c.caller(ctx, client)
	if room == nil || room.Ended {
		return
	}

	progress := model.Progress{
		RulesCompleted: msg.RulesCompleted,
		TotalRules:     msg.TotalRules,
		Password:       msg.Password,
		RuleStates:     msg.RuleStates,
		AllSolved:      msg.AllSolved,
	}
	if msg.AllSolved {
		now := c.clock.Now()
		progress.CompletedAt = &now
		if room.StartedAt != nil {
			progress.ElapsedMs = now.Sub(*room.StartedAt).Milliseconds()
		}
	}
	player.Progress = progress

	if err := c.storage.SavePlayer(ctx, player); err != nil {
		c.logger.Error("progress save failed", slog.Any("error", err))
		return
	}

	if c.allParticipantsSolved(ctx, room) {
		c.endGame(ctx, room, model.EndReasonAllCompleted)
		return
	}

	if player.ID != room.HostID {
		c.pushStats(ctx, room)
	}
}

// GetStats pushes the aggregate room view to the caller. Non-host callers
// are silently ignored — a deliberate soft-fail, not an error.
func (c *Controller) GetStats(ctx context.Context, client Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, room := c.caller(ctx, client)
	if room == nil || player.ID != room.HostID {
		return
	}

	st, err := c.stats.RoomStats(ctx, room)
	if err != nil {
		c.logger.Warn("stats projection failed", slog.Any("error", err))
		return
	}
	client.Send(protocol.NewRoomStats(*st))
}

// Reconnect re-associates the calling connection with a previously issued
// player ID and returns the current room snapshot. An unknown identifier is
// a silent no-op; callers detect failure by timeout.
func (c *Controller) Reconnect(ctx context.Context, client Client, priorID model.PlayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, err := c.storage.GetPlayer(ctx, priorID)
	if err != nil {
		return
	}
	room, err := c.storage.GetRoom(ctx, player.RoomID)
	if err != nil {
		// Room swept while the player was away; nothing to restore.
		return
	}

	client.Bind(player.ID)
	client.Send(protocol.NewReconnected(room, player.Name))

	if player.ID == room.HostID {
		c.pushStats(ctx, room)
	}

	c.logger.Info("player reconnected",
		slog.String("room", string(room.ID)),
		slog.String("player_id", string(player.ID)))
}

// HandleDisconnect is called by the transport after a connection closes and
// its player binding has been cleared. Players in started rooms are
// preserved so the host retains last-known progress; a non-host player in a
// lobby room is removed permanently.
func (c *Controller) HandleDisconnect(ctx context.Context, playerID model.PlayerID) {
	if playerID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return
	}
	room, err := c.storage.GetRoom(ctx, player.RoomID)
	if err != nil || room.Started {
		return
	}
	if player.ID == room.HostID {
		// The host keeps room ownership across page navigation.
		return
	}

	_ = c.storage.DeletePlayer(ctx, player.ID)
	room.RemoveMember(player.ID)
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		c.logger.Error("room save failed on disconnect", slog.Any("error", err))
		return
	}

	c.sender.BroadcastToRoom(room.Members, protocol.NewPlayerLeft(player.ID), "")
	c.pushStats(ctx, room)

	c.logger.Info("player left",
		slog.String("room", string(room.ID)),
		slog.String("player_id", string(player.ID)))

	if len(room.Members) == 0 {
		roomID := room.ID
		c.scheduler.AfterFunc(EmptyRoomSweepDelay, func() {
			c.SweepRoom(context.Background(), roomID)
		})
	}
}

// ExpireRoom is the time-limit callback. The timer is not cancelled when a
// room ends early, so a stale fire must observe the terminal state and
// become a no-op.
func (c *Controller) ExpireRoom(ctx context.Context, id model.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, id)
	if err != nil || !room.Started || room.Ended {
		return
	}
	c.endGame(ctx, room, model.EndReasonTimeUp)
}

// SweepRoom deletes a room that is still in the lobby and still empty when
// the deferred sweep fires. A join in the meantime makes the emptiness
// check fail, which cancels the sweep implicitly.
func (c *Controller) SweepRoom(ctx context.Context, id model.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, id)
	if err != nil || room.Started || len(room.Members) > 0 {
		return
	}
	_ = c.storage.DeleteRoom(ctx, id)
	c.logger.Info("empty room swept", slog.String("room", string(id)))
}

// endGame performs the single terminal transition for a room. The guard on
// room.Ended makes every later trigger — a stale timer, a concurrent stop, a
// final progress update — a no-op, whichever arrives first.
func (c *Controller) endGame(ctx context.Context, room *model.Room, reason model.EndReason) {
	if room.Ended {
		return
	}
	room.Ended = true
	room.EndReason = reason
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		c.logger.Error("room save failed on end", slog.Any("error", err))
	}

	final, err := c.stats.FinalStats(ctx, room)
	if err != nil {
		c.logger.Warn("final stats projection failed", slog.Any("error", err))
	}

	msg := protocol.NewGameEnded(reason, final)
	c.sender.BroadcastToRoom(room.Members, msg, "")
	// The host gets the payload point-to-point as well, even though the
	// ranked list excludes them.
	c.sender.SendToPlayer(room.HostID, msg)

	c.logger.Info("game ended",
		slog.String("room", string(room.ID)),
		slog.String("reason", string(reason)))
}

// caller resolves the bound player and their room, or (nil, nil).
func (c *Controller) caller(ctx context.Context, client Client) (*model.Player, *model.Room) {
	id := client.PlayerID()
	if id == "" {
		return nil, nil
	}
	player, err := c.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, nil
	}
	room, err := c.storage.GetRoom(ctx, player.RoomID)
	if err != nil {
		return nil, nil
	}
	return player, room
}

// allParticipantsSolved reports whether the room has at least one non-host
// member and every one of them has AllSolved set.
func (c *Controller) allParticipantsSolved(ctx context.Context, room *model.Room) bool {
	participants := room.NonHostMembers()
	if len(participants) == 0 {
		return false
	}
	for _, id := range participants {
		pl, err := c.storage.GetPlayer(ctx, id)
		if err != nil || !pl.Progress.AllSolved {
			return false
		}
	}
	return true
}

// generateCode produces a room code unique among live rooms, regenerating
// on collision.
func (c *Controller) generateCode(ctx context.Context) model.RoomCode {
	for {
		code := model.RoomCode(c.random.String(RoomCodeLength, RoomCodeAlphabet))
		exists, err := c.storage.LiveCodeExists(ctx, code)
		if err != nil {
			c.logger.Warn("code uniqueness check failed", slog.Any("error", err))
			return code
		}
		if !exists {
			return code
		}
	}
}

// pushStats sends a refreshed aggregate view to the room's host.
func (c *Controller) pushStats(ctx context.Context, room *model.Room) {
	st, err := c.stats.RoomStats(ctx, room)
	if err != nil {
		c.logger.Warn("stats projection failed", slog.Any("error", err))
		return
	}
	c.sender.SendToPlayer(room.HostID, protocol.NewRoomStats(*st))
}

func (c *Controller) fail(client Client, msg string, err error) {
	c.logger.Error(msg, slog.Any("error", err))
	client.Send(protocol.NewError("Internal server error"))
}
