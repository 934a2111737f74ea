package stats

import (
	"context"
	"log/slog"
	"sort"

	"github.com/samber/lo"

	"github.com/rulerace/rulerace-server/internal/dependencies/clock"
	"github.com/rulerace/rulerace-server/internal/model"
	"github.com/rulerace/rulerace-server/internal/storage"
)

// Projector derives host-facing views from room and player state. It never
// mutates; the session controller calls it on demand and after every
// state-changing event.
type Projector struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// NewProjector creates a new Projector
func NewProjector(store storage.Storage, clk clock.Clock, logger *slog.Logger) *Projector {
	return &Projector{
		storage: store,
		clock:   clk,
		logger:  logger.With(slog.String("component", "stats")),
	}
}

// RoomStats builds the aggregate progress view of a room. Only non-host
// members appear in the player list; the host observes, participants race.
func (p *Projector) RoomStats(ctx context.Context, room *model.Room) (*model.RoomStats, error) {
	participants := p.loadParticipants(ctx, room)

	players := lo.Map(participants, func(pl *model.Player, _ int) model.PlayerStats {
		return model.PlayerStats{
			ID:             pl.ID,
			Name:           pl.Name,
			RulesCompleted: pl.Progress.RulesCompleted,
			TotalRules:     pl.Progress.TotalRules,
			Password:       pl.Progress.Password,
			RuleStates:     pl.Progress.RuleStates,
			AllSolved:      pl.Progress.AllSolved,
			CompletedAt:    model.UnixMsPtr(pl.Progress.CompletedAt),
			ElapsedMs:      pl.Progress.ElapsedMs,
			JoinedAt:       model.UnixMs(pl.JoinedAt),
		}
	})

	return &model.RoomStats{
		RoomCode:     room.Code,
		GameStarted:  room.Started,
		GameEnded:    room.Ended,
		Players:      players,
		TotalPlayers: len(players),
		TimeLimit:    room.TimeLimitMs,
		StartedAt:    model.UnixMsPtr(room.StartedAt),
		EndReason:    room.EndReason,
	}, nil
}

// FinalStats builds the ranked leaderboard broadcast at game end: fully
// solved players first, then more rules completed, ties broken by lower
// elapsed time.
func (p *Projector) FinalStats(ctx context.Context, room *model.Room) ([]model.FinalPlayerStats, error) {
	now := p.clock.Now()
	participants := p.loadParticipants(ctx, room)

	final := lo.Map(participants, func(pl *model.Player, _ int) model.FinalPlayerStats {
		elapsed := pl.Progress.ElapsedMs
		if !pl.Progress.AllSolved {
			if room.StartedAt != nil {
				elapsed = now.Sub(*room.StartedAt).Milliseconds()
			} else {
				elapsed = 0
			}
		}
		return model.FinalPlayerStats{
			PlayerID:       pl.ID,
			PlayerName:     pl.Name,
			RulesCompleted: pl.Progress.RulesCompleted,
			TotalRules:     pl.Progress.TotalRules,
			AllSolved:      pl.Progress.AllSolved,
			ElapsedMs:      elapsed,
			CompletedAt:    model.UnixMsPtr(pl.Progress.CompletedAt),
			RuleStates:     pl.Progress.RuleStates,
		}
	})

	sort.SliceStable(final, func(i, j int) bool {
		a, b := final[i], final[j]
		if a.AllSolved != b.AllSolved {
			return a.AllSolved
		}
		if a.RulesCompleted != b.RulesCompleted {
			return a.RulesCompleted > b.RulesCompleted
		}
		return a.ElapsedMs < b.ElapsedMs
	})

	return final, nil
}

// loadParticipants fetches the player records of the room's non-host
// members. Members with a missing record are skipped rather than failing
// the whole projection.
func (p *Projector) loadParticipants(ctx context.Context, room *model.Room) []*model.Player {
	ids := lo.Filter(room.Members, func(id model.PlayerID, _ int) bool {
		return id != room.HostID
	})

	players := make([]*model.Player, 0, len(ids))
	for _, id := range ids {
		pl, err := p.storage.GetPlayer(ctx, id)
		if err != nil {
			p.logger.Warn("member without player record",
				slog.String("room", string(room.ID)),
				slog.String("player_id", string(id)))
			continue
		}
		players = append(players, pl)
	}
	return players
}
