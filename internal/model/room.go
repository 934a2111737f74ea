package model

import "time"

// RoomID uniquely identifies a room.
type RoomID string

// RoomCode is the short human-shareable code used to join a room.
type RoomCode string

// EndReason records which of the three terminal triggers ended a game.
type EndReason string

const (
	EndReasonTimeUp       EndReason = "time_up"
	EndReasonStopped      EndReason = "stopped"
	EndReasonAllCompleted EndReason = "all_completed"
)

// DefaultTimeLimitMs is the game time limit when the creator does not
// supply one (60 minutes).
const DefaultTimeLimitMs int64 = 3600000

// Room represents a game session: one host, zero or more participants,
// and a lobby -> running -> ended lifecycle.
type Room struct {
	ID      RoomID
	Code    RoomCode
	HostID  PlayerID
	Members []PlayerID // host included

	Started bool
	Ended   bool

	CreatedAt   time.Time
	StartedAt   *time.Time // nil until started
	TimeLimitMs int64
	EndReason   EndReason // empty until ended
}

// RemoveMember removes the given player from the membership set.
func (r *Room) RemoveMember(id PlayerID) {
	for i, m := range r.Members {
		if m == id {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return
		}
	}
}

// NonHostMembers returns the participant IDs, i.e. every member except
// the host.
func (r *Room) NonHostMembers() []PlayerID {
	var out []PlayerID
	for _, m := range r.Members {
		if m != r.HostID {
			out = append(out, m)
		}
	}
	return out
}
