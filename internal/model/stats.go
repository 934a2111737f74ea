package model

import "time"

// PlayerStats is the host-facing progress view of a single participant.
// Timestamps are unix milliseconds on the wire.
type PlayerStats struct {
	ID             PlayerID    `json:"id"`
	Name           string      `json:"name"`
	RulesCompleted int         `json:"rulesCompleted"`
	TotalRules     int         `json:"totalRules"`
	Password       string      `json:"password"`
	RuleStates     []RuleState `json:"ruleStates"`
	AllSolved      bool        `json:"allSolved"`
	CompletedAt    *int64      `json:"completedAt"`
	ElapsedMs      int64       `json:"elapsedTime"`
	JoinedAt       int64       `json:"joinedAt"`
}

// RoomStats is the aggregate view pushed to the host after every
// state-changing event.
type RoomStats struct {
	RoomCode     RoomCode      `json:"roomCode"`
	GameStarted  bool          `json:"gameStarted"`
	GameEnded    bool          `json:"gameEnded"`
	Players      []PlayerStats `json:"players"`
	TotalPlayers int           `json:"totalPlayers"`
	TimeLimit    int64         `json:"timeLimit"`
	StartedAt    *int64        `json:"startedAt"`
	EndReason    EndReason     `json:"endReason,omitempty"`
}

// FinalPlayerStats is one entry of the ranked leaderboard broadcast when a
// game ends. Fully solved players rank first, then more rules completed,
// then lower elapsed time.
type FinalPlayerStats struct {
	PlayerID       PlayerID    `json:"playerId"`
	PlayerName     string      `json:"playerName"`
	RulesCompleted int         `json:"rulesCompleted"`
	TotalRules     int         `json:"totalRules"`
	AllSolved      bool        `json:"allSolved"`
	ElapsedMs      int64       `json:"elapsedTime"`
	CompletedAt    *int64      `json:"completedAt"`
	RuleStates     []RuleState `json:"ruleStates"`
}

// UnixMs converts a time to unix milliseconds, the wire format for all
// timestamps.
func UnixMs(t time.Time) int64 {
	return t.UnixMilli()
}

// UnixMsPtr converts an optional time to an optional unix-millisecond value.
func UnixMsPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
