package model

import "time"

// PlayerID uniquely identifies a player across the system.
// IDs are issued on create_room, join_room and reconnect, and never expire.
type PlayerID string

// RuleState is one client-reported puzzle rule entry.
type RuleState struct {
	RuleNumber int  `json:"ruleNumber"`
	Correct    bool `json:"correct"`
	Unlocked   bool `json:"unlocked"`
}

// Progress is a player's puzzle-solving state. It is entirely
// client-reported: the server stores it verbatim and never evaluates rules.
type Progress struct {
	RulesCompleted int
	TotalRules     int
	Password       string
	RuleStates     []RuleState
	AllSolved      bool
	CompletedAt    *time.Time // nil until solved
	ElapsedMs      int64      // 0 until solved
}

// Player represents a room member.
type Player struct {
	ID       PlayerID
	Name     string // client-supplied, unvalidated
	RoomID   RoomID
	JoinedAt time.Time
	Progress Progress
}
