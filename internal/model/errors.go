package model

import "errors"

// Common errors used across the application
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrRoomNotFound   = errors.New("room not found")
)
