package domain

import "errors"

// Domain errors
var (
	ErrInvalidRoomName = errors.New("invalid room name")
	ErrInvalidNickname = errors.New("invalid nickname")
	ErrInvalidAnswer   = errors.New("invalid answer")
	ErrRoomFull        = errors.New("room is full")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotInRoom       = errors.New("not a member of any room")
	ErrAlreadyInRoom   = errors.New("already a member of a room")
	ErrNotHost         = errors.New("only the host can perform this action")
	ErrPoolExhausted   = errors.New("no secret numbers left in the pool")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrWrongPhase      = errors.New("invalid action for current phase")
	ErrInternal        = errors.New("internal server error")
)
