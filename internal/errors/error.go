package errors

import "errors"

var (
	ErrRoomNotFound   = errors.New("room with provided code was not found")
	ErrRoomFull       = errors.New("room already has a second player")
	ErrAlreadyInRoom  = errors.New("connection already belongs to a room")
	ErrRoomNotActive  = errors.New("room is not active")
	ErrNotParticipant = errors.New("connection does not belong to the room")
	ErrIllegalMove    = errors.New("illegal move")
	ErrNoMoveFound    = errors.New("no legal move available")
	ErrInternal       = errors.New("internal error")
)
