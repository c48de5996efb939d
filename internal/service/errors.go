package service

import "errors"

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP statuses; anything else is treated as an internal error.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotParticipant    = errors.New("user is not a participant of this room")
	ErrNotHost           = errors.New("only the room owner may do this")
	ErrRoomFull          = errors.New("room is full")
	ErrRoomNotWaiting    = errors.New("room is no longer accepting participants")
	ErrRoomNotActive     = errors.New("room is not active")
	ErrRoomNotFinished   = errors.New("room has not finished")
	ErrAlreadyStarted    = errors.New("room has already started")
	ErrParticipantFrozen = errors.New("participant is frozen")
	ErrOutOfRange        = errors.New("position out of range")
	ErrCannotKickOwner   = errors.New("the room owner cannot be kicked")
	ErrInvalidInput      = errors.New("invalid input")
)
