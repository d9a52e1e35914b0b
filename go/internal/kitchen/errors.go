package kitchen

import "errors"

var (
	// ErrCodeGenerationExhausted is returned when every candidate room code collided
	ErrCodeGenerationExhausted = errors.New("could not generate a unique room code")

	// ErrRoomCodeTaken is returned when a room is opened under a code already in use
	ErrRoomCodeTaken = errors.New("room code already in use")

	// ErrInvalidRoomCode is returned when no room is registered under a code
	ErrInvalidRoomCode = errors.New("invalid room code")

	// ErrRoomFull is returned when a room already holds two players
	ErrRoomFull = errors.New("room is full")

	// ErrUnresolvableConnection is returned by Resolve when a connection is not in any room
	ErrUnresolvableConnection = errors.New("connection is not in a room")

	// ErrInvalidTableIndex is returned when an event references a table that does not exist
	ErrInvalidTableIndex = errors.New("invalid table index")
)
