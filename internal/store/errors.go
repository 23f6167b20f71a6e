package store

import "errors"

var (
	// ErrRoomNotFound is returned when an operation targets a room that does
	// not exist in the registry.
	ErrRoomNotFound = errors.New("room not found")

	// ErrCanvasNotFound is returned when no document has ever been saved for
	// the room.
	ErrCanvasNotFound = errors.New("canvas not found")

	// ErrInvalidDocument is returned when a document fails validation and is
	// rejected without touching stored state.
	ErrInvalidDocument = errors.New("invalid canvas document")
)
