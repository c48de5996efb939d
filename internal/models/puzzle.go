package models

import "time"

// AssignedPuzzle binds validated puzzle content to one position of a room's
// sequence. The position is stable for the life of the room; the payload may
// be replaced in place if it is later found structurally invalid.
type AssignedPuzzle struct {
	RoomID      int64
	Position    int
	PayloadJSON string
	SolvedBy    *int64
	SolvedAt    *time.Time
}

// BankPuzzle is a stored-bank content row, reusable across rooms.
type BankPuzzle struct {
	ID          int64
	Language    string
	Difficulty  int
	PayloadJSON string
	CreatedAt   time.Time
}
