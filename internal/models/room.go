package models

import "time"

// Room lifecycle statuses
const (
	RoomWaiting  = "waiting"
	RoomActive   = "active"
	RoomFinished = "finished"
)

// Room content source modes
const (
	SourceBank      = "bank"
	SourceGenerated = "generated"
)

// Room represents one multiplayer trivia session with a fixed puzzle count
// and a join code. CurrentIndex is the room-wide pacing cursor; it is
// advisory only, each participant advances through an independent pointer.
type Room struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Code            string     `json:"code"`
	Status          string     `json:"status"`
	MaxParticipants int        `json:"maxParticipants"`
	PuzzleCount     int        `json:"puzzleCount"`
	TimePerPuzzle   int        `json:"timePerPuzzle"` // seconds
	SourceMode      string     `json:"sourceMode"`
	Difficulty      int        `json:"difficulty"`
	Language        string     `json:"language"`
	CreatedBy       int64      `json:"createdBy"`
	CurrentIndex    int        `json:"currentIndex"`
	CreatedAt       time.Time  `json:"createdAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
}

// IsOwner reports whether userID is the durable owner of the room. Only the
// owner recorded here ever holds host authority; live connection order never
// grants it.
func (r *Room) IsOwner(userID int64) bool {
	return r.CreatedBy == userID
}
