package models

import "time"

// Result is one row of the append-only submission ledger. Existence of a row
// for (room, user, position) is the idempotency guard: it is never updated
// once inserted, and replayed submissions return it unchanged.
type Result struct {
	RoomID    int64     `json:"roomId"`
	UserID    int64     `json:"userId"`
	Position  int       `json:"position"`
	IsCorrect bool      `json:"isCorrect"`
	Points    int       `json:"points"`
	ElapsedMs int       `json:"elapsedMs"`
	CreatedAt time.Time `json:"createdAt"`
}
