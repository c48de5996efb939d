package models

import "time"

// Participant roles
const (
	RoleHost   = "host"
	RoleCoHost = "co-host"
	RolePlayer = "player"
)

// Participant is one user's membership in a room. Pointer is the index of
// the next puzzle this participant must answer; it advances independently of
// every other participant and never decreases.
type Participant struct {
	RoomID      int64     `json:"roomId"`
	UserID      int64     `json:"userId"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	IsReady     bool      `json:"isReady"`
	IsFrozen    bool      `json:"isFrozen"`
	Score       int       `json:"score"`
	SolvedCount int       `json:"solvedCount"`
	Pointer     int       `json:"pointer"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Finished reports whether this participant has answered every puzzle of a
// room configured for puzzleCount puzzles.
func (p *Participant) Finished(puzzleCount int) bool {
	return p.Pointer >= puzzleCount
}

// LeaderboardEntry is one row of a room leaderboard, ordered by score.
type LeaderboardEntry struct {
	UserID         int64  `json:"userId"`
	Username       string `json:"username"`
	Score          int    `json:"score"`
	SolvedCount    int    `json:"solvedCount"`
	Pointer        int    `json:"pointer"`
	TotalAnswers   int    `json:"totalAnswers"`
	CorrectAnswers int    `json:"correctAnswers"`
}
