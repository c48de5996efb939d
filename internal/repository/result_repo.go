package repository

import (
	"triviaclash/internal/database"
	"triviaclash/internal/models"
)

// ResultRepository handles the append-only submission ledger
type ResultRepository struct {
	db *database.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// InsertIfAbsent appends a result row unless one already exists for
// (room, user, position). Returns false for the loser of a duplicate
// submission race; the caller then replays the stored row.
func (r *ResultRepository) InsertIfAbsent(res *models.Result) (bool, error) {
	return r.db.InsertIgnore("results",
		[]string{"room_id", "user_id", "position", "is_correct", "points", "elapsed_ms"},
		[]string{"room_id", "user_id", "position"},
		res.RoomID, res.UserID, res.Position, res.IsCorrect, res.Points, res.ElapsedMs)
}

// Get retrieves the stored outcome for one submission
func (r *ResultRepository) Get(roomID, userID int64, position int) (*models.Result, error) {
	res := &models.Result{}
	err := r.db.QueryRow(`
		SELECT room_id, user_id, position, is_correct, points, elapsed_ms
		FROM results WHERE room_id = ? AND user_id = ? AND position = ?`,
		roomID, userID, position).Scan(
		&res.RoomID, &res.UserID, &res.Position, &res.IsCorrect, &res.Points, &res.ElapsedMs)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CountCorrectFaster counts correct answers for a position submitted with a
// lower elapsed time; rank among correct answers is one more than this.
func (r *ResultRepository) CountCorrectFaster(roomID int64, position, elapsedMs int) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM results
		WHERE room_id = ? AND position = ? AND is_correct = ? AND elapsed_ms < ?`,
		roomID, position, true, elapsedMs).Scan(&count)
	return count, err
}

// AnsweredPositions returns the positions a user has submitted for, in
// ascending order. Used only as the legacy fallback when a participant row
// predates the pointer column.
func (r *ResultRepository) AnsweredPositions(roomID, userID int64) ([]int, error) {
	rows, err := r.db.Query(`
		SELECT position FROM results
		WHERE room_id = ? AND user_id = ? ORDER BY position ASC`,
		roomID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// ClearRoom removes all results of a room (delete/reopen)
func (r *ResultRepository) ClearRoom(roomID int64) error {
	_, err := r.db.Exec("DELETE FROM results WHERE room_id = ?", roomID)
	return err
}
