package repository

import (
	"triviaclash/internal/database"
	"triviaclash/internal/models"
)

// ParticipantRepository handles participant database operations
type ParticipantRepository struct {
	db *database.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Add inserts a participant if absent. Returns false when the user already
// sits in the room, so repeated joins are harmless.
func (r *ParticipantRepository) Add(p *models.Participant) (bool, error) {
	return r.db.InsertIgnore("participants",
		[]string{"room_id", "user_id", "username", "role", "is_ready"},
		[]string{"room_id", "user_id"},
		p.RoomID, p.UserID, p.Username, p.Role, p.IsReady)
}

// Get retrieves one participant
func (r *ParticipantRepository) Get(roomID, userID int64) (*models.Participant, error) {
	p := &models.Participant{}
	err := r.db.QueryRow(`
		SELECT room_id, user_id, username, role, is_ready, is_frozen, score, solved_count, pointer
		FROM participants WHERE room_id = ? AND user_id = ?`,
		roomID, userID).Scan(
		&p.RoomID, &p.UserID, &p.Username, &p.Role, &p.IsReady, &p.IsFrozen,
		&p.Score, &p.SolvedCount, &p.Pointer,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByRoom returns all participants of a room ordered by score
func (r *ParticipantRepository) ListByRoom(roomID int64) ([]models.Participant, error) {
	rows, err := r.db.Query(`
		SELECT room_id, user_id, username, role, is_ready, is_frozen, score, solved_count, pointer
		FROM participants WHERE room_id = ?
		ORDER BY score DESC, solved_count DESC, user_id ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.RoomID, &p.UserID, &p.Username, &p.Role, &p.IsReady,
			&p.IsFrozen, &p.Score, &p.SolvedCount, &p.Pointer); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// Count returns how many participants a room has
func (r *ParticipantRepository) Count(roomID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM participants WHERE room_id = ?", roomID).Scan(&count)
	return count, err
}

// SetReady updates the advisory ready flag
func (r *ParticipantRepository) SetReady(roomID, userID int64, ready bool) error {
	_, err := r.db.Exec("UPDATE participants SET is_ready = ? WHERE room_id = ? AND user_id = ?",
		ready, roomID, userID)
	return err
}

// SetFrozen updates the frozen flag. Frozen participants stay on the
// leaderboard but cannot submit answers.
func (r *ParticipantRepository) SetFrozen(roomID, userID int64, frozen bool) error {
	_, err := r.db.Exec("UPDATE participants SET is_frozen = ? WHERE room_id = ? AND user_id = ?",
		frozen, roomID, userID)
	return err
}

// Remove deletes a participant (leave or kick)
func (r *ParticipantRepository) Remove(roomID, userID int64) error {
	_, err := r.db.Exec("DELETE FROM participants WHERE room_id = ? AND user_id = ?", roomID, userID)
	return err
}

// ApplyResult credits points and a solve, and advances the pointer to
// newPointer. The CASE guard keeps the pointer monotonically non-decreasing
// even if a replayed or reordered request lands late.
func (r *ParticipantRepository) ApplyResult(roomID, userID int64, newPointer, points, solvedInc int) error {
	_, err := r.db.Exec(`
		UPDATE participants
		SET score = score + ?,
		    solved_count = solved_count + ?,
		    pointer = CASE WHEN pointer < ? THEN ? ELSE pointer END
		WHERE room_id = ? AND user_id = ?`,
		points, solvedInc, newPointer, newPointer, roomID, userID)
	return err
}

// CountUnfinished returns how many participants still have puzzles left.
// Zero means the room is complete; completion is derived, never stored.
func (r *ParticipantRepository) CountUnfinished(roomID int64, puzzleCount int) (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM participants WHERE room_id = ? AND pointer < ?",
		roomID, puzzleCount).Scan(&count)
	return count, err
}

// ResetForReopen clears scores, pointers and ready flags for another run
func (r *ParticipantRepository) ResetForReopen(roomID int64) error {
	_, err := r.db.Exec(`
		UPDATE participants
		SET score = 0, solved_count = 0, pointer = 0, is_ready = ?
		WHERE room_id = ?`, false, roomID)
	return err
}

// RemoveAll deletes every participant of a room (room deletion)
func (r *ParticipantRepository) RemoveAll(roomID int64) error {
	_, err := r.db.Exec("DELETE FROM participants WHERE room_id = ?", roomID)
	return err
}

// Leaderboard aggregates participant standings with answer statistics
func (r *ParticipantRepository) Leaderboard(roomID int64) ([]models.LeaderboardEntry, error) {
	rows, err := r.db.Query(`
		SELECT p.user_id, p.username, p.score, p.solved_count, p.pointer,
		       COUNT(res.position) AS total_answers,
		       COALESCE(SUM(CASE WHEN res.is_correct THEN 1 ELSE 0 END), 0) AS correct_answers
		FROM participants p
		LEFT JOIN results res ON res.room_id = p.room_id AND res.user_id = p.user_id
		WHERE p.room_id = ?
		GROUP BY p.user_id, p.username, p.score, p.solved_count, p.pointer
		ORDER BY p.score DESC, p.solved_count DESC, correct_answers DESC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Score, &e.SolvedCount,
			&e.Pointer, &e.TotalAnswers, &e.CorrectAnswers); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
