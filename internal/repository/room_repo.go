package repository

import (
	"database/sql"
	"time"

	"triviaclash/internal/database"
	"triviaclash/internal/models"
)

// RoomRepository handles room database operations
type RoomRepository struct {
	db *database.DB
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, name, code, status, max_participants, puzzle_count, time_per_puzzle,
       source_mode, difficulty, language, created_by, current_index, created_at, started_at, finished_at`

// Create inserts a new room in waiting status and returns it
func (r *RoomRepository) Create(room *models.Room) (*models.Room, error) {
	query := `
		INSERT INTO rooms (name, code, status, max_participants, puzzle_count, time_per_puzzle,
		                   source_mode, difficulty, language, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(query,
		room.Name, room.Code, models.RoomWaiting, room.MaxParticipants, room.PuzzleCount,
		room.TimePerPuzzle, room.SourceMode, room.Difficulty, room.Language, room.CreatedBy)
	if err != nil {
		return nil, err
	}

	return r.GetByID(id)
}

// GetByID retrieves a room by ID
func (r *RoomRepository) GetByID(roomID int64) (*models.Room, error) {
	row := r.db.QueryRow("SELECT "+roomColumns+" FROM rooms WHERE id = ?", roomID)
	return scanRoom(row)
}

// GetByCode retrieves a room by its join code
func (r *RoomRepository) GetByCode(code string) (*models.Room, error) {
	row := r.db.QueryRow("SELECT "+roomColumns+" FROM rooms WHERE code = ?", code)
	return scanRoom(row)
}

// CodeExists reports whether a join code is already taken
func (r *RoomRepository) CodeExists(code string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM rooms WHERE code = ?", code).Scan(&count)
	return count > 0, err
}

// Activate transitions waiting -> active, stamping started_at and resetting
// the pacing cursor. Returns false when the room was not in waiting status,
// so concurrent start calls converge on one winner.
func (r *RoomRepository) Activate(roomID int64) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE rooms SET status = ?, current_index = 0, started_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		models.RoomActive, roomID, models.RoomWaiting)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Finish transitions active -> finished. A finish on an already-finished
// room is a no-op, which keeps the derived completion check idempotent.
func (r *RoomRepository) Finish(roomID int64) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE rooms SET status = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		models.RoomFinished, roomID, models.RoomActive)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// AdvanceCursor moves the room-wide pacing cursor from -> to, only if it
// still sits at from. A stale caller (e.g. a timer that fired late) loses the
// compare-and-set and must re-read instead of double-advancing.
func (r *RoomRepository) AdvanceCursor(roomID int64, from, to int) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE rooms SET current_index = ?
		WHERE id = ? AND current_index = ? AND status = ?`,
		to, roomID, from, models.RoomActive)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Reopen resets a room back to waiting for another run
func (r *RoomRepository) Reopen(roomID int64) error {
	_, err := r.db.Exec(`
		UPDATE rooms SET status = ?, current_index = 0, started_at = NULL, finished_at = NULL
		WHERE id = ?`,
		models.RoomWaiting, roomID)
	return err
}

// Delete removes the room row. Dependent rows must already be gone.
func (r *RoomRepository) Delete(roomID int64) error {
	_, err := r.db.Exec("DELETE FROM rooms WHERE id = ?", roomID)
	return err
}

// ListByUser returns rooms the user participates in, newest first
func (r *RoomRepository) ListByUser(userID int64) ([]models.Room, error) {
	rows, err := r.db.Query(`
		SELECT `+roomColumns+` FROM rooms
		WHERE id IN (SELECT room_id FROM participants WHERE user_id = ?)
		ORDER BY created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := scanRoomRows(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoomFrom(s rowScanner) (*models.Room, error) {
	room := &models.Room{}
	var startedAt, finishedAt sql.NullTime
	var createdAt sql.NullTime

	err := s.Scan(
		&room.ID, &room.Name, &room.Code, &room.Status, &room.MaxParticipants,
		&room.PuzzleCount, &room.TimePerPuzzle, &room.SourceMode, &room.Difficulty,
		&room.Language, &room.CreatedBy, &room.CurrentIndex, &createdAt,
		&startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if createdAt.Valid {
		room.CreatedAt = createdAt.Time
	} else {
		room.CreatedAt = time.Time{}
	}
	if startedAt.Valid {
		room.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		room.FinishedAt = &finishedAt.Time
	}
	return room, nil
}

func scanRoom(row *sql.Row) (*models.Room, error) {
	return scanRoomFrom(row)
}

func scanRoomRows(rows *sql.Rows) (*models.Room, error) {
	return scanRoomFrom(rows)
}
