package repository

import (
	"database/sql"

	"triviaclash/internal/database"
	"triviaclash/internal/models"
)

// PuzzleRepository handles assigned-puzzle, bank and fingerprint operations
type PuzzleRepository struct {
	db *database.DB
}

// NewPuzzleRepository creates a new puzzle repository
func NewPuzzleRepository(db *database.DB) *PuzzleRepository {
	return &PuzzleRepository{db: db}
}

// GetAssigned retrieves the puzzle at one position of a room's sequence
func (r *PuzzleRepository) GetAssigned(roomID int64, position int) (*models.AssignedPuzzle, error) {
	ap := &models.AssignedPuzzle{}
	var solvedBy sql.NullInt64
	var solvedAt sql.NullTime

	err := r.db.QueryRow(`
		SELECT room_id, position, payload_json, solved_by, solved_at
		FROM assigned_puzzles WHERE room_id = ? AND position = ?`,
		roomID, position).Scan(&ap.RoomID, &ap.Position, &ap.PayloadJSON, &solvedBy, &solvedAt)
	if err != nil {
		return nil, err
	}

	if solvedBy.Valid {
		ap.SolvedBy = &solvedBy.Int64
	}
	if solvedAt.Valid {
		ap.SolvedAt = &solvedAt.Time
	}
	return ap, nil
}

// InsertAssignedIfAbsent writes a puzzle at a position only if the slot is
// still empty. Concurrent fillers for the same position converge on one
// winner; the loser re-reads the stored row.
func (r *PuzzleRepository) InsertAssignedIfAbsent(roomID int64, position int, payloadJSON string) (bool, error) {
	return r.db.InsertIgnore("assigned_puzzles",
		[]string{"room_id", "position", "payload_json"},
		[]string{"room_id", "position"},
		roomID, position, payloadJSON)
}

// ReplacePayload repairs a structurally invalid stored puzzle in place. The
// position and any solver history stay untouched.
func (r *PuzzleRepository) ReplacePayload(roomID int64, position int, payloadJSON string) error {
	_, err := r.db.Exec(
		"UPDATE assigned_puzzles SET payload_json = ? WHERE room_id = ? AND position = ?",
		payloadJSON, roomID, position)
	return err
}

// MarkSolvedIfFirst records the first solver of a position. The WHERE guard
// makes it a compare-and-set: exactly one concurrent correct answer wins.
func (r *PuzzleRepository) MarkSolvedIfFirst(roomID int64, position int, userID int64) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE assigned_puzzles SET solved_by = ?, solved_at = CURRENT_TIMESTAMP
		WHERE room_id = ? AND position = ? AND solved_by IS NULL`,
		userID, roomID, position)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// ClearRoom removes all assigned puzzles of a room (delete/reopen)
func (r *PuzzleRepository) ClearRoom(roomID int64) error {
	_, err := r.db.Exec("DELETE FROM assigned_puzzles WHERE room_id = ?", roomID)
	return err
}

// ReserveFingerprint claims a content fingerprint before insertion. Returns
// false when the fingerprint was already reserved, i.e. the content is a
// near-duplicate of something recently served.
func (r *PuzzleRepository) ReserveFingerprint(fingerprint string, roomID int64) (bool, error) {
	return r.db.InsertIgnore("content_hashes",
		[]string{"fingerprint", "room_id"},
		[]string{"fingerprint"},
		fingerprint, roomID)
}

// ReleaseFingerprint frees a reservation whose candidate was never inserted
func (r *PuzzleRepository) ReleaseFingerprint(fingerprint string) error {
	_, err := r.db.Exec("DELETE FROM content_hashes WHERE fingerprint = ?", fingerprint)
	return err
}

// RandomBank returns a random stored puzzle matching language and difficulty
func (r *PuzzleRepository) RandomBank(language string, difficulty int) (*models.BankPuzzle, error) {
	return r.scanBank(r.db.QueryRow(`
		SELECT id, language, difficulty, payload_json
		FROM puzzle_bank WHERE language = ? AND difficulty = ?
		ORDER BY `+r.db.Dialect.RandomFunc()+` LIMIT 1`, language, difficulty))
}

// RandomBankAny returns a random stored puzzle regardless of language or
// difficulty; the deep-fallback source when nothing else matches.
func (r *PuzzleRepository) RandomBankAny() (*models.BankPuzzle, error) {
	return r.scanBank(r.db.QueryRow(
		"SELECT id, language, difficulty, payload_json FROM puzzle_bank ORDER BY " +
			r.db.Dialect.RandomFunc() + " LIMIT 1"))
}

// InsertBank caches validated content back into the bank
func (r *PuzzleRepository) InsertBank(language string, difficulty int, payloadJSON string) (int64, error) {
	return r.db.ExecReturningID(
		"INSERT INTO puzzle_bank (language, difficulty, payload_json) VALUES (?, ?, ?)",
		language, difficulty, payloadJSON)
}

func (r *PuzzleRepository) scanBank(row *sql.Row) (*models.BankPuzzle, error) {
	bp := &models.BankPuzzle{}
	err := row.Scan(&bp.ID, &bp.Language, &bp.Difficulty, &bp.PayloadJSON)
	if err != nil {
		return nil, err
	}
	return bp, nil
}
