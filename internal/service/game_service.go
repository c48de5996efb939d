package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"triviaclash/internal/models"
	"triviaclash/internal/puzzle"
	"triviaclash/internal/repository"
)

// Scoring constants. The first correct solver of a position earns a premium;
// everyone after them is scored on their own clock with a lower ceiling.
const (
	firstSolveCeiling = 2000
	firstSolveFloor   = 500
	firstSolveDivisor = 50

	laterSolveCeiling = 1000
	laterSolveFloor   = 100
	laterSolveDivisor = 100
)

// GameService runs active rooms: answer submission, per-participant
// progression and derived completion.
type GameService struct {
	rooms        *repository.RoomRepository
	participants *repository.ParticipantRepository
	puzzles      *repository.PuzzleRepository
	results      *repository.ResultRepository
	supplier     *puzzle.Supplier
	notifier     Notifier
}

// NewGameService creates a new game service
func NewGameService(
	rooms *repository.RoomRepository,
	participants *repository.ParticipantRepository,
	puzzles *repository.PuzzleRepository,
	results *repository.ResultRepository,
	supplier *puzzle.Supplier,
	notifier Notifier,
) *GameService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &GameService{
		rooms:        rooms,
		participants: participants,
		puzzles:      puzzles,
		results:      results,
		supplier:     supplier,
		notifier:     notifier,
	}
}

// SubmitInput is one answer submission
type SubmitInput struct {
	Position    int
	AnswerIndex int
	ElapsedMs   int
}

// SubmitResult is the outcome of a submission. Replayed submissions return
// the originally stored outcome, so Points never changes across retries.
type SubmitResult struct {
	Correct      bool           `json:"correct"`
	Points       int            `json:"points"`
	Rank         int            `json:"rank,omitempty"`
	FirstSolve   bool           `json:"firstSolve"`
	CorrectIndex int            `json:"correctIndex"`
	Replayed     bool           `json:"replayed,omitempty"`
	Pointer      int            `json:"pointer"`
	Finished     bool           `json:"finished"`
	RoomFinished bool           `json:"roomFinished"`
	NextPuzzle   *puzzle.Public `json:"nextPuzzle,omitempty"`
}

// Submit records an answer for the caller's current puzzle. The operation is
// idempotent per (room, user, position): the first submission decides the
// outcome and every retry replays it. Correctness, points and the pointer
// advance are settled against the store, never against connection state.
func (s *GameService) Submit(ctx context.Context, roomID, userID int64, input SubmitInput) (*SubmitResult, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	p, err := s.getParticipant(roomID, userID)
	if err != nil {
		return nil, err
	}

	if input.Position < 0 || input.Position >= room.PuzzleCount {
		return nil, ErrOutOfRange
	}
	if input.ElapsedMs < 0 {
		input.ElapsedMs = 0
	}

	pointer := s.effectivePointer(room, p)

	// Replays stay answerable even after the room finished; the stored
	// outcome is immutable either way.
	if stored, err := s.results.Get(roomID, userID, input.Position); err == nil {
		return s.replay(ctx, room, stored, pointer)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read result: %w", err)
	}

	if room.Status != models.RoomActive {
		return nil, ErrRoomNotActive
	}
	if p.IsFrozen {
		return nil, ErrParticipantFrozen
	}

	// A submission beyond the pointer skips unanswered puzzles; reject it.
	if input.Position > pointer {
		return nil, ErrOutOfRange
	}

	assigned, err := s.supplier.Ensure(ctx, room, input.Position)
	if err != nil {
		return nil, err
	}

	correct := input.AnswerIndex == assigned.CorrectIndex

	var firstSolve bool
	var points, rank int
	if correct {
		firstSolve, err = s.puzzles.MarkSolvedIfFirst(roomID, input.Position, userID)
		if err != nil {
			return nil, fmt.Errorf("mark solved: %w", err)
		}

		faster, err := s.results.CountCorrectFaster(roomID, input.Position, input.ElapsedMs)
		if err != nil {
			return nil, fmt.Errorf("rank answer: %w", err)
		}
		rank = faster + 1
		points = scorePoints(firstSolve, input.ElapsedMs)
	}

	inserted, err := s.results.InsertIfAbsent(&models.Result{
		RoomID:    roomID,
		UserID:    userID,
		Position:  input.Position,
		IsCorrect: correct,
		Points:    points,
		ElapsedMs: input.ElapsedMs,
	})
	if err != nil {
		return nil, fmt.Errorf("record result: %w", err)
	}
	if !inserted {
		// A duplicate submission won the ledger race; its outcome stands.
		stored, err := s.results.Get(roomID, userID, input.Position)
		if err != nil {
			return nil, fmt.Errorf("read winning result: %w", err)
		}
		return s.replay(ctx, room, stored, pointer)
	}

	solvedInc := 0
	if correct {
		solvedInc = 1
	}
	newPointer := input.Position + 1
	if err := s.participants.ApplyResult(roomID, userID, newPointer, points, solvedInc); err != nil {
		return nil, fmt.Errorf("apply result: %w", err)
	}

	if firstSolve {
		s.notifier.Broadcast(roomID, "puzzle_solved_first", map[string]interface{}{
			"position": input.Position,
			"userId":   userID,
			"username": p.Username,
			"points":   points,
		})
	}

	roomFinished, err := s.settleCompletion(room)
	if err != nil {
		return nil, err
	}

	out := &SubmitResult{
		Correct:      correct,
		Points:       points,
		Rank:         rank,
		FirstSolve:   firstSolve,
		CorrectIndex: assigned.CorrectIndex,
		Pointer:      newPointer,
		Finished:     newPointer >= room.PuzzleCount,
		RoomFinished: roomFinished,
	}
	if next, err := s.nextPuzzle(ctx, room, newPointer); err == nil {
		out.NextPuzzle = next
	} else {
		log.Printf("game: next puzzle unavailable room=%d position=%d: %v", roomID, newPointer, err)
	}
	return out, nil
}

// replay rebuilds a response from a stored ledger row without changing any
// state. The pointer is whatever it currently is, not position+1.
func (s *GameService) replay(ctx context.Context, room *models.Room, stored *models.Result, pointer int) (*SubmitResult, error) {
	out := &SubmitResult{
		Correct:      stored.IsCorrect,
		Points:       stored.Points,
		Replayed:     true,
		Pointer:      pointer,
		Finished:     pointer >= room.PuzzleCount,
		RoomFinished: room.Status == models.RoomFinished,
	}

	if assigned, err := s.supplier.Ensure(ctx, room, stored.Position); err == nil {
		out.CorrectIndex = assigned.CorrectIndex
		if stored.IsCorrect {
			if solved, serr := s.puzzles.GetAssigned(room.ID, stored.Position); serr == nil &&
				solved.SolvedBy != nil && *solved.SolvedBy == stored.UserID {
				out.FirstSolve = true
			}
		}
	}

	if next, err := s.nextPuzzle(ctx, room, pointer); err == nil {
		out.NextPuzzle = next
	}
	return out, nil
}

// RoomStatus is the poll-recoverable view of a room for one participant
type RoomStatus struct {
	Room          *models.Room         `json:"room"`
	Participants  []models.Participant `json:"participants"`
	Pointer       int                  `json:"pointer"`
	Finished      bool                 `json:"finished"`
	CurrentPuzzle *puzzle.Public       `json:"currentPuzzle,omitempty"`
}

// Status returns the room plus the caller's own progression, including the
// puzzle their pointer sits on. Everything a reconnecting client needs.
func (s *GameService) Status(ctx context.Context, roomID, userID int64) (*RoomStatus, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	p, err := s.getParticipant(roomID, userID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.ListByRoom(roomID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	pointer := s.effectivePointer(room, p)

	status := &RoomStatus{
		Room:         room,
		Participants: participants,
		Pointer:      pointer,
		Finished:     pointer >= room.PuzzleCount,
	}

	if room.Status == models.RoomActive && pointer < room.PuzzleCount {
		if current, err := s.supplier.Ensure(ctx, room, pointer); err == nil {
			redacted := current.Redacted()
			status.CurrentPuzzle = &redacted
		} else {
			log.Printf("game: current puzzle unavailable room=%d position=%d: %v", roomID, pointer, err)
		}
	}
	return status, nil
}

// Advance moves the room-wide pacing cursor forward one position. Owner
// only; the compare-and-set keeps a stale caller from double-advancing. The
// cursor never touches any participant's pointer.
func (s *GameService) Advance(ctx context.Context, roomID, userID int64, from int) (*puzzle.Public, int, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, 0, err
	}
	if !room.IsOwner(userID) {
		return nil, 0, ErrNotHost
	}
	if room.Status != models.RoomActive {
		return nil, 0, ErrRoomNotActive
	}
	if from < 0 || from+1 >= room.PuzzleCount {
		return nil, 0, ErrOutOfRange
	}

	ok, err := s.rooms.AdvanceCursor(roomID, from, from+1)
	if err != nil {
		return nil, 0, fmt.Errorf("advance cursor: %w", err)
	}
	if !ok {
		// Lost the compare-and-set; report where the cursor actually is.
		current, err := s.getRoom(roomID)
		if err != nil {
			return nil, 0, err
		}
		return nil, current.CurrentIndex, ErrOutOfRange
	}

	next, err := s.nextPuzzle(ctx, room, from+1)
	if err != nil {
		return nil, from + 1, err
	}

	s.notifier.Broadcast(roomID, "new_puzzle", map[string]interface{}{
		"position": from + 1,
		"puzzle":   next,
	})
	return next, from + 1, nil
}

// Freeze toggles a participant's frozen flag. Owner only. Frozen
// participants keep their standing but cannot submit.
func (s *GameService) Freeze(roomID, hostID, targetID int64, frozen bool) error {
	room, err := s.getRoom(roomID)
	if err != nil {
		return err
	}
	if !room.IsOwner(hostID) {
		return ErrNotHost
	}
	if room.IsOwner(targetID) && frozen {
		return ErrCannotKickOwner
	}
	if _, err := s.getParticipant(roomID, targetID); err != nil {
		return err
	}

	if err := s.participants.SetFrozen(roomID, targetID, frozen); err != nil {
		return fmt.Errorf("set frozen: %w", err)
	}

	s.notifier.Broadcast(roomID, "participant_frozen", map[string]interface{}{
		"userId": targetID,
		"frozen": frozen,
	})
	return nil
}

// settleCompletion finishes the room once no participant has puzzles left.
// Completion is always derived from pointers; the status flip is a
// compare-and-set so concurrent last answers fire one finish event.
func (s *GameService) settleCompletion(room *models.Room) (bool, error) {
	unfinished, err := s.participants.CountUnfinished(room.ID, room.PuzzleCount)
	if err != nil {
		return false, fmt.Errorf("count unfinished: %w", err)
	}
	if unfinished > 0 {
		return false, nil
	}

	flipped, err := s.rooms.Finish(room.ID)
	if err != nil {
		return false, fmt.Errorf("finish room: %w", err)
	}
	if flipped {
		entries, err := s.participants.Leaderboard(room.ID)
		if err != nil {
			log.Printf("game: leaderboard for finish event: %v", err)
		}
		s.notifier.Broadcast(room.ID, "game_finished", map[string]interface{}{
			"roomId":      room.ID,
			"leaderboard": entries,
		})
	}
	return true, nil
}

// effectivePointer reconciles the stored pointer with the results ledger.
// Rows written before the pointer column existed show pointer zero with a
// non-empty ledger; the first gap in answered positions is the truth then,
// and it is persisted so the fallback runs once.
func (s *GameService) effectivePointer(room *models.Room, p *models.Participant) int {
	if p.Pointer > 0 {
		return p.Pointer
	}

	positions, err := s.results.AnsweredPositions(room.ID, p.UserID)
	if err != nil || len(positions) == 0 {
		return p.Pointer
	}

	derived := 0
	for _, pos := range positions {
		if pos != derived {
			break
		}
		derived++
	}
	if derived > p.Pointer {
		if err := s.participants.ApplyResult(room.ID, p.UserID, derived, 0, 0); err != nil {
			log.Printf("game: persist derived pointer room=%d user=%d: %v", room.ID, p.UserID, err)
		}
		return derived
	}
	return p.Pointer
}

func (s *GameService) nextPuzzle(ctx context.Context, room *models.Room, position int) (*puzzle.Public, error) {
	if position >= room.PuzzleCount {
		return nil, nil
	}
	p, err := s.supplier.Ensure(ctx, room, position)
	if err != nil {
		return nil, err
	}
	redacted := p.Redacted()
	return &redacted, nil
}

func (s *GameService) getRoom(roomID int64) (*models.Room, error) {
	room, err := s.rooms.GetByID(roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("read room: %w", err)
	}
	return room, nil
}

func (s *GameService) getParticipant(roomID, userID int64) (*models.Participant, error) {
	p, err := s.participants.Get(roomID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotParticipant
		}
		return nil, fmt.Errorf("read participant: %w", err)
	}
	return p, nil
}

// scorePoints is the speed-based award for a correct answer. Elapsed time is
// the submitter's own clock since they saw the puzzle.
func scorePoints(firstSolve bool, elapsedMs int) int {
	if firstSolve {
		points := firstSolveCeiling - elapsedMs/firstSolveDivisor
		if points < firstSolveFloor {
			return firstSolveFloor
		}
		return points
	}
	points := laterSolveCeiling - elapsedMs/laterSolveDivisor
	if points < laterSolveFloor {
		return laterSolveFloor
	}
	return points
}
