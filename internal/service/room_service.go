package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"triviaclash/internal/models"
	"triviaclash/internal/puzzle"
	"triviaclash/internal/repository"
)

// codeAlphabet excludes ambiguous characters (0/O, 1/I) so codes survive
// being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// Room configuration bounds
const (
	minPuzzleCount     = 1
	maxPuzzleCount     = 50
	minParticipants    = 2
	maxParticipantsCap = 32
	minTimePerPuzzle   = 5
	maxTimePerPuzzle   = 300
)

// RoomService manages room lifecycle and membership
type RoomService struct {
	rooms        *repository.RoomRepository
	participants *repository.ParticipantRepository
	puzzles      *repository.PuzzleRepository
	results      *repository.ResultRepository
	supplier     *puzzle.Supplier
	notifier     Notifier
	prefetchHead int
}

// NewRoomService creates a new room service
func NewRoomService(
	rooms *repository.RoomRepository,
	participants *repository.ParticipantRepository,
	puzzles *repository.PuzzleRepository,
	results *repository.ResultRepository,
	supplier *puzzle.Supplier,
	notifier Notifier,
	prefetchHead int,
) *RoomService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if prefetchHead <= 0 {
		prefetchHead = 2
	}
	return &RoomService{
		rooms:        rooms,
		participants: participants,
		puzzles:      puzzles,
		results:      results,
		supplier:     supplier,
		notifier:     notifier,
		prefetchHead: prefetchHead,
	}
}

// CreateRoomInput carries the host's room settings
type CreateRoomInput struct {
	Name            string
	MaxParticipants int
	PuzzleCount     int
	TimePerPuzzle   int
	SourceMode      string
	Difficulty      int
	Language        string
}

// Create opens a new room in waiting status with the caller as host
func (s *RoomService) Create(userID int64, username string, input CreateRoomInput) (*models.Room, error) {
	input = normalizeInput(input)
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrInvalidInput)
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.Create(&models.Room{
		Name:            strings.TrimSpace(input.Name),
		Code:            code,
		MaxParticipants: input.MaxParticipants,
		PuzzleCount:     input.PuzzleCount,
		TimePerPuzzle:   input.TimePerPuzzle,
		SourceMode:      input.SourceMode,
		Difficulty:      input.Difficulty,
		Language:        input.Language,
		CreatedBy:       userID,
	})
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	if _, err := s.participants.Add(&models.Participant{
		RoomID:   room.ID,
		UserID:   userID,
		Username: username,
		Role:     models.RoleHost,
	}); err != nil {
		return nil, fmt.Errorf("add host participant: %w", err)
	}

	return room, nil
}

// Join adds a user to a waiting room by its join code. Rejoining a room the
// user already belongs to always succeeds regardless of room status, so a
// dropped connection never locks a player out mid-game.
func (s *RoomService) Join(userID int64, username, code string) (*models.Room, *models.Participant, error) {
	room, err := s.rooms.GetByCode(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, fmt.Errorf("find room: %w", err)
	}

	if existing, err := s.participants.Get(room.ID, userID); err == nil {
		return room, existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("read participant: %w", err)
	}

	if room.Status != models.RoomWaiting {
		return nil, nil, ErrRoomNotWaiting
	}

	count, err := s.participants.Count(room.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("count participants: %w", err)
	}
	if count >= room.MaxParticipants {
		return nil, nil, ErrRoomFull
	}

	p := &models.Participant{
		RoomID:   room.ID,
		UserID:   userID,
		Username: username,
		Role:     models.RolePlayer,
	}
	if _, err := s.participants.Add(p); err != nil {
		return nil, nil, fmt.Errorf("add participant: %w", err)
	}

	// The insert is if-absent, so a duplicate join raced us; either way the
	// stored row is the answer.
	stored, err := s.participants.Get(room.ID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("read participant: %w", err)
	}

	s.notifier.Broadcast(room.ID, "user_joined", map[string]interface{}{
		"userId":   userID,
		"username": username,
	})
	return room, stored, nil
}

// SetReady flips the advisory ready flag. It never gates the start; only the
// host's explicit start call does.
func (s *RoomService) SetReady(roomID, userID int64, ready bool) error {
	room, err := s.getRoom(roomID)
	if err != nil {
		return err
	}
	if room.Status != models.RoomWaiting {
		return ErrRoomNotWaiting
	}
	if _, err := s.getParticipant(roomID, userID); err != nil {
		return err
	}

	if err := s.participants.SetReady(roomID, userID, ready); err != nil {
		return fmt.Errorf("set ready: %w", err)
	}

	s.notifier.Broadcast(roomID, "ready_status", map[string]interface{}{
		"userId": userID,
		"ready":  ready,
	})
	return nil
}

// Start activates a waiting room. Only the stored owner may start, and the
// first puzzles must exist before any participant sees an active room.
func (s *RoomService) Start(ctx context.Context, roomID, userID int64) (*models.Room, *puzzle.Public, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, nil, err
	}
	if !room.IsOwner(userID) {
		return nil, nil, ErrNotHost
	}
	if room.Status != models.RoomWaiting {
		return nil, nil, ErrAlreadyStarted
	}

	head := s.prefetchHead
	if head > room.PuzzleCount {
		head = room.PuzzleCount
	}

	var first *puzzle.Puzzle
	for position := 0; position < head; position++ {
		p, err := s.supplier.Ensure(ctx, room, position)
		if err != nil {
			return nil, nil, fmt.Errorf("prefetch position %d: %w", position, err)
		}
		if position == 0 {
			first = p
		}
	}

	ok, err := s.rooms.Activate(roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("activate room: %w", err)
	}
	if !ok {
		return nil, nil, ErrAlreadyStarted
	}

	if head < room.PuzzleCount {
		s.supplier.FillAsync(room, head)
	}

	started, err := s.rooms.GetByID(roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("reread room: %w", err)
	}

	redacted := first.Redacted()
	s.notifier.Broadcast(roomID, "game_started", map[string]interface{}{
		"roomId":      roomID,
		"puzzleCount": room.PuzzleCount,
		"puzzle":      redacted,
	})
	return started, &redacted, nil
}

// Leave removes the caller from a room. The owner leaving tears the whole
// room down, since host authority is not transferable.
func (s *RoomService) Leave(roomID, userID int64) error {
	room, err := s.getRoom(roomID)
	if err != nil {
		return err
	}
	if room.IsOwner(userID) {
		return s.Delete(roomID, userID)
	}
	if _, err := s.getParticipant(roomID, userID); err != nil {
		return err
	}

	if err := s.participants.Remove(roomID, userID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}

	s.notifier.Broadcast(roomID, "user_left", map[string]interface{}{"userId": userID})
	return nil
}

// Kick removes another participant. Owner only; the owner itself is immune.
func (s *RoomService) Kick(roomID, hostID, targetID int64) error {
	room, err := s.getRoom(roomID)
	if err != nil {
		return err
	}
	if !room.IsOwner(hostID) {
		return ErrNotHost
	}
	if room.IsOwner(targetID) {
		return ErrCannotKickOwner
	}
	if _, err := s.getParticipant(roomID, targetID); err != nil {
		return err
	}

	if err := s.participants.Remove(roomID, targetID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}

	s.notifier.Disconnect(roomID, targetID, "kicked", map[string]interface{}{"roomId": roomID})
	s.notifier.Broadcast(roomID, "user_left", map[string]interface{}{
		"userId": targetID,
		"kicked": true,
	})
	return nil
}

// Delete removes the room and every dependent row. Owner only.
func (s *RoomService) Delete(roomID, userID int64) error {
	room, err := s.getRoom(roomID)
	if err != nil {
		return err
	}
	if !room.IsOwner(userID) {
		return ErrNotHost
	}

	// Children first; the room row last so a crash mid-way leaves a room
	// that can still be deleted again.
	if err := s.results.ClearRoom(roomID); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	if err := s.puzzles.ClearRoom(roomID); err != nil {
		return fmt.Errorf("clear puzzles: %w", err)
	}
	if err := s.participants.RemoveAll(roomID); err != nil {
		return fmt.Errorf("clear participants: %w", err)
	}
	if err := s.rooms.Delete(roomID); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}

	s.notifier.Shutdown(roomID, "room_deleted", map[string]interface{}{"roomId": roomID})
	return nil
}

// Reopen resets a finished room back to waiting for another run. Scores,
// pointers, puzzles and results are cleared; membership survives.
func (s *RoomService) Reopen(roomID, userID int64) (*models.Room, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsOwner(userID) {
		return nil, ErrNotHost
	}
	if room.Status != models.RoomFinished {
		return nil, ErrRoomNotFinished
	}

	if err := s.results.ClearRoom(roomID); err != nil {
		return nil, fmt.Errorf("clear results: %w", err)
	}
	if err := s.puzzles.ClearRoom(roomID); err != nil {
		return nil, fmt.Errorf("clear puzzles: %w", err)
	}
	if err := s.participants.ResetForReopen(roomID); err != nil {
		return nil, fmt.Errorf("reset participants: %w", err)
	}
	if err := s.rooms.Reopen(roomID); err != nil {
		return nil, fmt.Errorf("reopen room: %w", err)
	}

	reopened, err := s.rooms.GetByID(roomID)
	if err != nil {
		return nil, fmt.Errorf("reread room: %w", err)
	}

	s.notifier.Broadcast(roomID, "room_reopened", map[string]interface{}{"roomId": roomID})
	return reopened, nil
}

// Leaderboard returns the room standings ordered by score
func (s *RoomService) Leaderboard(roomID int64) ([]models.LeaderboardEntry, error) {
	if _, err := s.getRoom(roomID); err != nil {
		return nil, err
	}
	entries, err := s.participants.Leaderboard(roomID)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return entries, nil
}

// MyRooms lists the caller's rooms, newest first
func (s *RoomService) MyRooms(userID int64) ([]models.Room, error) {
	rooms, err := s.rooms.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// Get returns a room with its participant list
func (s *RoomService) Get(roomID int64) (*models.Room, []models.Participant, error) {
	room, err := s.getRoom(roomID)
	if err != nil {
		return nil, nil, err
	}
	participants, err := s.participants.ListByRoom(roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("list participants: %w", err)
	}
	return room, participants, nil
}

func (s *RoomService) getRoom(roomID int64) (*models.Room, error) {
	room, err := s.rooms.GetByID(roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("read room: %w", err)
	}
	return room, nil
}

func (s *RoomService) getParticipant(roomID, userID int64) (*models.Participant, error) {
	p, err := s.participants.Get(roomID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotParticipant
		}
		return nil, fmt.Errorf("read participant: %w", err)
	}
	return p, nil
}

// generateCode draws join codes until one is free. Collisions are rare at
// 32^6 codes, so a handful of retries is plenty.
func (s *RoomService) generateCode() (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(b)

		taken, err := s.rooms.CodeExists(code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !taken {
			return code, nil
		}
		log.Printf("room: join code collision on %s, retrying", code)
	}
	return "", errors.New("could not allocate a unique join code")
}

func normalizeInput(input CreateRoomInput) CreateRoomInput {
	if input.MaxParticipants < minParticipants {
		input.MaxParticipants = minParticipants
	}
	if input.MaxParticipants > maxParticipantsCap {
		input.MaxParticipants = maxParticipantsCap
	}
	if input.PuzzleCount < minPuzzleCount {
		input.PuzzleCount = 10
	}
	if input.PuzzleCount > maxPuzzleCount {
		input.PuzzleCount = maxPuzzleCount
	}
	if input.TimePerPuzzle < minTimePerPuzzle {
		input.TimePerPuzzle = 30
	}
	if input.TimePerPuzzle > maxTimePerPuzzle {
		input.TimePerPuzzle = maxTimePerPuzzle
	}
	if input.SourceMode != models.SourceGenerated {
		input.SourceMode = models.SourceBank
	}
	if input.Difficulty < 1 || input.Difficulty > 5 {
		input.Difficulty = 2
	}
	if input.Language == "" {
		input.Language = "en"
	}
	return input
}
