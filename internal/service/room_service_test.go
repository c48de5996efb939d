package service

import (
	"context"
	"errors"
	"testing"

	"triviaclash/internal/models"
)

func TestCreateAppliesDefaults(t *testing.T) {
	env := newTestEnv(t)

	room, err := env.rooms.Create(1, "alice", CreateRoomInput{Name: "  quiz night  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if room.Name != "quiz night" {
		t.Errorf("name = %q", room.Name)
	}
	if room.Status != models.RoomWaiting {
		t.Errorf("status = %q, want waiting", room.Status)
	}
	if room.PuzzleCount != 10 {
		t.Errorf("puzzleCount = %d, want default 10", room.PuzzleCount)
	}
	if room.TimePerPuzzle != 30 {
		t.Errorf("timePerPuzzle = %d, want default 30", room.TimePerPuzzle)
	}
	if room.SourceMode != models.SourceBank {
		t.Errorf("sourceMode = %q, want bank", room.SourceMode)
	}
	if len(room.Code) != codeLength {
		t.Errorf("code = %q, want %d characters", room.Code, codeLength)
	}
	for _, c := range room.Code {
		found := false
		for _, a := range codeAlphabet {
			if c == a {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("code %q contains %q outside the alphabet", room.Code, c)
		}
	}

	// The creator is already inside as host.
	p, err := env.participants.Get(room.ID, 1)
	if err != nil {
		t.Fatalf("get host participant: %v", err)
	}
	if p.Role != models.RoleHost {
		t.Errorf("role = %q, want host", p.Role)
	}
}

func TestCreateRequiresName(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.rooms.Create(1, "alice", CreateRoomInput{Name: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestJoinByCode(t *testing.T) {
	env := newTestEnv(t)

	room, err := env.rooms.Create(1, "alice", CreateRoomInput{Name: "quiz", MaxParticipants: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, err := env.rooms.Join(2, "bob", "NOSUCH"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("bad code: err = %v, want ErrRoomNotFound", err)
	}

	_, p, err := env.rooms.Join(2, "bob", room.Code)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.Role != models.RolePlayer {
		t.Errorf("role = %q, want player", p.Role)
	}

	// Room now holds 2 of 2; a third user is turned away.
	if _, _, err := env.rooms.Join(3, "carol", room.Code); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("full room: err = %v, want ErrRoomFull", err)
	}

	// Rejoining is idempotent and exempt from the capacity check.
	if _, _, err := env.rooms.Join(2, "bob", room.Code); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
}

func TestJoinAfterStart(t *testing.T) {
	env := newTestEnv(t)
	room := startedRoom(t, env, 2)

	// New joins are closed once the room leaves waiting.
	if _, _, err := env.rooms.Join(3, "carol", room.Code); !errors.Is(err, ErrRoomNotWaiting) {
		t.Fatalf("err = %v, want ErrRoomNotWaiting", err)
	}

	// An existing participant reconnecting mid-game is always let back in.
	if _, _, err := env.rooms.Join(2, "bob", room.Code); err != nil {
		t.Fatalf("rejoin mid-game: %v", err)
	}
}

func TestReadyIsAdvisory(t *testing.T) {
	env := newTestEnv(t)

	room, err := env.rooms.Create(1, "alice", CreateRoomInput{Name: "quiz", PuzzleCount: 1, SourceMode: models.SourceGenerated})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := env.rooms.Join(2, "bob", room.Code); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := env.rooms.SetReady(room.ID, 2, true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if !env.notifier.saw("ready_status") {
		t.Error("expected a ready_status broadcast")
	}

	p, err := env.participants.Get(room.ID, 2)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if !p.IsReady {
		t.Error("ready flag not stored")
	}

	// Alice is not ready and the start must still succeed.
	if _, _, err := env.rooms.Start(context.Background(), room.ID, 1); err != nil {
		t.Fatalf("start with unready host: %v", err)
	}
}

func TestKick(t *testing.T) {
	env := newTestEnv(t)

	room, err := env.rooms.Create(1, "alice", CreateRoomInput{Name: "quiz"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := env.rooms.Join(2, "bob", room.Code); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := env.rooms.Kick(room.ID, 2, 1); !errors.Is(err, ErrNotHost) {
		t.Fatalf("non-owner kick: err = %v, want ErrNotHost", err)
	}
	if err := env.rooms.Kick(room.ID, 1, 1); !errors.Is(err, ErrCannotKickOwner) {
		t.Fatalf("kick owner: err = %v, want ErrCannotKickOwner", err)
	}

	if err := env.rooms.Kick(room.ID, 1, 2); err != nil {
		t.Fatalf("kick: %v", err)
	}
	if _, err := env.participants.Get(room.ID, 2); err == nil {
		t.Error("kicked participant still present")
	}
	if !env.notifier.saw("disconnect:kicked") {
		t.Error("expected the kicked user's socket to be closed")
	}
}

func TestLeaveAndOwnerTeardown(t *testing.T) {
	env := newTestEnv(t)

	room, err := env.rooms.Create(1, "alice", CreateRoomInput{Name: "quiz"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := env.rooms.Join(2, "bob", room.Code); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := env.rooms.Leave(room.ID, 2); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := env.participants.Get(room.ID, 2); err == nil {
		t.Error("left participant still present")
	}

	// The owner leaving dissolves the room entirely.
	if err := env.rooms.Leave(room.ID, 1); err != nil {
		t.Fatalf("owner leave: %v", err)
	}
	if _, _, err := env.rooms.Get(room.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("room lookup: err = %v, want ErrRoomNotFound", err)
	}
	if !env.notifier.saw("shutdown:room_deleted") {
		t.Error("expected a room_deleted shutdown")
	}
}

func TestReopen(t *testing.T) {
	env := newTestEnv(t)
	room := startedRoom(t, env, 1)
	ctx := context.Background()

	if _, err := env.rooms.Reopen(room.ID, 1); !errors.Is(err, ErrRoomNotFinished) {
		t.Fatalf("reopen active: err = %v, want ErrRoomNotFinished", err)
	}

	// Play the room to completion.
	if _, err := env.games.Submit(ctx, room.ID, 1, SubmitInput{Position: 0, AnswerIndex: 0, ElapsedMs: 2000}); err != nil {
		t.Fatalf("alice submit: %v", err)
	}
	if _, err := env.games.Submit(ctx, room.ID, 2, SubmitInput{Position: 0, AnswerIndex: 0, ElapsedMs: 3000}); err != nil {
		t.Fatalf("bob submit: %v", err)
	}

	if _, err := env.rooms.Reopen(room.ID, 2); !errors.Is(err, ErrNotHost) {
		t.Fatalf("non-owner reopen: err = %v, want ErrNotHost", err)
	}

	reopened, err := env.rooms.Reopen(room.ID, 1)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != models.RoomWaiting {
		t.Errorf("status = %q, want waiting", reopened.Status)
	}
	if reopened.CurrentIndex != 0 {
		t.Errorf("cursor = %d, want 0", reopened.CurrentIndex)
	}

	// Scores and pointers are wiped, membership survives.
	p, err := env.participants.Get(room.ID, 1)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	if p.Score != 0 || p.Pointer != 0 || p.SolvedCount != 0 {
		t.Errorf("participant not reset: %+v", p)
	}
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	room := startedRoom(t, env, 2)
	ctx := context.Background()

	// Bob outsolves alice this round.
	if _, err := env.games.Submit(ctx, room.ID, 2, SubmitInput{Position: 0, AnswerIndex: 0, ElapsedMs: 2000}); err != nil {
		t.Fatalf("bob submit: %v", err)
	}
	if _, err := env.games.Submit(ctx, room.ID, 2, SubmitInput{Position: 1, AnswerIndex: 0, ElapsedMs: 2500}); err != nil {
		t.Fatalf("bob submit: %v", err)
	}
	if _, err := env.games.Submit(ctx, room.ID, 1, SubmitInput{Position: 0, AnswerIndex: 3, ElapsedMs: 9000}); err != nil {
		t.Fatalf("alice submit: %v", err)
	}

	entries, err := env.rooms.Leaderboard(room.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].UserID != 2 {
		t.Errorf("leader = user %d, want bob", entries[0].UserID)
	}
	if entries[0].CorrectAnswers != 2 || entries[1].CorrectAnswers != 0 {
		t.Errorf("correct answers = %d/%d", entries[0].CorrectAnswers, entries[1].CorrectAnswers)
	}
}

func TestMyRooms(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.rooms.Create(1, "alice", CreateRoomInput{Name: "one"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.rooms.Create(2, "bob", CreateRoomInput{Name: "two"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rooms, err := env.rooms.MyRooms(1)
	if err != nil {
		t.Fatalf("my rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != first.ID {
		t.Errorf("rooms = %+v, want only alice's room", rooms)
	}
}
