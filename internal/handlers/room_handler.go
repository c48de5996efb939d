package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"triviaclash/internal/service"
)

// RoomHandler serves room lifecycle and membership endpoints
type RoomHandler struct {
	rooms *service.RoomService
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

type createRoomRequest struct {
	Name            string `json:"name"`
	MaxParticipants int    `json:"maxParticipants"`
	PuzzleCount     int    `json:"puzzleCount"`
	TimePerPuzzle   int    `json:"timePerPuzzle"`
	SourceMode      string `json:"sourceMode"`
	Difficulty      int    `json:"difficulty"`
	Language        string `json:"language"`
}

// Create handles POST /api/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user := GetUserFromContext(r.Context())

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	room, err := h.rooms.Create(user.UserID, user.Username, service.CreateRoomInput{
		Name:            req.Name,
		MaxParticipants: req.MaxParticipants,
		PuzzleCount:     req.PuzzleCount,
		TimePerPuzzle:   req.TimePerPuzzle,
		SourceMode:      req.SourceMode,
		Difficulty:      req.Difficulty,
		Language:        req.Language,
	})
	if err != nil {
		respondServiceError(w, "creating room", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, room)
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

// Join handles POST /api/rooms/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user := GetUserFromContext(r.Context())

	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	room, participant, err := h.rooms.Join(user.UserID, user.Username, req.Code)
	if err != nil {
		respondServiceError(w, "joining room", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"room":        room,
		"participant": participant,
	})
}

type readyRequest struct {
	Ready bool `json:"ready"`
}

// Ready handles POST /api/rooms/:roomID/ready
func (h *RoomHandler) Ready(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	var req readyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.rooms.SetReady(roomID, user.UserID, req.Ready); err != nil {
		respondServiceError(w, "setting ready", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"ready": req.Ready})
}

// Start handles POST /api/rooms/:roomID/start
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	room, first, err := h.rooms.Start(r.Context(), roomID, user.UserID)
	if err != nil {
		respondServiceError(w, "starting room", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"room":   room,
		"puzzle": first,
	})
}

// Leave handles POST /api/rooms/:roomID/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	if err := h.rooms.Leave(roomID, user.UserID); err != nil {
		respondServiceError(w, "leaving room", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"left": true})
}

type kickRequest struct {
	UserID int64 `json:"userId"`
}

// Kick handles POST /api/rooms/:roomID/kick
func (h *RoomHandler) Kick(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	var req kickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.rooms.Kick(roomID, user.UserID, req.UserID); err != nil {
		respondServiceError(w, "kicking participant", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"kicked": true})
}

// Delete handles DELETE /api/rooms/:roomID
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	if err := h.rooms.Delete(roomID, user.UserID); err != nil {
		respondServiceError(w, "deleting room", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Reopen handles POST /api/rooms/:roomID/reopen
func (h *RoomHandler) Reopen(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	room, err := h.rooms.Reopen(roomID, user.UserID)
	if err != nil {
		respondServiceError(w, "reopening room", err)
		return
	}

	respondWithJSON(w, http.StatusOK, room)
}

// Leaderboard handles GET /api/rooms/:roomID/leaderboard
func (h *RoomHandler) Leaderboard(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	entries, err := h.rooms.Leaderboard(roomID)
	if err != nil {
		respondServiceError(w, "loading leaderboard", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}

// MyRooms handles GET /api/rooms/mine
func (h *RoomHandler) MyRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user := GetUserFromContext(r.Context())

	rooms, err := h.rooms.MyRooms(user.UserID)
	if err != nil {
		respondServiceError(w, "listing rooms", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})
}

func roomIDParam(ps httprouter.Params) (int64, error) {
	return strconv.ParseInt(ps.ByName("roomID"), 10, 64)
}
