package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"triviaclash/internal/service"
)

// GameHandler serves in-game endpoints of active rooms
type GameHandler struct {
	games *service.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

type answerRequest struct {
	Position    int `json:"position"`
	AnswerIndex int `json:"answerIndex"`
	ElapsedMs   int `json:"elapsedMs"`
}

// Answer handles POST /api/rooms/:roomID/answer
func (h *GameHandler) Answer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	result, err := h.games.Submit(r.Context(), roomID, user.UserID, service.SubmitInput{
		Position:    req.Position,
		AnswerIndex: req.AnswerIndex,
		ElapsedMs:   req.ElapsedMs,
	})
	if err != nil {
		respondServiceError(w, "submitting answer", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Status handles GET /api/rooms/:roomID/status
func (h *GameHandler) Status(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	status, err := h.games.Status(r.Context(), roomID, user.UserID)
	if err != nil {
		respondServiceError(w, "loading status", err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

type advanceRequest struct {
	From int `json:"from"`
}

// Advance handles POST /api/rooms/:roomID/advance
func (h *GameHandler) Advance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	puzzle, cursor, err := h.games.Advance(r.Context(), roomID, user.UserID, req.From)
	if err != nil {
		respondServiceError(w, "advancing cursor", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"cursor": cursor,
		"puzzle": puzzle,
	})
}

type freezeRequest struct {
	UserID int64 `json:"userId"`
	Frozen bool  `json:"frozen"`
}

// Freeze handles POST /api/rooms/:roomID/freeze
func (h *GameHandler) Freeze(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	var req freezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.games.Freeze(roomID, user.UserID, req.UserID, req.Frozen); err != nil {
		respondServiceError(w, "freezing participant", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"frozen": req.Frozen})
}
