package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"triviaclash/internal/service"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondWithJSON(w, status, map[string]string{"error": userMsg})
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("encoding response: %v", err)
		}
	}
}

// respondServiceError maps the service layer's sentinel errors onto HTTP
// statuses. Anything unmapped is a 500 with a generic message.
func respondServiceError(w http.ResponseWriter, logMsg string, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		respondWithError(w, http.StatusNotFound, "Room not found", "", nil)
	case errors.Is(err, service.ErrNotParticipant):
		respondWithError(w, http.StatusForbidden, "You are not in this room", "", nil)
	case errors.Is(err, service.ErrNotHost):
		respondWithError(w, http.StatusForbidden, "Only the room owner may do this", "", nil)
	case errors.Is(err, service.ErrCannotKickOwner):
		respondWithError(w, http.StatusForbidden, "The room owner cannot be removed", "", nil)
	case errors.Is(err, service.ErrParticipantFrozen):
		respondWithError(w, http.StatusForbidden, "You are frozen in this room", "", nil)
	case errors.Is(err, service.ErrRoomFull):
		respondWithError(w, http.StatusConflict, "Room is full", "", nil)
	case errors.Is(err, service.ErrRoomNotWaiting):
		respondWithError(w, http.StatusConflict, "Room is no longer accepting participants", "", nil)
	case errors.Is(err, service.ErrAlreadyStarted):
		respondWithError(w, http.StatusConflict, "Room has already started", "", nil)
	case errors.Is(err, service.ErrRoomNotActive):
		respondWithError(w, http.StatusConflict, "Room is not active", "", nil)
	case errors.Is(err, service.ErrRoomNotFinished):
		respondWithError(w, http.StatusConflict, "Room has not finished", "", nil)
	case errors.Is(err, service.ErrOutOfRange):
		respondWithError(w, http.StatusUnprocessableEntity, "Position out of range", "", nil)
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "Something went wrong", logMsg, err)
	}
}
