package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"triviaclash/internal/realtime"
	"triviaclash/internal/service"
)

// WSHandler attaches authenticated participants to their room's relay
type WSHandler struct {
	rooms   *service.RoomService
	manager *realtime.Manager
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(rooms *service.RoomService, manager *realtime.Manager) *WSHandler {
	return &WSHandler{rooms: rooms, manager: manager}
}

// Serve handles GET /ws/rooms/:roomID. Only current participants may
// connect; the membership check runs against the store on every handshake.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user := GetUserFromContext(r.Context())
	roomID, err := roomIDParam(ps)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid room id", "", err)
		return
	}

	_, participants, err := h.rooms.Get(roomID)
	if err != nil {
		respondServiceError(w, "ws room lookup", err)
		return
	}

	member := false
	for _, p := range participants {
		if p.UserID == user.UserID {
			member = true
			break
		}
	}
	if !member {
		respondWithError(w, http.StatusForbidden, "You are not in this room", "", nil)
		return
	}

	h.manager.Connect(w, r, roomID, user.UserID, user.Username)
}
