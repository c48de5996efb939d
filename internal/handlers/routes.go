package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

// NewRouter wires every endpoint. All room and game routes require a valid
// token; identity itself is minted by an external service sharing the JWT
// secret. The dev token endpoint is only registered when enabled.
func NewRouter(mw *Middleware, rooms *RoomHandler, games *GameHandler, ws *WSHandler, devTokens bool, jwtSecret string) *httprouter.Router {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.POST("/api/rooms", mw.RequireAuth(rooms.Create))
	router.POST("/api/rooms/join", mw.RequireAuth(rooms.Join))
	router.GET("/api/rooms/mine", mw.RequireAuth(rooms.MyRooms))
	router.POST("/api/rooms/:roomID/ready", mw.RequireAuth(rooms.Ready))
	router.POST("/api/rooms/:roomID/start", mw.RequireAuth(rooms.Start))
	router.POST("/api/rooms/:roomID/leave", mw.RequireAuth(rooms.Leave))
	router.POST("/api/rooms/:roomID/kick", mw.RequireAuth(rooms.Kick))
	router.POST("/api/rooms/:roomID/reopen", mw.RequireAuth(rooms.Reopen))
	router.DELETE("/api/rooms/:roomID", mw.RequireAuth(rooms.Delete))
	router.GET("/api/rooms/:roomID/leaderboard", mw.RequireAuth(rooms.Leaderboard))

	router.POST("/api/rooms/:roomID/answer", mw.RequireAuth(games.Answer))
	router.GET("/api/rooms/:roomID/status", mw.RequireAuth(games.Status))
	router.POST("/api/rooms/:roomID/advance", mw.RequireAuth(games.Advance))
	router.POST("/api/rooms/:roomID/freeze", mw.RequireAuth(games.Freeze))

	router.GET("/ws/rooms/:roomID", mw.RequireAuth(ws.Serve))

	if devTokens {
		router.HandlerFunc(http.MethodPost, "/api/dev/token", devTokenHandler(jwtSecret))
	}

	return router
}

type devTokenRequest struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// devTokenHandler mints tokens locally so the API can be exercised without
// an identity service. Never enable it in production.
func devTokenHandler(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req devTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 || req.Username == "" {
			respondWithError(w, http.StatusBadRequest, "userId and username are required", "", err)
			return
		}

		token, err := SignToken(secret, req.UserID, req.Username, 24*time.Hour)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Could not mint token", "signing dev token", err)
			return
		}

		respondWithJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}
