package realtime

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"triviaclash/internal/puzzle"
	"triviaclash/internal/repository"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Manager holds one hub per room and implements the service layer's
// Notifier. Hubs exist only while someone is connected; events for rooms
// with no hub are dropped, since every event is recoverable by polling.
type Manager struct {
	mu   sync.Mutex
	hubs map[int64]*Hub

	rooms        *repository.RoomRepository
	participants *repository.ParticipantRepository
	supplier     *puzzle.Supplier
	idleTimeout  time.Duration
}

// NewManager creates the hub registry and starts the idle reaper
func NewManager(rooms *repository.RoomRepository, participants *repository.ParticipantRepository, supplier *puzzle.Supplier, idleTimeout time.Duration) *Manager {
	m := &Manager{
		hubs:         make(map[int64]*Hub),
		rooms:        rooms,
		participants: participants,
		supplier:     supplier,
		idleTimeout:  idleTimeout,
	}
	if idleTimeout > 0 {
		go m.reaperLoop()
	}
	return m
}

func (m *Manager) getHub(roomID int64) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomID]; ok {
		return hub
	}

	hub := newHub(roomID, m.rooms, m.participants, m.supplier)
	m.hubs[roomID] = hub
	go hub.run()
	return hub
}

func (m *Manager) lookup(roomID int64) (*Hub, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hub, ok := m.hubs[roomID]
	return hub, ok
}

// Connect upgrades the request and attaches the caller to the room's hub.
// Blocks until the connection closes.
func (m *Manager) Connect(w http.ResponseWriter, r *http.Request, roomID, userID int64, username string) {
	hub := m.getHub(roomID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade: %v", err)
		return
	}

	client := newClient(conn, userID, username)

	select {
	case hub.register <- client:
	case <-hub.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	client.readPump(hub)
}

// Broadcast implements service.Notifier. Non-blocking; a hub drowning in
// events loses some, clients recover by polling.
func (m *Manager) Broadcast(roomID int64, event string, payload interface{}) {
	hub, ok := m.lookup(roomID)
	if !ok {
		return
	}

	select {
	case hub.events <- Message{Type: event, Data: payload}:
	default:
		log.Printf("realtime: dropping event %s for room %d", event, roomID)
	}
}

// Disconnect implements service.Notifier: a final message to one user, then
// their socket is closed.
func (m *Manager) Disconnect(roomID, userID int64, event string, payload interface{}) {
	hub, ok := m.lookup(roomID)
	if !ok {
		return
	}
	hub.sendTo(userID, Message{Type: event, Data: payload}, true)
}

// Shutdown implements service.Notifier: a final message to the whole room,
// then every socket is closed and the hub is removed.
func (m *Manager) Shutdown(roomID int64, event string, payload interface{}) {
	m.mu.Lock()
	hub, ok := m.hubs[roomID]
	if ok {
		delete(m.hubs, roomID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	hub.broadcast(Message{Type: event, Data: payload})
	hub.closeAll()
}

// reaperLoop removes hubs that have been idle longer than idleTimeout
func (m *Manager) reaperLoop() {
	ticker := time.NewTicker(m.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-m.idleTimeout)

		m.mu.Lock()
		for id, hub := range m.hubs {
			hub.mu.RLock()
			last := hub.lastActive
			hub.mu.RUnlock()

			if last.Before(cutoff) {
				delete(m.hubs, id)
				go hub.closeAll()
			}
		}
		m.mu.Unlock()
	}
}
