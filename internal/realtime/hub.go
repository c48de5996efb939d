package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"triviaclash/internal/models"
	"triviaclash/internal/puzzle"
	"triviaclash/internal/repository"
)

const chatHistorySize = 50

type inboundChat struct {
	client *Client
	text   string // empty for keepalives
}

// Hub is the per-room relay goroutine. It owns the connection set, the chat
// history and the pacing timer. It holds no game state of its own; whenever
// a decision matters it re-reads the store, so a restarted hub or a crashed
// timer can never corrupt a room.
type Hub struct {
	roomID int64

	rooms        *repository.RoomRepository
	participants *repository.ParticipantRepository
	supplier     *puzzle.Supplier

	register chan *Client
	unreg    chan *Client
	inbound  chan inboundChat
	events   chan Message
	ticks    chan int // expected cursor index of a fired timer
	done     chan struct{}

	mu         sync.RWMutex
	clients    map[*Client]bool
	byUser     map[int64]*Client
	chat       []ChatEntry
	lastActive time.Time

	timer *time.Timer
}

func newHub(roomID int64, rooms *repository.RoomRepository, participants *repository.ParticipantRepository, supplier *puzzle.Supplier) *Hub {
	return &Hub{
		roomID:       roomID,
		rooms:        rooms,
		participants: participants,
		supplier:     supplier,
		register:     make(chan *Client),
		unreg:        make(chan *Client),
		inbound:      make(chan inboundChat, 16),
		events:       make(chan Message, 64),
		ticks:        make(chan int, 4),
		done:         make(chan struct{}),
		clients:      make(map[*Client]bool),
		byUser:       make(map[int64]*Client),
		lastActive:   time.Now(),
	}
}

func (h *Hub) run() {
	defer h.stopTimer()

	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				if h.byUser[c.userID] == c {
					delete(h.byUser, c.userID)
				}
			}
			h.mu.Unlock()

		case in := <-h.inbound:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.mu.Unlock()
			if in.text != "" {
				h.handleChat(in)
			}

		case msg := <-h.events:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.mu.Unlock()
			if msg.Type == "game_started" {
				h.scheduleFromStore()
			}
			h.broadcast(msg)

		case expected := <-h.ticks:
			h.handleTick(expected)

		case <-h.done:
			return
		}
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.mu.Lock()
	select {
	case <-h.done:
		// Hub torn down while this registration was queued.
		h.mu.Unlock()
		_ = c.conn.Close()
		return
	default:
	}
	h.lastActive = time.Now()

	// One live connection per user; a newer socket supersedes the old one.
	if prev, ok := h.byUser[c.userID]; ok && prev != c {
		delete(h.clients, prev)
		close(prev.send)
		_ = prev.conn.Close()
	}
	h.clients[c] = true
	h.byUser[c.userID] = c

	history := make([]ChatEntry, len(h.chat))
	copy(history, h.chat)
	h.mu.Unlock()

	room, err := h.rooms.GetByID(h.roomID)
	if err != nil {
		log.Printf("realtime: init read room %d: %v", h.roomID, err)
		return
	}
	participants, err := h.participants.ListByRoom(h.roomID)
	if err != nil {
		log.Printf("realtime: init list participants %d: %v", h.roomID, err)
		return
	}

	// closeAll may have run during the store reads above and closed c.send;
	// only deliver while the client is still registered, under the lock that
	// teardown holds.
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	select {
	case c.send <- Message{Type: "init", Data: InitData{
		Room:         room,
		Participants: participants,
		Chat:         history,
	}}:
	default:
	}
	h.mu.Unlock()

	h.broadcast(Message{Type: "user_connected", Data: map[string]interface{}{
		"userId":   c.userID,
		"username": c.username,
	}})

	// The room may already be running when the hub first sees a connection
	// (server restart, late join); make sure the pacing timer exists.
	if room.Status == models.RoomActive {
		h.scheduleFromStore()
	}
}

func (h *Hub) handleChat(in inboundChat) {
	entry := ChatEntry{
		UserID:   in.client.userID,
		Username: in.client.username,
		Text:     in.text,
		SentAt:   time.Now(),
	}

	h.mu.Lock()
	h.chat = append(h.chat, entry)
	if len(h.chat) > chatHistorySize {
		h.chat = h.chat[len(h.chat)-chatHistorySize:]
	}
	h.mu.Unlock()

	h.broadcast(Message{Type: "chat", Data: entry})
}

// handleTick advances the room-wide pacing cursor when its per-puzzle time
// is up. The store is re-read first: a tick scheduled before a pause,
// restart or manual advance may be stale, in which case it reschedules
// against reality instead of advancing.
func (h *Hub) handleTick(expected int) {
	room, err := h.rooms.GetByID(h.roomID)
	if err != nil {
		log.Printf("realtime: timer read room %d: %v", h.roomID, err)
		return
	}
	if room.Status != models.RoomActive {
		return
	}

	if room.CurrentIndex != expected {
		// Someone else moved the cursor; follow it.
		h.scheduleTick(room, room.CurrentIndex)
		return
	}

	if expected+1 >= room.PuzzleCount {
		// Last puzzle; completion comes from answers, not the timer.
		return
	}

	ok, err := h.rooms.AdvanceCursor(h.roomID, expected, expected+1)
	if err != nil {
		log.Printf("realtime: timer advance room %d: %v", h.roomID, err)
		return
	}
	if !ok {
		current, err := h.rooms.GetByID(h.roomID)
		if err == nil && current.Status == models.RoomActive {
			h.scheduleTick(current, current.CurrentIndex)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	next, err := h.supplier.Ensure(ctx, room, expected+1)
	cancel()
	if err != nil {
		log.Printf("realtime: timer puzzle room %d position %d: %v", h.roomID, expected+1, err)
	} else {
		redacted := next.Redacted()
		h.broadcast(Message{Type: "new_puzzle", Data: map[string]interface{}{
			"position": expected + 1,
			"puzzle":   redacted,
		}})
	}

	h.scheduleTick(room, expected+1)
}

// scheduleFromStore (re)arms the pacing timer for wherever the cursor
// currently sits. Idempotent; an existing timer is replaced.
func (h *Hub) scheduleFromStore() {
	room, err := h.rooms.GetByID(h.roomID)
	if err != nil {
		log.Printf("realtime: schedule read room %d: %v", h.roomID, err)
		return
	}
	if room.Status != models.RoomActive {
		return
	}
	h.scheduleTick(room, room.CurrentIndex)
}

func (h *Hub) scheduleTick(room *models.Room, index int) {
	h.stopTimer()
	if room.TimePerPuzzle <= 0 {
		return
	}

	d := time.Duration(room.TimePerPuzzle) * time.Second
	expiresAt := time.Now().Add(d)
	h.timer = time.AfterFunc(d, func() {
		select {
		case h.ticks <- index:
		case <-h.done:
		}
	})

	// The absolute deadline lets a client that reconnects mid-puzzle render
	// the remaining time instead of restarting from the full duration.
	h.broadcast(Message{Type: "timer_started", Data: map[string]interface{}{
		"position":  index,
		"seconds":   room.TimePerPuzzle,
		"expiresAt": expiresAt,
	}})
}

func (h *Hub) stopTimer() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// broadcast fans a message out to every connection, dropping clients whose
// send buffer is full.
func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
			if h.byUser[client.userID] == client {
				delete(h.byUser, client.userID)
			}
		}
	}
}

// sendTo delivers a message to one user's connection, closing it afterwards
// when closeAfter is set (kick).
func (h *Hub) sendTo(userID int64, msg Message, closeAfter bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.byUser[userID]
	if !ok {
		return
	}

	select {
	case client.send <- msg:
	default:
	}

	if closeAfter {
		delete(h.clients, client)
		delete(h.byUser, userID)
		close(client.send)
		_ = client.conn.Close()
	}
}

// closeAll disconnects every client and stops the run loop
func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
	h.byUser = make(map[int64]*Client)
	h.mu.Unlock()

	select {
	case <-h.done:
	default:
		close(h.done)
	}
}
