package realtime

import "time"

// Message is the outbound event envelope. Every frame a client receives has
// a type and a type-specific data object.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ClientMessage is what clients send over the socket. The socket is a relay
// plus chat; game actions go over HTTP where they are idempotent.
type ClientMessage struct {
	Type string `json:"type"` // "chat", "ping"
	Text string `json:"text,omitempty"`
}

// ChatEntry is one chat line, kept in the hub's bounded history
type ChatEntry struct {
	UserID   int64     `json:"userId"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sentAt"`
}

// InitData is sent once to a freshly registered connection so a reconnecting
// client can resync without polling.
type InitData struct {
	Room         interface{} `json:"room"`
	Participants interface{} `json:"participants"`
	Chat         []ChatEntry `json:"chat"`
}
