package realtime

import (
	"strings"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

const maxChatLength = 500

// truncateChat caps a chat message at maxChatLength bytes without splitting
// a multi-byte rune, so the broadcast stays valid UTF-8.
func truncateChat(text string) string {
	if len(text) <= maxChatLength {
		return text
	}
	cut := maxChatLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Client is one websocket connection of one participant
type Client struct {
	conn     *websocket.Conn
	send     chan Message
	userID   int64
	username string
}

func newClient(conn *websocket.Conn, userID int64, username string) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan Message, 16),
		userID:   userID,
		username: username,
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "chat":
			text := strings.TrimSpace(msg.Text)
			if text == "" {
				continue
			}
			text = truncateChat(text)
			select {
			case h.inbound <- inboundChat{client: c, text: text}:
			case <-h.done:
				return
			}
		case "ping":
			// Keepalive only; lastActive is bumped by the hub on receipt.
			select {
			case h.inbound <- inboundChat{client: c}:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
