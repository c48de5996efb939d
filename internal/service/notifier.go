package service

// Notifier relays room events to connected websocket clients. Delivery is
// best effort: the store is authoritative and every event can be recovered
// by polling, so a failed broadcast is never an error here.
type Notifier interface {
	// Broadcast sends an event to every connection of a room.
	Broadcast(roomID int64, event string, payload interface{})

	// Disconnect sends a final event to one user's connection and closes it.
	Disconnect(roomID, userID int64, event string, payload interface{})

	// Shutdown sends a final event to the whole room and closes every
	// connection, tearing the room's relay down.
	Shutdown(roomID int64, event string, payload interface{})
}

// NopNotifier discards all events. Used when no realtime layer is attached.
type NopNotifier struct{}

func (NopNotifier) Broadcast(int64, string, interface{})         {}
func (NopNotifier) Disconnect(int64, int64, string, interface{}) {}
func (NopNotifier) Shutdown(int64, string, interface{})          {}
