package collab

import "encoding/json"

// RoomStateCache holds the replayable state of each room: the ordered
// chat history and the most recent full-canvas snapshot. Both are
// volatile and discarded together when the room's session ends.
// Incremental drawing strokes are never cached; without the strokes
// that came before them they cannot be replayed, so only full snapshots
// are kept. Owned by the hub's event loop, no lock.
type RoomStateCache struct {
	histories map[string][]json.RawMessage
	snapshots map[string]json.RawMessage
}

func NewRoomStateCache() *RoomStateCache {
	return &RoomStateCache{
		histories: make(map[string][]json.RawMessage),
		snapshots: make(map[string]json.RawMessage),
	}
}

// AppendMessage appends to the room's chat history, creating it if
// absent. History is unbounded for the life of the room.
func (c *RoomStateCache) AppendMessage(roomID string, message json.RawMessage) {
	c.histories[roomID] = append(c.histories[roomID], message)
}

// History returns a copy of the room's chat history in append order.
func (c *RoomStateCache) History(roomID string) []json.RawMessage {
	history := c.histories[roomID]
	out := make([]json.RawMessage, len(history))
	copy(out, history)
	return out
}

// SaveSnapshot stores the room's canvas snapshot, replacing any prior
// one. Last write wins, no versioning.
func (c *RoomStateCache) SaveSnapshot(roomID string, blob json.RawMessage) {
	c.snapshots[roomID] = blob
}

// Snapshot returns the room's current canvas snapshot, if any.
func (c *RoomStateCache) Snapshot(roomID string) (json.RawMessage, bool) {
	blob, ok := c.snapshots[roomID]
	return blob, ok
}

// Drop discards all cached state for the room.
func (c *RoomStateCache) Drop(roomID string) {
	delete(c.histories, roomID)
	delete(c.snapshots, roomID)
}
