package collab

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoomDirectory maps a room identifier to its member user identifiers.
// Membership is logical: it tracks durable identifiers, not live
// connections, and survives member disconnects until an explicit
// end-session. Owned by the hub's event loop, no lock.
type RoomDirectory struct {
	rooms map[string][]string
}

func NewRoomDirectory() *RoomDirectory {
	return &RoomDirectory{rooms: make(map[string][]string)}
}

// GetOrCreateRoomForPair returns the room for userA and userB, creating
// one if needed. If a room already holds both, it is reused unchanged.
// Otherwise a room holding userA but not userB has userB grafted into
// it; this models "the other party already started a room, pull the
// invitee in". Only with no match at all is a fresh room minted.
//
// The linear scan is deliberate: room counts stay small in a single
// process. Note the graft can merge two otherwise unrelated sessions
// when A-B and A-C invitations race; the behavior is pinned by tests
// and should not be extended.
func (d *RoomDirectory) GetOrCreateRoomForPair(userA, userB string) string {
	for roomID, members := range d.rooms {
		if contains(members, userA) && contains(members, userB) {
			return roomID
		}
	}
	for roomID, members := range d.rooms {
		if contains(members, userA) {
			d.rooms[roomID] = append(members, userB)
			return roomID
		}
	}

	roomID := mintRoomID()
	d.rooms[roomID] = []string{userA, userB}
	return roomID
}

// AddMember appends userID to the room, creating the room entry if it
// does not exist. Adding an existing member is a no-op.
func (d *RoomDirectory) AddMember(roomID, userID string) {
	if contains(d.rooms[roomID], userID) {
		return
	}
	d.rooms[roomID] = append(d.rooms[roomID], userID)
}

// Members returns the room's member identifiers in insertion order,
// deduplicated. An unknown room yields an empty slice, never an error.
func (d *RoomDirectory) Members(roomID string) []string {
	members := d.rooms[roomID]
	out := make([]string, 0, len(members))
	for _, userID := range members {
		if !contains(out, userID) {
			out = append(out, userID)
		}
	}
	return out
}

// Remove discards the room entry. Unknown rooms are a no-op.
func (d *RoomDirectory) Remove(roomID string) {
	delete(d.rooms, roomID)
}

// RoomIDs returns a snapshot of all known room identifiers.
func (d *RoomDirectory) RoomIDs() []string {
	ids := make([]string, 0, len(d.rooms))
	for roomID := range d.rooms {
		ids = append(ids, roomID)
	}
	return ids
}

func (d *RoomDirectory) Len() int {
	return len(d.rooms)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// mintRoomID generates a fresh opaque room identifier. The timestamp
// keeps ids roughly sortable by creation; the random suffix carries
// the uniqueness.
func mintRoomID() string {
	return fmt.Sprintf("room_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
