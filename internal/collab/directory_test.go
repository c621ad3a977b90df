package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairingIsIdempotent(t *testing.T) {
	d := NewRoomDirectory()

	first := d.GetOrCreateRoomForPair("alice", "bob")
	second := d.GetOrCreateRoomForPair("alice", "bob")
	reversed := d.GetOrCreateRoomForPair("bob", "alice")

	assert.Equal(t, first, second)
	assert.Equal(t, first, reversed)
	assert.Equal(t, []string{"alice", "bob"}, d.Members(first))
}

func TestPairingGraftsThirdParty(t *testing.T) {
	d := NewRoomDirectory()

	roomAB := d.GetOrCreateRoomForPair("alice", "bob")
	roomAC := d.GetOrCreateRoomForPair("alice", "carol")

	// Carol lands in the room Alice already shares with Bob.
	assert.Equal(t, roomAB, roomAC)
	assert.Equal(t, []string{"alice", "bob", "carol"}, d.Members(roomAB))
}

func TestPairingDisjointPairGetsFreshRoom(t *testing.T) {
	d := NewRoomDirectory()

	roomAB := d.GetOrCreateRoomForPair("alice", "bob")
	roomCD := d.GetOrCreateRoomForPair("carol", "dave")

	assert.NotEqual(t, roomAB, roomCD)
	assert.Equal(t, 2, d.Len())
}

func TestAddMemberIsIdempotent(t *testing.T) {
	d := NewRoomDirectory()
	roomID := d.GetOrCreateRoomForPair("alice", "bob")

	d.AddMember(roomID, "carol")
	d.AddMember(roomID, "carol")
	d.AddMember(roomID, "alice")

	assert.Equal(t, []string{"alice", "bob", "carol"}, d.Members(roomID))
}

func TestAddMemberCreatesUnknownRoom(t *testing.T) {
	d := NewRoomDirectory()

	d.AddMember("room_x", "alice")

	assert.Equal(t, []string{"alice"}, d.Members("room_x"))
}

func TestMembersOfUnknownRoomIsEmpty(t *testing.T) {
	d := NewRoomDirectory()

	members := d.Members("room_missing")

	require.NotNil(t, members)
	assert.Empty(t, members)
}

func TestRemoveDiscardsRoom(t *testing.T) {
	d := NewRoomDirectory()
	roomID := d.GetOrCreateRoomForPair("alice", "bob")

	d.Remove(roomID)

	assert.Empty(t, d.Members(roomID))
	assert.Equal(t, 0, d.Len())

	// Removing again is a no-op.
	d.Remove(roomID)
}

func TestMintRoomIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := mintRoomID()
		assert.False(t, seen[id], "duplicate room id %s", id)
		seen[id] = true
	}
}
