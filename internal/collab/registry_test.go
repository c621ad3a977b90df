package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLastWriterWins(t *testing.T) {
	r := NewConnectionRegistry()
	c1 := testClient()
	c2 := testClient()

	r.Register("alice", c1)
	r.Register("alice", c2)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, c2, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryLookupAbsent(t *testing.T) {
	r := NewConnectionRegistry()

	_, ok := r.Lookup("nobody")
	assert.False(t, ok)
}

func TestRegistryRemoveIgnoresStaleConnection(t *testing.T) {
	r := NewConnectionRegistry()
	stale := testClient()
	fresh := testClient()

	r.Register("alice", stale)
	r.Register("alice", fresh)

	// The stale socket disconnecting late must not evict the newer
	// registration.
	_, removed := r.Remove(stale)
	assert.False(t, removed)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, fresh, got)

	userID, removed := r.Remove(fresh)
	assert.True(t, removed)
	assert.Equal(t, "alice", userID)

	_, ok = r.Lookup("alice")
	assert.False(t, ok)
}

func TestRegistryRemoveUnannouncedConnection(t *testing.T) {
	r := NewConnectionRegistry()

	// A connection that never announced presence has no registry entry.
	_, removed := r.Remove(testClient())
	assert.False(t, removed)
}

func TestRegistryListAll(t *testing.T) {
	r := NewConnectionRegistry()
	r.Register("alice", testClient())
	r.Register("bob", testClient())

	assert.ElementsMatch(t, []string{"alice", "bob"}, r.ListAll())
}
