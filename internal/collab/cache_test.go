package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawMsg(s string) json.RawMessage { return json.RawMessage(s) }

func TestHistoryPreservesAppendOrder(t *testing.T) {
	c := NewRoomStateCache()

	c.AppendMessage("room_1", rawMsg(`{"text":"first"}`))
	c.AppendMessage("room_1", rawMsg(`{"text":"second"}`))
	c.AppendMessage("room_1", rawMsg(`{"text":"third"}`))

	history := c.History("room_1")
	require.Len(t, history, 3)
	assert.JSONEq(t, `{"text":"first"}`, string(history[0]))
	assert.JSONEq(t, `{"text":"second"}`, string(history[1]))
	assert.JSONEq(t, `{"text":"third"}`, string(history[2]))
}

func TestHistoryOfUnknownRoomIsEmpty(t *testing.T) {
	c := NewRoomStateCache()

	assert.Empty(t, c.History("room_missing"))
}

func TestHistoryReturnsCopy(t *testing.T) {
	c := NewRoomStateCache()
	c.AppendMessage("room_1", rawMsg(`"a"`))

	history := c.History("room_1")
	history[0] = rawMsg(`"mutated"`)

	assert.JSONEq(t, `"a"`, string(c.History("room_1")[0]))
}

func TestSnapshotLastWriteWins(t *testing.T) {
	c := NewRoomStateCache()

	_, ok := c.Snapshot("room_1")
	assert.False(t, ok)

	c.SaveSnapshot("room_1", rawMsg(`"data:image/png;v1"`))
	c.SaveSnapshot("room_1", rawMsg(`"data:image/png;v2"`))

	blob, ok := c.Snapshot("room_1")
	require.True(t, ok)
	assert.JSONEq(t, `"data:image/png;v2"`, string(blob))
}

func TestSnapshotDoesNotTouchHistory(t *testing.T) {
	c := NewRoomStateCache()

	c.AppendMessage("room_1", rawMsg(`{"text":"hello"}`))
	c.SaveSnapshot("room_1", rawMsg(`"data:image/png;v1"`))

	require.Len(t, c.History("room_1"), 1)
	assert.JSONEq(t, `{"text":"hello"}`, string(c.History("room_1")[0]))
}

func TestDropDiscardsHistoryAndSnapshot(t *testing.T) {
	c := NewRoomStateCache()
	c.AppendMessage("room_1", rawMsg(`{"text":"hello"}`))
	c.SaveSnapshot("room_1", rawMsg(`"blob"`))

	c.Drop("room_1")

	assert.Empty(t, c.History("room_1"))
	_, ok := c.Snapshot("room_1")
	assert.False(t, ok)
}
