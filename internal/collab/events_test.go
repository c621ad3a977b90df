package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDNormalizesNumbersAndStrings(t *testing.T) {
	var p struct {
		UserID ID `json:"userId"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"userId":"5"}`), &p))
	fromString := p.UserID

	require.NoError(t, json.Unmarshal([]byte(`{"userId":5}`), &p))
	fromNumber := p.UserID

	// 5 and "5" must land on the same map key.
	assert.Equal(t, fromString, fromNumber)
	assert.Equal(t, "5", fromNumber.String())
}

func TestIDUnwrapsObjectForm(t *testing.T) {
	var p struct {
		UserID ID `json:"userId"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"userId":{"id":"abc"}}`), &p))
	assert.Equal(t, "abc", p.UserID.String())
}

func TestIDNullIsEmpty(t *testing.T) {
	var p struct {
		UserID ID `json:"userId"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"userId":null}`), &p))
	assert.Equal(t, "", p.UserID.String())
}

func TestIDRejectsArrays(t *testing.T) {
	var p struct {
		UserID ID `json:"userId"`
	}

	assert.Error(t, json.Unmarshal([]byte(`{"userId":["a"]}`), &p))
}

func TestDecodePayloadEmptyDataLeavesZeroValues(t *testing.T) {
	var p presenceOnlinePayload

	require.NoError(t, decodePayload(nil, &p))
	assert.Equal(t, "", p.UserID.String())
}

func TestEnvelopeRoundTrip(t *testing.T) {
	frame := []byte(`{"event":"chat-message","data":{"roomId":"room_1","message":{"text":"hi"}}}`)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventChatMessage, env.Event)

	var p chatMessagePayload
	require.NoError(t, decodePayload(env.Data, &p))
	assert.Equal(t, "room_1", p.RoomID.String())
	assert.JSONEq(t, `{"text":"hi"}`, string(p.Message))
}
