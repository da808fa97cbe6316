package ws

import (
	"encoding/json"
	"testing"

	"github.com/GhenaBabiuc/sync-watch-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload_Valid(t *testing.T) {
	var p ControlPayload
	err := decodePayload(json.RawMessage(`{"currentTime":42.5}`), &p)
	require.NoError(t, err)
	assert.Equal(t, 42.5, p.CurrentTime)
}

func TestDecodePayload_UnknownField(t *testing.T) {
	var p ControlPayload
	err := decodePayload(json.RawMessage(`{"currentTime":1,"bogus":true}`), &p)
	assert.ErrorIs(t, err, service.ErrInvalidPayload)
}

func TestDecodePayload_Malformed(t *testing.T) {
	var p SwitchEpisodePayload
	assert.ErrorIs(t, decodePayload(json.RawMessage(`{`), &p), service.ErrInvalidPayload)
	assert.ErrorIs(t, decodePayload(json.RawMessage(`{"episodeId":"five"}`), &p), service.ErrInvalidPayload)
	assert.ErrorIs(t, decodePayload(nil, &p), service.ErrInvalidPayload)
}

func TestDecodePayload_TrailingGarbage(t *testing.T) {
	var p ControlPayload
	err := decodePayload(json.RawMessage(`{"currentTime":1}{"currentTime":2}`), &p)
	assert.ErrorIs(t, err, service.ErrInvalidPayload)
}

func TestEnvelope_UnknownType(t *testing.T) {
	var msg Message
	err := json.Unmarshal([]byte(`{"type":"teleport","payload":{}}`), &msg)
	require.NoError(t, err)
	assert.Equal(t, MessageType("teleport"), msg.Type)
}
