package ws

import (
	"bytes"
	"encoding/json"

	"github.com/GhenaBabiuc/sync-watch-service/internal/service"
)

// Inbound payload shapes. Every client frame carries the envelope
// type plus one of these; unknown or malformed payloads are rejected
// back to the sender only.

// ControlPayload is carried by play, pause and seek frames
type ControlPayload struct {
	CurrentTime float64 `json:"currentTime"`
}

// TimeUpdatePayload is a viewer's self-reported playback position
type TimeUpdatePayload struct {
	CurrentTime float64 `json:"currentTime"`
}

// SwitchEpisodePayload names the target episode of a direct switch
type SwitchEpisodePayload struct {
	EpisodeID int64 `json:"episodeId"`
}

// QualityPayload is carried by changeQuality frames and relayed as-is
type QualityPayload struct {
	Quality string `json:"quality"`
}

// ErrorPayload is the error reply sent to the offending sender
type ErrorPayload struct {
	Error string `json:"error"`
}

// RoomStatePayload is the reply to a join: everything a late joiner
// needs to render the current playback position
type RoomStatePayload struct {
	RoomID           string  `json:"roomId"`
	RoomType         string  `json:"roomType"`
	CurrentTime      float64 `json:"currentTime"`
	IsPlaying        bool    `json:"isPlaying"`
	LastActionUserID string  `json:"lastActionUserId,omitempty"`
	CurrentEpisodeID int64   `json:"currentEpisodeId,omitempty"`
	StreamURL        string  `json:"streamUrl"`
}

// HeartbeatAckPayload is the reply to a heartbeat frame
type HeartbeatAckPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// QualityChangedPayload is the room-wide relay of a quality switch
type QualityChangedPayload struct {
	Quality string `json:"quality"`
	UserID  string `json:"userId"`
}

// decodePayload unmarshals a frame payload strictly: unknown fields
// and trailing garbage both count as invalid.
func decodePayload(raw json.RawMessage, dest interface{}) error {
	if len(raw) == 0 {
		return service.ErrInvalidPayload
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return service.ErrInvalidPayload
	}
	if dec.More() {
		return service.ErrInvalidPayload
	}
	return nil
}
