package service

// Broadcaster interface for WebSocket fan-out (avoids import cycle)
type Broadcaster interface {
	// BroadcastToRoom sends to every subscriber of a room.
	BroadcastToRoom(roomID string, msgType string, payload interface{})
	// BroadcastToRoomExcept sends to every subscriber except one user.
	BroadcastToRoomExcept(roomID, exceptUserID string, msgType string, payload interface{})
	// SendToUser sends to a single subscriber of a room.
	SendToUser(roomID, userID string, msgType string, payload interface{})
	// CloseRoom drops every subscriber of a room.
	CloseRoom(roomID string)
}
