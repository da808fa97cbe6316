package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Inbound message types
const (
	MsgJoin              MessageType = "join"
	MsgLeave             MessageType = "leave"
	MsgPlay              MessageType = "play"
	MsgPause             MessageType = "pause"
	MsgSeek              MessageType = "seek"
	MsgTimeUpdate        MessageType = "timeUpdate"
	MsgSwitchEpisode     MessageType = "switchEpisode"
	MsgNextEpisode       MessageType = "nextEpisode"
	MsgPreviousEpisode   MessageType = "previousEpisode"
	MsgAvailableEpisodes MessageType = "getAvailableEpisodes"
	MsgRoomInfo          MessageType = "getRoomInfo"
	MsgChangeQuality     MessageType = "changeQuality"
	MsgHeartbeat         MessageType = "heartbeat"
)

// Outbound message types
const (
	MsgRoomState      MessageType = "roomState"
	MsgEpisodeList    MessageType = "episodeList"
	MsgRoomInfoReply  MessageType = "roomInfo"
	MsgQualityChanged MessageType = "qualityChanged"
	MsgHeartbeatAck   MessageType = "heartbeatAck"
	MsgError          MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections for rooms
type Hub struct {
	// roomID -> viewerID -> conn
	conns map[string]map[string]*Connection

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	RoomID      string
	ViewerID    string
	DisplayName string
	Send        chan []byte
	Hub         *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	RoomID   string
	ToViewer string // Empty means all viewers, specific ID means one viewer
	Except   string // Skip this viewer on room-wide sends
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.RoomID] == nil {
				h.conns[conn.RoomID] = make(map[string]*Connection)
			}
			// A reconnect supersedes the old connection
			if old, ok := h.conns[conn.RoomID][conn.ViewerID]; ok && old != conn {
				close(old.Send)
			}
			h.conns[conn.RoomID][conn.ViewerID] = conn
			log.Printf("Viewer %s connected to room %s", conn.ViewerID, conn.RoomID)
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if viewers, ok := h.conns[conn.RoomID]; ok {
				if existing, ok := viewers[conn.ViewerID]; ok && existing == conn {
					delete(viewers, conn.ViewerID)
					close(conn.Send)
					if len(viewers) == 0 {
						delete(h.conns, conn.RoomID)
					}
					log.Printf("Viewer %s disconnected from room %s", conn.ViewerID, conn.RoomID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if msg.ToViewer != "" {
				// Send to a specific viewer
				if viewers, ok := h.conns[msg.RoomID]; ok {
					if conn, ok := viewers[msg.ToViewer]; ok {
						select {
						case conn.Send <- data:
						default:
							// Drop message if buffer full
						}
					}
				}
			} else {
				// Broadcast to the room
				if viewers, ok := h.conns[msg.RoomID]; ok {
					for viewerID, conn := range viewers {
						if msg.Except != "" && viewerID == msg.Except {
							continue
						}
						select {
						case conn.Send <- data:
						default:
						}
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// IsCurrent reports whether conn is still the connection the hub
// holds for its (room, viewer). False once a reconnect superseded it.
func (h *Hub) IsCurrent(conn *Connection) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	viewers, ok := h.conns[conn.RoomID]
	if !ok {
		return false
	}
	return viewers[conn.ViewerID] == conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToRoom sends a message to every viewer in a room (implements service.Broadcaster)
func (h *Hub) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomID: roomID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// BroadcastToRoomExcept sends a message to every viewer in a room but one (implements service.Broadcaster)
func (h *Hub) BroadcastToRoomExcept(roomID, exceptUserID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomID: roomID,
		Except: exceptUserID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// SendToUser sends a message to a single viewer in a room (implements service.Broadcaster)
func (h *Hub) SendToUser(roomID, userID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomID:   roomID,
		ToViewer: userID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// CloseRoom drops every viewer connection of a room (implements service.Broadcaster)
func (h *Hub) CloseRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if viewers, ok := h.conns[roomID]; ok {
		for _, conn := range viewers {
			close(conn.Send)
		}
		delete(h.conns, roomID)
	}
}
