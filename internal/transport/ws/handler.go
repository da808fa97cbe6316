package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/GhenaBabiuc/sync-watch-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub     *Hub
	roomSvc *service.RoomService
	authSvc *service.AuthService
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, roomSvc *service.RoomService, authSvc *service.AuthService) *Handler {
	return &Handler{
		hub:     hub,
		roomSvc: roomSvc,
		authSvc: authSvc,
	}
}

// RoomWS handles GET /v1/ws/rooms/{id}
func (h *Handler) RoomWS(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if _, ok := h.roomSvc.Get(roomID); !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		RoomID:      roomID,
		ViewerID:    claims.ViewerID,
		DisplayName: claims.DisplayName,
		Send:        make(chan []byte, 256),
		Hub:         h.hub,
	}

	h.hub.Register(conn)

	log.Printf("Viewer %s connected to room %s via WebSocket", claims.ViewerID, roomID)

	sess := newSession(conn, h.roomSvc)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn, sess)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection, sess *session) {
	defer func() {
		sess.disconnect()
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		sess.handle(data)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
