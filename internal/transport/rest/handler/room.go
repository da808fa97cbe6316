package handler

import (
	"encoding/json"
	"net/http"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"github.com/GhenaBabiuc/sync-watch-service/internal/service"
	"github.com/GhenaBabiuc/sync-watch-service/internal/transport/rest/middleware"
	"github.com/gorilla/mux"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	roomSvc *service.RoomService
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomSvc *service.RoomService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc}
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	MovieID  int64  `json:"movieId,omitempty"`
	SeriesID int64  `json:"seriesId,omitempty"`
}

// Create handles POST /v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetViewerID(r.Context())
	if viewerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	var room *model.Room
	var err error
	switch model.RoomType(req.Type) {
	case model.RoomTypeMovie:
		if req.MovieID == 0 {
			writeError(w, http.StatusBadRequest, "movieId is required")
			return
		}
		room, err = h.roomSvc.CreateMovieRoom(r.Context(), req.Name, req.MovieID, viewerID)
	case model.RoomTypeSeries:
		if req.SeriesID == 0 {
			writeError(w, http.StatusBadRequest, "seriesId is required")
			return
		}
		room, err = h.roomSvc.CreateSeriesRoom(r.Context(), req.Name, req.SeriesID, viewerID)
	default:
		writeError(w, http.StatusBadRequest, "type must be movie or series")
		return
	}
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	snap, err := h.roomSvc.Snapshot(room.ID)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// List handles GET /v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": h.roomSvc.List()})
}

// Get handles GET /v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	snap, err := h.roomSvc.Snapshot(id)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Delete handles DELETE /v1/rooms/{id}. Host only.
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	viewerID := middleware.GetViewerID(r.Context())

	if _, ok := h.roomSvc.Get(id); !ok {
		writeError(w, http.StatusNotFound, service.ErrRoomNotFound.Error())
		return
	}
	if !h.roomSvc.IsHost(id, viewerID) {
		writeError(w, http.StatusForbidden, service.ErrUnauthorized.Error())
		return
	}

	h.roomSvc.Delete(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Participants handles GET /v1/rooms/{id}/participants
func (h *RoomHandler) Participants(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	infos, err := h.roomSvc.Participants(id)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"participants": infos})
}

// Episodes handles GET /v1/rooms/{id}/episodes
func (h *RoomHandler) Episodes(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	episodes, err := h.roomSvc.AvailableEpisodes(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"episodes": episodes})
}

// Stats handles GET /v1/stats
func (h *RoomHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.roomSvc.Stats())
}
