package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GhenaBabiuc/sync-watch-service/internal/model"
	"github.com/GhenaBabiuc/sync-watch-service/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// GuestLogin handles POST /v1/auth/guest
func (h *AuthHandler) GuestLogin(w http.ResponseWriter, r *http.Request) {
	var req model.GuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.GuestLogin(req.DisplayName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// statusForError maps service errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrContentNotFound),
		errors.Is(err, service.ErrEpisodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotASeriesRoom),
		errors.Is(err, service.ErrEpisodeNotInSeries),
		errors.Is(err, service.ErrNoEpisodesAvailable),
		errors.Is(err, service.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrCatalogUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
