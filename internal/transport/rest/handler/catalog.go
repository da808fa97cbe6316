package handler

import (
	"net/http"
	"strconv"

	"github.com/GhenaBabiuc/sync-watch-service/internal/service"
	"github.com/gorilla/mux"
)

// CatalogHandler handles content catalog endpoints
type CatalogHandler struct {
	catalogSvc *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogSvc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListMovies handles GET /v1/movies
func (h *CatalogHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.catalogSvc.ListMovies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"movies": movies})
}

// GetMovie handles GET /v1/movies/{id}
func (h *CatalogHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	movie, err := h.catalogSvc.MovieByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if movie == nil {
		writeError(w, http.StatusNotFound, "movie not found")
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

// ListSeries handles GET /v1/series
func (h *CatalogHandler) ListSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.catalogSvc.ListSeries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"series": series})
}

// GetSeries handles GET /v1/series/{id}
func (h *CatalogHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	series, err := h.catalogSvc.SeriesByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if series == nil {
		writeError(w, http.StatusNotFound, "series not found")
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// ListEpisodes handles GET /v1/series/{id}/episodes
func (h *CatalogHandler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	episodes, err := h.catalogSvc.SeriesEpisodes(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"episodes": episodes})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
