package rest

import (
	"net/http"
	"os"

	"github.com/GhenaBabiuc/sync-watch-service/internal/service"
	"github.com/GhenaBabiuc/sync-watch-service/internal/transport/rest/handler"
	"github.com/GhenaBabiuc/sync-watch-service/internal/transport/rest/middleware"
	"github.com/GhenaBabiuc/sync-watch-service/internal/transport/ws"
	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	RoomService    *service.RoomService
	CatalogService *service.CatalogService
	WSHub          *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	roomHandler := handler.NewRoomHandler(c.RoomService)
	catalogHandler := handler.NewCatalogHandler(c.CatalogService)
	wsHandler := ws.NewHandler(c.WSHub, c.RoomService, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/guest", authHandler.GuestLogin).Methods("POST", "OPTIONS")

	// WebSocket route (public with token in query param)
	v1.HandleFunc("/ws/rooms/{id}", wsHandler.RoomWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Viewer routes (require viewer auth)
	viewerRoutes := v1.NewRoute().Subrouter()
	viewerRoutes.Use(authMW.RequireViewer)

	viewerRoutes.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")
	viewerRoutes.HandleFunc("/rooms", roomHandler.List).Methods("GET", "OPTIONS")
	viewerRoutes.HandleFunc("/rooms/{id}", roomHandler.Get).Methods("GET", "OPTIONS")
	viewerRoutes.HandleFunc("/rooms/{id}", roomHandler.Delete).Methods("DELETE", "OPTIONS")
	viewerRoutes.HandleFunc("/rooms/{id}/participants", roomHandler.Participants).Methods("GET", "OPTIONS")
	viewerRoutes.HandleFunc("/rooms/{id}/episodes", roomHandler.Episodes).Methods("GET", "OPTIONS")
	viewerRoutes.HandleFunc("/stats", roomHandler.Stats).Methods("GET", "OPTIONS")

	// Catalog routes (viewer auth)
	viewerRoutes.HandleFunc("/movies", catalogHandler.ListMovies).Methods("GET", "OPTIONS")
	viewerRoutes.HandleFunc("/movies/{id}", catalogHandler.GetMovie).Methods("GET", "OPTIONS")
	viewerRoutes.HandleFunc("/series", catalogHandler.ListSeries).Methods("GET", "OPTIONS")
	viewerRoutes.HandleFunc("/series/{id}", catalogHandler.GetSeries).Methods("GET", "OPTIONS")
	viewerRoutes.HandleFunc("/series/{id}/episodes", catalogHandler.ListEpisodes).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
