package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GhenaBabiuc/sync-watch-service/internal/cache"
	"github.com/GhenaBabiuc/sync-watch-service/internal/config"
	"github.com/GhenaBabiuc/sync-watch-service/internal/repository"
	"github.com/GhenaBabiuc/sync-watch-service/internal/service"
	"github.com/GhenaBabiuc/sync-watch-service/internal/transport/rest"
	"github.com/GhenaBabiuc/sync-watch-service/internal/transport/ws"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDatabase)

	// Redis connection
	redisAddr := cfg.RedisAddr
	// Remove redis:// prefix if present
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	movieRepo := repository.NewMovieRepo(db)
	seriesRepo := repository.NewSeriesRepo(db)

	// Initialize caches
	catalogCache := cache.NewCatalogCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	catalogSvc := service.NewCatalogService(movieRepo, seriesRepo, catalogCache, cfg.StreamBaseURL)
	debouncer := service.NewDebouncer()
	roomSvc := service.NewRoomService(catalogSvc, debouncer)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	roomSvc.SetBroadcaster(wsHub)

	// Background cleanup of idle rooms
	reaper := service.NewReaper(roomSvc, debouncer, cfg.ReaperInterval, cfg.RoomIdleAfter)
	reaper.Start()
	defer reaper.Stop()

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		RoomService:    roomSvc,
		CatalogService: catalogSvc,
		WSHub:          wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/guest")
		log.Println("  POST/GET /v1/rooms")
		log.Println("  GET/DELETE /v1/rooms/{id}")
		log.Println("  GET  /v1/movies")
		log.Println("  GET  /v1/series")
		log.Println("  GET  /v1/stats")
		log.Println("  WS   /v1/ws/rooms/{id}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
