package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds process configuration, read once at startup
type Config struct {
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	Port          string
	JWTSecret     string
	StreamBaseURL string

	ReaperInterval time.Duration
	RoomIdleAfter  time.Duration
}

func Load() *Config {
	return &Config{
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "syncwatch"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		StreamBaseURL:  getEnv("STREAM_BASE_URL", "http://localhost:8081/api"),
		ReaperInterval: time.Duration(getEnvInt("REAPER_INTERVAL_SEC", 300)) * time.Second,
		RoomIdleAfter:  time.Duration(getEnvInt("ROOM_IDLE_MIN", 30)) * time.Minute,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}
