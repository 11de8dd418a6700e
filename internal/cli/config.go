package cli

import (
	"os"
	"strconv"
	"time"

	"github.com/joshhsoj1902/achievement-tracker/internal/steam"
)

type Config struct {
	SteamKey      string
	SteamID       string
	SteamOrigin   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Port          int
	HTTPTimeout   time.Duration
	LogLevel      string
	NoPrompt      bool
}

func LoadConfig() Config {
	config := Config{}

	// Steam credentials, only used when none are stored yet
	config.SteamKey = os.Getenv("STEAM_KEY")
	config.SteamID = os.Getenv("STEAM_ID")
	config.SteamOrigin = getEnv("STEAM_API_ORIGIN", steam.APIOrigin)

	// Redis configuration
	config.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	config.RedisPassword = os.Getenv("REDIS_PASSWORD")

	redisDBStr := os.Getenv("REDIS_DB")
	if redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			config.RedisDB = db
		}
	}

	// Port
	portStr := getEnv("PORT", "8000")
	if port, err := strconv.Atoi(portStr); err == nil {
		config.Port = port
	} else {
		config.Port = 8000 // Default
	}

	timeoutStr := getEnv("HTTP_TIMEOUT", "10s")
	if timeout, err := time.ParseDuration(timeoutStr); err == nil && timeout > 0 {
		config.HTTPTimeout = timeout
	} else {
		config.HTTPTimeout = steam.DefaultTimeout
	}

	config.LogLevel = getEnv("LOG_LEVEL", "info")

	if noPrompt, err := strconv.ParseBool(os.Getenv("NO_PROMPT")); err == nil {
		config.NoPrompt = noPrompt
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
