package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the process reads from its environment.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	EncryptionKey string
	OpenAIAPIKey  string
	OpenAIModel   string
	LogLevel      string

	// CollectionWindow is how long a round stays open between the prompt
	// fan-out and the scheduled resume in the always-on path.
	// ManualWindow applies to rounds started through the HTTP surface.
	CollectionWindow time.Duration
	ManualWindow     time.Duration

	// RefreshInterval is how often the schedule engine recomputes UTC
	// trigger times from tenant preferences.
	RefreshInterval time.Duration

	// DelayedPollInterval is how often the delayed-action dispatcher
	// checks for due rows.
	DelayedPollInterval time.Duration
}

func Load() Config {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not loaded")
		}
	}

	return Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		EncryptionKey:       os.Getenv("ENCRYPTION_KEY"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CollectionWindow:    getSeconds("COLLECTION_WINDOW_SECONDS", 120*time.Second),
		ManualWindow:        getSeconds("MANUAL_WINDOW_SECONDS", 300*time.Second),
		RefreshInterval:     getSeconds("SCHEDULE_REFRESH_SECONDS", 2*time.Minute),
		DelayedPollInterval: getSeconds("DELAYED_POLL_SECONDS", 2*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		log.Printf("Warning: invalid %s=%q, using default", key, v)
		return fallback
	}
	return time.Duration(secs) * time.Second
}
