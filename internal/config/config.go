package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageLocal  = "local"
	StorageRemote = "remote"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	// APIToken, when set, is required as a bearer token on every /api request.
	APIToken       string
	RequestTimeout time.Duration

	// StorageMode selects the game store: local SQLite or a remote pgnbase instance.
	StorageMode string
	RemoteURL   string
	RemoteToken string

	MaxStorageBytes int64

	OpeningTreeURL     string
	OpeningTreeTimeout time.Duration
	EcoCorpusPath      string
	SessionLimit       int

	EnrichChunkSize   int
	EnrichWorkerCount int
	EnrichQueueSize   int
	ImportWorkerCount int
	ImportQueueSize   int

	LichessMaxGames       int
	ChessComMaxConcurrent int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                  envOr("ADDR", ":8080"),
		DBPath:                envOr("DB_PATH", "file:pgnbase.db"),
		LogLevel:              envOr("LOG_LEVEL", "INFO"),
		APIToken:              envOr("API_TOKEN", ""),
		RequestTimeout:        envDurationOr("REQUEST_TIMEOUT", 60*time.Second),
		StorageMode:           strings.ToLower(envOr("STORAGE_MODE", StorageLocal)),
		RemoteURL:             envOr("REMOTE_URL", ""),
		RemoteToken:           envOr("REMOTE_TOKEN", ""),
		MaxStorageBytes:       int64(envIntOr("MAX_STORAGE_BYTES", 50*1024*1024)),
		OpeningTreeURL:        envOr("OPENING_TREE_URL", "http://localhost:3001"),
		OpeningTreeTimeout:    envDurationOr("OPENING_TREE_TIMEOUT", 5*time.Second),
		EcoCorpusPath:         envOr("ECO_CORPUS_PATH", ""),
		SessionLimit:          envIntOr("SESSION_LIMIT", 256),
		EnrichChunkSize:       envIntOr("ENRICH_CHUNK_SIZE", 50),
		EnrichWorkerCount:     envIntOr("ENRICH_WORKER_COUNT", 1),
		EnrichQueueSize:       envIntOr("ENRICH_QUEUE_SIZE", 16),
		ImportWorkerCount:     envIntOr("IMPORT_WORKER_COUNT", 2),
		ImportQueueSize:       envIntOr("IMPORT_QUEUE_SIZE", 32),
		LichessMaxGames:       envIntOr("LICHESS_MAX_GAMES", 2000),
		ChessComMaxConcurrent: envIntOr("CHESSCOM_MAX_CONCURRENT", 10),
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	switch c.StorageMode {
	case StorageLocal:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case StorageRemote:
		if c.RemoteURL == "" {
			return fmt.Errorf("REMOTE_URL is required when STORAGE_MODE=remote")
		}
	default:
		return fmt.Errorf("STORAGE_MODE must be %q or %q, got %q", StorageLocal, StorageRemote, c.StorageMode)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.OpeningTreeTimeout <= 0 {
		return fmt.Errorf("OPENING_TREE_TIMEOUT must be positive")
	}
	if c.EnrichChunkSize <= 0 {
		return fmt.Errorf("ENRICH_CHUNK_SIZE must be positive, got %d", c.EnrichChunkSize)
	}
	if c.EnrichWorkerCount <= 0 || c.ImportWorkerCount <= 0 {
		return fmt.Errorf("worker counts must be positive")
	}
	if c.EnrichQueueSize <= 0 || c.ImportQueueSize <= 0 {
		return fmt.Errorf("queue sizes must be positive")
	}
	if c.MaxStorageBytes <= 0 {
		return fmt.Errorf("MAX_STORAGE_BYTES must be positive")
	}
	if c.LichessMaxGames < 0 {
		return fmt.Errorf("LICHESS_MAX_GAMES cannot be negative")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
