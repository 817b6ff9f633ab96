package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	AWS     AWSConfig
	Ranking RankingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	MaxBodyBytes       int64  // request body cap; question bodies are tiny
}

// StoreConfig selects and parameterizes the record store backend.
type StoreConfig struct {
	Backend        string // "dynamodb" or "memory"
	EventsTable    string
	QuestionsTable string
	TopIndex       string // GSI keyed by eid, sorted by votes
}

// AWSConfig holds AWS credentials for the DynamoDB backend.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// RankingConfig tunes the question listing.
type RankingConfig struct {
	TopN int // how many questions get exact placement before hotness ordering
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 512)),
		},
		Store: StoreConfig{
			Backend:        getEnv("STORE_BACKEND", "memory"),
			EventsTable:    getEnv("DYNAMO_EVENTS_TABLE", "events"),
			QuestionsTable: getEnv("DYNAMO_QUESTIONS_TABLE", "questions"),
			TopIndex:       getEnv("DYNAMO_TOP_INDEX", "top"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		Ranking: RankingConfig{
			TopN: getEnvInt("RANKING_TOP_N", 20),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
