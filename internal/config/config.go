package config

import (
	"log"
	"os"
	"time"
)

type Config struct {
	Port     string
	Timezone string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	StorageBackend string // "memory", "sqlite" or "firestore"
	DBPath         string
	UseMockLLM     bool // true = use mock even when GCP vars are set

	AgentSecret   string // shared secret the Mac agent sends on snapshot pushes
	AllowedOrigin string

	GoogleClientID     string
	GoogleClientSecret string
	OuraClientID       string
	OuraClientSecret   string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// Load reads all env vars and builds the config
func Load() *Config {
	cfg := &Config{
		Port:     getEnv("ORIENT_PORT", "8080"),
		Timezone: getEnv("ORIENT_TIMEZONE", "Pacific/Auckland"),

		GCPProjectID: getEnv("ORIENT_GCP_PROJECT", ""),
		GCPLocation:  getEnv("ORIENT_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("ORIENT_MODEL_NAME", "gemini-2.5-flash"),

		StorageBackend: getEnv("ORIENT_STORAGE_BACKEND", "sqlite"),
		DBPath:         getEnv("ORIENT_DB_PATH", "data/orient.db"),
		UseMockLLM:     getBoolEnv("ORIENT_USE_MOCK_LLM", false),

		AgentSecret:   getEnv("ORIENT_AGENT_SECRET", ""),
		AllowedOrigin: getEnv("ORIENT_ALLOWED_ORIGIN", "*"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		OuraClientID:       getEnv("OURA_CLIENT_ID", ""),
		OuraClientSecret:   getEnv("OURA_CLIENT_SECRET", ""),
	}

	// Minimal validation
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		log.Fatalf("ORIENT_TIMEZONE %q is not a valid IANA zone: %v", cfg.Timezone, err)
	}
	if !cfg.UseMockLLM && cfg.GCPProjectID == "" {
		log.Fatal("ORIENT_GCP_PROJECT must be set unless ORIENT_USE_MOCK_LLM=1")
	}
	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		log.Fatal("ORIENT_GCP_PROJECT must be set for the firestore storage backend")
	}

	return cfg
}

// Location resolves the configured home timezone. Load has already
// validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
