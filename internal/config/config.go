package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath      string
	OutputDir   string
	InboxDir    string
	ProfilePath string

	SourceEncoding string
	JournalEnabled bool

	LogLevel  string
	LogFormat string

	MetricsFile string

	WatchIntervalSec int
	WatchBatch       int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:      getEnv("DB_PATH", filepath.Join(cwd, "data", "paramsheet.db")),
		OutputDir:   getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		InboxDir:    getEnv("INBOX_DIR", filepath.Join(cwd, "data", "inbox")),
		ProfilePath: getEnv("PROFILE_PATH", ""),

		SourceEncoding: getEnv("SOURCE_ENCODING", "utf-8"),
		JournalEnabled: getEnvBool("JOURNAL_ENABLED", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		MetricsFile: getEnv("METRICS_FILE", ""),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 30),
		WatchBatch:       getEnvInt("WATCH_BATCH", 20),
	}

	if cfg.WatchIntervalSec <= 0 {
		return Config{}, fmt.Errorf("WATCH_INTERVAL_SEC must be positive, got %d", cfg.WatchIntervalSec)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
