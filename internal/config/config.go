package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the pipeline defaults. Every value can be overridden via
// environment variables; CLI flags in turn override the config.
type Config struct {
	// DataDir is the directory scanned for snapshot versions.
	DataDir string
	// SnapshotBasePath is the base path snapshot filenames are derived from.
	SnapshotBasePath string
	// MirrorDBPath is the default embedded database path used when mirror
	// output is requested without an explicit path.
	MirrorDBPath string
}

// Load reads an optional .env file and then builds the config from the
// environment. A missing .env file is not an error.
func Load(envPath string) *Config {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			log.Println("config: no env file loaded:", err)
		}
	}
	return fromEnv()
}

func fromEnv() *Config {
	return &Config{
		DataDir:          GetEnv("DATA_DIR", "data/processed"),
		SnapshotBasePath: GetEnv("SNAPSHOT_BASE_PATH", "data/processed/transactions.parquet"),
		MirrorDBPath:     GetEnv("MIRROR_DB_PATH", "data/processed/transactions.db"),
	}
}

// GetEnv returns the value of the environment variable or a default.
func GetEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultVal
}

// GetEnvAsInt returns the environment variable parsed as int or a default.
func GetEnvAsInt(key string, defaultVal int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

// GetEnvAsBool returns the environment variable parsed as bool or a default.
func GetEnvAsBool(key string, defaultVal bool) bool {
	valueStr := GetEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultVal
}
