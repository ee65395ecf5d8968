package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/tordrt/askdb/internal/cache"
	"github.com/tordrt/askdb/internal/db"
	"github.com/tordrt/askdb/internal/llm"
)

// Config carries everything the server needs, resolved from the
// environment with sensible defaults.
type Config struct {
	Port      string
	StaticDir string

	DatabaseURL    string
	SchemaName     string
	QueryTimeout   time.Duration
	SampleRowLimit int

	GeminiAPIKey string
	GeminiModel  string

	SchemaCacheTTL time.Duration

	LogLevel string
}

// Load reads the environment, consulting a .env file when present.
func Load() Config {
	_ = godotenv.Load(".env")

	config := Config{}

	config.Port = cast.ToString(getOrReturnDefaultValue("PORT", "8080"))
	config.StaticDir = cast.ToString(getOrReturnDefaultValue("STATIC_DIR", ""))

	config.DatabaseURL = cast.ToString(getOrReturnDefaultValue("DATABASE_URL", ""))
	config.SchemaName = cast.ToString(getOrReturnDefaultValue("DB_SCHEMA", "public"))
	config.QueryTimeout = cast.ToDuration(getOrReturnDefaultValue("QUERY_TIMEOUT", db.DefaultQueryTimeout))
	config.SampleRowLimit = cast.ToInt(getOrReturnDefaultValue("SAMPLE_ROW_LIMIT", 5))

	config.GeminiAPIKey = cast.ToString(getOrReturnDefaultValue("GEMINI_API_KEY", ""))
	config.GeminiModel = cast.ToString(getOrReturnDefaultValue("GEMINI_MODEL", llm.DefaultModel))

	config.SchemaCacheTTL = cast.ToDuration(getOrReturnDefaultValue("SCHEMA_CACHE_TTL", cache.DefaultTTL))

	config.LogLevel = cast.ToString(getOrReturnDefaultValue("LOG_LEVEL", "info"))

	return config
}

// Validate reports the settings that have no workable default.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	return nil
}

func getOrReturnDefaultValue(key string, defaultValue any) any {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return defaultValue
}
