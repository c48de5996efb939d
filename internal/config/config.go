package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string // sqlite, postgres, mysql
	DatabasePath   string // for sqlite
	DatabaseURL    string // for postgres/mysql
	MigrationsPath string

	JWTSecret string

	// Puzzle generation providers
	OpenAIAPIKey    string
	OpenAIModel     string
	GroqAPIKey      string
	GroqModel       string
	GeminiAPIKey    string
	GeminiModel     string
	ProviderTimeout time.Duration

	// Supply pipeline
	QualityMinimum int // 0-100, generated content scoring below this is rejected
	PrefetchHead   int // positions filled synchronously before a room starts
	MaxGenAttempts int // generation retries per position before falling back

	HubIdleTimeout time.Duration // idle websocket hubs are reaped after this
	DevTokens      bool          // expose the local token-minting endpoint
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./triviaclash.db"),
		DatabaseURL:     getEnv("DB_URL", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		GroqModel:       getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash-001"),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 20*time.Second),
		QualityMinimum:  getEnvInt("QUALITY_MINIMUM", 85),
		PrefetchHead:    getEnvInt("PREFETCH_HEAD", 2),
		MaxGenAttempts:  getEnvInt("MAX_GEN_ATTEMPTS", 3),
		HubIdleTimeout:  getEnvDuration("HUB_IDLE_TIMEOUT", 30*time.Minute),
		DevTokens:       getEnvBool("DEV_TOKENS", false),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
