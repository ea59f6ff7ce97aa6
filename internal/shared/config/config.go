package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the backend
type Config struct {
	// Server
	Port           string
	Env            string
	RequestTimeout time.Duration

	// Database
	DatabaseURL       string
	DBWriteTimeout    time.Duration
	DBConnectAttempts int
	DBConnectDelay    time.Duration

	// Redis (optional response cache)
	RedisURL        string
	CacheEnabled    bool
	CacheTTLSeconds int

	// AI completion API
	OpenRouterAPIKey string
	AIModel          string
	AITimeout        time.Duration
	SiteURL          string
	SiteName         string

	// Rate Limiting
	RateLimitWindow time.Duration
	RateLimitMax    int
	// TrustProxy honors X-Forwarded-For for the client identity. Enable only
	// behind a reverse proxy that strips the inbound header.
	TrustProxy bool
}

// Load loads configuration from environment variables.
//
// Nothing here is a hard failure: a missing OPENROUTER_API_KEY surfaces on the
// first completion call, and a missing DATABASE_URL puts persistence into
// degraded mode rather than stopping startup. Only the port bind can kill the
// process, and that happens in main.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		RequestTimeout:    getEnvSeconds("REQUEST_TIMEOUT_SECONDS", 60),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBWriteTimeout:    getEnvSeconds("DB_WRITE_TIMEOUT_SECONDS", 10),
		DBConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),
		DBConnectDelay:    getEnvSeconds("DB_CONNECT_DELAY_SECONDS", 5),
		RedisURL:          getEnv("REDIS_URL", ""),
		CacheEnabled:      getEnvBool("CACHE_ENABLED", true),
		CacheTTLSeconds:   getEnvInt("CACHE_TTL_SECONDS", 3600),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		AIModel:           getEnv("AI_MODEL", ""),
		AITimeout:         getEnvSeconds("AI_TIMEOUT_SECONDS", 30),
		SiteURL:           getEnv("SITE_URL", "http://localhost:3000"),
		SiteName:          getEnv("SITE_NAME", "FutureBlink AI"),
		RateLimitWindow:   getEnvSeconds("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitMax:      getEnvInt("RATE_LIMIT_MAX_REQUESTS", 30),
		TrustProxy:        getEnvBool("TRUST_PROXY", false),
	}

	return cfg, nil
}

// IsDevelopment reports whether error responses may carry upstream details.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
