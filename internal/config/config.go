package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, read once from the environment.
// Components receive the values they need explicitly; nothing reads the
// environment after Load returns.
type Config struct {
	ServerPort string
	AuthToken  string

	AnthropicAPIKey string
	LLMModel        string
	LLMMaxTokens    int
	LLMTemperature  float64
	LLMTimeout      time.Duration

	PexelsAPIKey   string
	UnsplashAPIKey string
	ImagePageSize  int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMaxConns int32
	DBMinConns int32

	Concurrency     int
	WindowPause     time.Duration
	SingleModePause time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		AuthToken:  getEnv("AUTH_TOKEN", ""),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", "claude-sonnet-4-20250514"),
		LLMMaxTokens:    getEnvInt("LLM_MAX_TOKENS", 4000),
		LLMTemperature:  getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeout:      getEnvDuration("LLM_TIMEOUT", 120*time.Second),

		PexelsAPIKey:   getEnv("PEXELS_API_KEY", ""),
		UnsplashAPIKey: getEnv("UNSPLASH_API_KEY", ""),
		ImagePageSize:  getEnvInt("IMAGE_PAGE_SIZE", 20),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "aiwriter"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		DBMinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),

		Concurrency:     getEnvInt("BATCH_CONCURRENCY", 3),
		WindowPause:     getEnvDuration("BATCH_WINDOW_PAUSE", 5*time.Second),
		SingleModePause: getEnvDuration("BATCH_SINGLE_PAUSE", 30*time.Second),

		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 180*time.Second),
		IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1, got %d", c.Concurrency)
	}
	if c.ImagePageSize < 1 {
		return fmt.Errorf("IMAGE_PAGE_SIZE must be at least 1, got %d", c.ImagePageSize)
	}
	return nil
}

// DatabaseURL builds a pgx connection string from the DB fields.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadDatabaseURL reads only the DB_* variables, for commands that never
// call the model and should not require an API key.
func LoadDatabaseURL() string {
	c := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "aiwriter"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
	return c.DatabaseURL()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
