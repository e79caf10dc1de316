package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Discord
	DiscordBotToken string

	// Playback cache
	CacheDir          string
	CacheWindowAhead  int // upcoming tracks kept prefetched (window width W)
	CacheWindowBehind int // already-played tracks kept around
	FetchTimeout      time.Duration
	FetchConcurrency  int

	// Player
	ReconnectMaxAttempts int
	ReconnectInterval    time.Duration
	QueuePageSize        int

	// External binaries
	YtdlpPath  string
	FfmpegPath string

	// Radio mode (optional)
	OpenRouterURL    string
	OpenRouterAPIKey string
	RadioModel       string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		DiscordBotToken:      getEnv("DISCORD_BOT_TOKEN", ""),
		CacheDir:             getEnv("CACHE_DIR", "temp/music"),
		CacheWindowAhead:     getEnvInt("CACHE_WINDOW_AHEAD", 3),
		CacheWindowBehind:    getEnvInt("CACHE_WINDOW_BEHIND", 2),
		FetchTimeout:         getEnvDuration("FETCH_TIMEOUT", 180*time.Second),
		FetchConcurrency:     getEnvInt("FETCH_CONCURRENCY", 2),
		ReconnectMaxAttempts: getEnvInt("RECONNECT_MAX_ATTEMPTS", 15),
		ReconnectInterval:    getEnvDuration("RECONNECT_INTERVAL", 15*time.Second),
		QueuePageSize:        getEnvInt("QUEUE_PAGE_SIZE", 5),
		YtdlpPath:            getEnv("YTDLP_PATH", "yt-dlp"),
		FfmpegPath:           getEnv("FFMPEG_PATH", "ffmpeg"),
		OpenRouterURL:        getEnv("OPENROUTER_URL", "https://openrouter.ai/api"),
		OpenRouterAPIKey:     getEnv("OPENROUTER_API_KEY", ""),
		RadioModel:           getEnv("RADIO_MODEL", "anthropic/claude-3.5-haiku"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("CACHE_DIR is required")
	}
	if c.CacheWindowAhead < 0 || c.CacheWindowBehind < 0 {
		return fmt.Errorf("cache window sizes must not be negative")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}
	if c.ReconnectMaxAttempts < 1 {
		return fmt.Errorf("RECONNECT_MAX_ATTEMPTS must be at least 1")
	}
	if c.QueuePageSize < 1 {
		return fmt.Errorf("QUEUE_PAGE_SIZE must be at least 1")
	}
	// Discord token and OpenRouter key are optional for development
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
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
