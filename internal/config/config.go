package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Host string
	Port string

	// Database settings
	DatabasePath string

	// Logging settings
	LogLevel  string
	LogFormat string

	// Cache settings
	CacheSize int
	CacheTTL  time.Duration

	// Court settings
	CourtBaseURL string
	CourtName    string
	ProxyURL     string

	// Fetch settings
	SourceTimeout time.Duration
	HeadlessMode  bool
	UserAgent     string
	BrowserPath   string
	EnableDirect  bool
	EnableProxy   bool
	EnableBrowser bool

	// Reconciliation settings
	PartyPrefixLen int

	// Calendar settings
	MaxLookaheadDays int
	RecessIntervals  string
	FixedHolidays    string

	// Scheduler settings
	CheckCronSpec    string
	SchedulerEnabled bool

	// Concurrency settings
	MaxConcurrentChecks int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Host:          getEnv("HOST", "0.0.0.0"),
		Port:          getEnv("PORT", "8080"),
		DatabasePath:  getEnv("DATABASE_PATH", "./data/expedientes.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		CourtBaseURL:  getEnv("COURT_BASE_URL", "https://www.tsjqroo.gob.mx"),
		CourtName:     getEnv("COURT_NAME", "TSJ Quintana Roo"),
		ProxyURL:      getEnv("PROXY_URL", ""),
		UserAgent:     getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		BrowserPath:   getEnv("ROD_BROWSER_PATH", ""),
		CheckCronSpec: getEnv("CHECK_CRON_SPEC", "0 8 * * *"),
		// Recess intervals as name=MM-DD..MM-DD, comma separated.
		RecessIntervals: getEnv("CALENDAR_RECESS", "Receso de verano=07-16..07-31,Receso de diciembre=12-16..12-31"),
		// Fixed holidays as name=MM-DD, comma separated.
		FixedHolidays: getEnv("CALENDAR_HOLIDAYS", ""),
	}

	var err error
	cfg.CacheSize, err = strconv.Atoi(getEnv("CACHE_SIZE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SIZE: %w", err)
	}

	cacheTTL, err := strconv.Atoi(getEnv("CACHE_TTL", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = time.Duration(cacheTTL) * time.Minute

	sourceTimeout, err := strconv.Atoi(getEnv("SOURCE_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid SOURCE_TIMEOUT: %w", err)
	}
	cfg.SourceTimeout = time.Duration(sourceTimeout) * time.Second

	cfg.HeadlessMode = getEnv("HEADLESS_MODE", "true") == "true"
	cfg.EnableDirect = getEnv("ENABLE_DIRECT_FETCH", "true") == "true"
	cfg.EnableProxy = getEnv("ENABLE_PROXY_FETCH", "false") == "true"
	cfg.EnableBrowser = getEnv("ENABLE_BROWSER_FETCH", "false") == "true"
	cfg.SchedulerEnabled = getEnv("SCHEDULER_ENABLED", "true") == "true"

	cfg.PartyPrefixLen, err = strconv.Atoi(getEnv("IDENTITY_PARTY_PREFIX", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDENTITY_PARTY_PREFIX: %w", err)
	}

	cfg.MaxLookaheadDays, err = strconv.Atoi(getEnv("CALENDAR_MAX_LOOKAHEAD", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CALENDAR_MAX_LOOKAHEAD: %w", err)
	}

	cfg.MaxConcurrentChecks, err = strconv.Atoi(getEnv("MAX_CONCURRENT_CHECKS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_CONCURRENT_CHECKS: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
