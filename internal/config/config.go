package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Email    EmailConfig
	Sheets   SheetsConfig
	Chat     ChatConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
	Debug   bool
	Port    string
	Host    string
	Env     string // NODE_ENV: "production" enables strict TLS verification
	SiteURL string // base URL used by the same-origin case-study strategies
}

// IsProduction reports whether NODE_ENV is "production"
func (a *AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds operator token configuration
type AuthConfig struct {
	SecretKey          string
	TokenExpiryMinutes int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// EmailConfig holds SMTP relay configuration
type EmailConfig struct {
	Enabled        bool
	SMTPHost       string
	SMTPPort       int
	Username       string
	Password       string
	FromEmail      string
	FromName       string
	Secure         bool // implicit TLS (port 465 style) instead of STARTTLS
	SupportAddress string
	VerifyTLS      bool
}

// SheetsConfig holds the Google Sheets source configuration
type SheetsConfig struct {
	SpreadsheetID string
	Range         string
	APIKey        string
	HTTPTimeout   time.Duration // zero means the HTTP client default (no timeout)
}

// ChatConfig holds chatbot configuration
type ChatConfig struct {
	TypingDelay time.Duration
}

var globalConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	port := getEnv("PORT", "3000")
	env := getEnv("NODE_ENV", "development")

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "DestinPQ Site"),
			Version: getEnv("APP_VERSION", "1.0.0"),
			Debug:   getEnvAsBool("DEBUG", false),
			Port:    port,
			Host:    getEnv("HOST", "0.0.0.0"),
			Env:     env,
			SiteURL: strings.TrimRight(getEnv("SITE_URL", "http://localhost:"+port), "/"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "sqlite:///./case_studies.db"),
		},
		Auth: AuthConfig{
			SecretKey:          getEnv("SECRET_KEY", ""),
			TokenExpiryMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_HOSTS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "OPTIONS", "HEAD"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:         86400,
		},
		Email: EmailConfig{
			Enabled:        getEnvAsBool("EMAIL_ENABLED", true),
			SMTPHost:       getEnv("EMAIL_HOST", ""),
			SMTPPort:       getEnvAsInt("EMAIL_PORT", 587),
			Username:       getEnv("EMAIL_USER", ""),
			Password:       getEnv("EMAIL_PASSWORD", ""),
			FromEmail:      getEnv("EMAIL_FROM", "support@destinpq.com"),
			FromName:       getEnv("EMAIL_FROM_NAME", ""),
			Secure:         getEnvAsBool("EMAIL_SECURE", false),
			SupportAddress: getEnv("SUPPORT_EMAIL", "support@destinpq.com"),
			VerifyTLS:      strings.EqualFold(env, "production"),
		},
		Sheets: SheetsConfig{
			SpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", "1UOENiWfQgHjz9MuFyu-SXK-k2YZ-zDaEjqz2QAL8frs"),
			Range:         getEnv("GOOGLE_SHEET_RANGE", "Sheet1"),
			APIKey:        getEnv("NEXT_PUBLIC_GOOGLE_API_KEY", getEnv("GOOGLE_API_KEY", "")),
			HTTPTimeout:   getEnvAsDuration("SHEETS_HTTP_TIMEOUT", 0),
		},
		Chat: ChatConfig{
			TypingDelay: getEnvAsDuration("CHAT_TYPING_DELAY", 1500*time.Millisecond),
		},
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	globalConfig = config
	return config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("GOOGLE_SPREADSHEET_ID must be set")
	}
	if cfg.Email.SMTPPort <= 0 || cfg.Email.SMTPPort > 65535 {
		return fmt.Errorf("EMAIL_PORT must be a valid port, got %d", cfg.Email.SMTPPort)
	}
	if cfg.Auth.TokenExpiryMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be greater than 0")
	}
	if cfg.Chat.TypingDelay < 0 {
		return fmt.Errorf("CHAT_TYPING_DELAY must not be negative")
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		// Load default config if not loaded
		config, _ := Load()
		return config
	}
	return globalConfig
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgresql://") || strings.HasPrefix(c.URL, "postgres://")
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}
