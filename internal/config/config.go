package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	HTTPAddr    string
	DBDSN       string

	RedisAddr string
	AMQPURL   string
	MailQueue string

	JWTSecret string
	JWTIssuer string

	ContentBaseURL string
	ContentAPIKey  string

	MigrationsPath string

	ReminderLead     time.Duration
	ReminderInterval time.Duration

	SignalLimit  int64
	SignalWindow time.Duration
}

func Load() (*Config, error) {
	// Try to load a .env file; ignore the error when there is none.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Environment:      getEnv("ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DBDSN:            os.Getenv("DB_DSN"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		AMQPURL:          os.Getenv("AMQP_URL"),
		MailQueue:        getEnv("MAIL_EXCHANGE", "mail.outbound"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTIssuer:        getEnv("JWT_ISSUER", "interviewd"),
		ContentBaseURL:   os.Getenv("CONTENT_BASE_URL"),
		ContentAPIKey:    os.Getenv("CONTENT_API_KEY"),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "migrations"),
		ReminderLead:     getDuration("REMINDER_LEAD", 24*time.Hour),
		ReminderInterval: getDuration("REMINDER_INTERVAL", 5*time.Minute),
		SignalLimit:      getInt64("SIGNAL_LIMIT", 10),
		SignalWindow:     getDuration("SIGNAL_WINDOW", 60*time.Second),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %s", key, value, fallback)
		return fallback
	}
	return parsed
}

func getInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}
