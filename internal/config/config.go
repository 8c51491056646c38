package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	UseMemoryRepo bool

	// Marketplace tuning. The purchase cap and price bounds are business
	// constants, not configuration; see internal/leads and internal/pricing.
	LeadTTL           time.Duration
	MatchedTopN       int
	AnalyticsCacheTTL time.Duration

	// Redis (analytics snapshot cache)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Payment gateway
	PaymentProviderKey string
	AllowFakePayments  bool

	// Parent notifications
	UseMemoryQueue       bool
	NotificationQueueURL string
	WorkerCount          int
	EmailProvider        string
	EmailFromAddress     string
	EmailFromName        string
	SendGridAPIKey       string

	// AWS (SES + SQS)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables.
// A local .env file is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		UseMemoryRepo: getEnvAsBool("USE_MEMORY_REPO", false),

		LeadTTL:           getEnvAsDuration("LEAD_TTL", 7*24*time.Hour),
		MatchedTopN:       getEnvAsInt("LEAD_MATCHED_TOP_N", 10),
		AnalyticsCacheTTL: getEnvAsDuration("ANALYTICS_CACHE_TTL", time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		PaymentProviderKey: getEnv("PAYMENT_PROVIDER_KEY", ""),
		AllowFakePayments:  getEnvAsBool("ALLOW_FAKE_PAYMENTS", false),

		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", false),
		NotificationQueueURL: getEnv("NOTIFICATION_QUEUE_URL", ""),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 2),
		EmailProvider:        strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "VoiceBridge"),
		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
