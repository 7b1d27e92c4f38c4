package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Session store
	SessionBackend       string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	RedisAddr            string
	RedisPassword        string
	RedisTLS             bool

	// Booking ledger
	LedgerBackend string
	DatabaseURL   string
	BookingsTable string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Outbound SMS
	SMSProvider          string
	AfricasTalkingAPIKey string
	AfricasTalkingUser   string
	AfricasTalkingSender string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioFromNumber     string
	DefaultCountryCode   string
	NotifyTimeout        time.Duration

	// E-mail confirmation
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string

	// HTTP surface
	AdminJWTSecret       string
	CallbackRateLimit    float64
	CallbackRateBurst    int
	SpeechTimeoutSeconds int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "5000"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		SessionBackend:       strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "memory"))),
		SessionTTL:           getEnvAsDuration("SESSION_TTL", 10*time.Minute),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),

		LedgerBackend: strings.ToLower(strings.TrimSpace(getEnv("LEDGER_BACKEND", "memory"))),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		BookingsTable: getEnv("BOOKINGS_TABLE", "bookings"),

		AWSRegion:           getEnv("AWS_REGION", "eu-west-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		SMSProvider:          strings.ToLower(strings.TrimSpace(getEnv("SMS_PROVIDER", "auto"))),
		AfricasTalkingAPIKey: getEnv("AFRICAS_TALKING_API_KEY", ""),
		AfricasTalkingUser:   getEnv("AT_USERNAME", "sandbox"),
		AfricasTalkingSender: getEnv("AT_SENDER_ID", "JENNY"),
		TwilioAccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:     getEnv("TWILIO_FROM_NUMBER", ""),
		DefaultCountryCode:   getEnv("DEFAULT_COUNTRY_CODE", "254"),
		NotifyTimeout:        getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "none"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Jenny"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),

		AdminJWTSecret:       getEnv("ADMIN_JWT_SECRET", ""),
		CallbackRateLimit:    getEnvAsFloat("CALLBACK_RATE_LIMIT", 20),
		CallbackRateBurst:    getEnvAsInt("CALLBACK_RATE_BURST", 40),
		SpeechTimeoutSeconds: getEnvAsInt("SPEECH_TIMEOUT_SECONDS", 60),
	}
}

// IsSandbox reports whether outbound SMS should hit the Africa's Talking sandbox.
func (c *Config) IsSandbox() bool {
	return c.AfricasTalkingUser == "" || strings.EqualFold(c.AfricasTalkingUser, "sandbox")
}

// NeedsAWS reports whether any configured backend talks to AWS.
func (c *Config) NeedsAWS() bool {
	return c.LedgerBackend == "dynamodb" || c.EmailProvider == "ses"
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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
