package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string
	Environment     string
	StaticDir       string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	// Cognito
	AWSRegion           string
	CognitoUserPoolID   string
	CognitoClientID     string
	CognitoClientSecret string
	CognitoJWKSURL      string

	// Document store
	HelixURL                string
	HelixTimeout            time.Duration
	RelatedFetchConcurrency int
	GraphCacheTTL           time.Duration

	// PDF backend
	PDFAPIURL      string
	PDFAPITimeout  time.Duration
	UploadDelay    time.Duration
	MaxUploadBytes int64

	// Events; empty disables publishing
	EventBusName string

	// Voice assistant
	VoicePublicKey     string
	VoiceModelProvider string
	VoiceModel         string
	VoiceProvider      string
	VoiceID            string

	// Auth rate limiting, requests per minute per client IP
	AuthRateLimit int
	AuthRateBurst int

	// Lambda
	IsLambda bool

	// Logging
	LogLevel string
	LogFile  string

	// Optional YAML overlay, watched for log level changes
	ConfigFile string

	// Feature flags
	EnableMetrics   bool
	EnableTracing   bool
	OTLPEndpoint    string
	TraceSampleRate float64
}

// LoadConfig loads .env (if present), then environment variables, then the
// optional YAML overlay named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()

	if cfg.ConfigFile != "" {
		if err := cfg.ApplyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the configuration from environment variables only
func FromEnv() *Config {
	return &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		StaticDir:       getEnv("STATIC_DIR", "./web/out"),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "us-west-2"),
		CognitoUserPoolID:   getEnv("COGNITO_USER_POOL_ID", ""),
		CognitoClientID:     getEnv("COGNITO_CLIENT_ID", ""),
		CognitoClientSecret: getEnv("COGNITO_CLIENT_SECRET", ""),
		CognitoJWKSURL:      getEnv("COGNITO_JWKS_URL", ""),

		HelixURL:                getEnv("HELIX_URL", "http://localhost:6969"),
		HelixTimeout:            getEnvDuration("HELIX_TIMEOUT", 10*time.Second),
		RelatedFetchConcurrency: getEnvInt("RELATED_FETCH_CONCURRENCY", 8),
		GraphCacheTTL:           getEnvDuration("GRAPH_CACHE_TTL", 30*time.Second),

		PDFAPIURL:      getEnv("PDF_API_URL", "http://localhost:8000"),
		PDFAPITimeout:  getEnvDuration("PDF_API_TIMEOUT", 2*time.Minute),
		UploadDelay:    getEnvDuration("UPLOAD_DELAY", time.Second),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 50)) << 20,

		EventBusName: getEnv("EVENT_BUS_NAME", ""),

		VoicePublicKey:     getEnv("VAPI_PUBLIC_KEY", ""),
		VoiceModelProvider: getEnv("VOICE_MODEL_PROVIDER", "openai"),
		VoiceModel:         getEnv("VOICE_MODEL", "gpt-4"),
		VoiceProvider:      getEnv("VOICE_PROVIDER", "playht"),
		VoiceID:            getEnv("VOICE_ID", "jennifer"),

		AuthRateLimit: getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateBurst: getEnvInt("AUTH_RATE_BURST", 5),

		IsLambda: getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		ConfigFile: getEnv("CONFIG_FILE", ""),

		EnableMetrics:   getEnvBool("ENABLE_METRICS", true),
		EnableTracing:   getEnvBool("ENABLE_TRACING", false),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceSampleRate: getEnvFloat("TRACE_SAMPLE_RATE", 0.1),
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.CognitoUserPoolID == "" {
			return fmt.Errorf("COGNITO_USER_POOL_ID is required in production")
		}
		if c.CognitoClientID == "" {
			return fmt.Errorf("COGNITO_CLIENT_ID is required in production")
		}
	}
	if c.RelatedFetchConcurrency < 1 {
		return fmt.Errorf("RELATED_FETCH_CONCURRENCY must be positive, got %d", c.RelatedFetchConcurrency)
	}
	if c.UploadDelay < 0 || c.GraphCacheTTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
