package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
)

const DEV_JWT_SECRET = "dev-secret-change-me-in-production"

// Settings holds the full service configuration. It is built once at
// startup and passed by injection; nothing reads the environment after Load
// returns.
type Settings struct {
	AppEnv   string
	Port     int
	Provider string

	OpenAI  OpenAISettings
	Storage StorageSettings
	Cache   CacheSettings
	Events  EventsSettings
	Auth    AuthSettings

	MaxTextLength  int
	RequestTimeout time.Duration

	UsersTable string

	RateLimit  float64
	RateBurst  int
	CORSOrigin string
	LogLevel   string
}

type OpenAISettings struct {
	Endpoint         string
	APIKey           string
	Deployment       string
	VisionDeployment string
	APIVersion       string
}

type StorageSettings struct {
	Bucket   string
	Region   string
	Endpoint string
}

type CacheSettings struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

func (c CacheSettings) Enabled() bool { return c.Address != "" }

type EventsSettings struct {
	Broker string
	Topic  string
}

func (e EventsSettings) Enabled() bool { return e.Broker != "" }

type AuthSettings struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Load reads the environment into an immutable Settings value. Missing
// required variables are reported together so a bad deployment fails on the
// first start with the full list.
func Load() (*Settings, error) {
	s := &Settings{
		AppEnv:   getEnv("APP_ENV", "dev"),
		Port:     getEnvInt("PORT", 8080),
		Provider: getEnv("INFERENCE_PROVIDER", ProviderOpenAI),
		OpenAI: OpenAISettings{
			Endpoint:         os.Getenv("OPENAI_ENDPOINT"),
			APIKey:           os.Getenv("OPENAI_API_KEY"),
			Deployment:       os.Getenv("OPENAI_DEPLOYMENT"),
			VisionDeployment: getEnv("OPENAI_VISION_DEPLOYMENT", "gpt-4o-mini"),
			APIVersion:       getEnv("OPENAI_API_VERSION", "2024-02-01"),
		},
		Storage: StorageSettings{
			Bucket:   os.Getenv("S3_BUCKET"),
			Region:   getEnv("AWS_REGION", "us-west-2"),
			Endpoint: os.Getenv("AWS_ENDPOINT"),
		},
		Cache: CacheSettings{
			Address:  os.Getenv("VALKEY_ADDRESS"),
			Password: os.Getenv("VALKEY_PASSWORD"),
			DB:       getEnvInt("VALKEY_DB", 0),
			TTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		},
		Events: EventsSettings{
			Broker: os.Getenv("KAFKA_BROKER"),
			Topic:  getEnv("KAFKA_TOPIC", "analysis-results"),
		},
		Auth: AuthSettings{
			JWTSecret: getEnv("JWT_SECRET", DEV_JWT_SECRET),
			TokenTTL:  time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 30)) * time.Minute,
		},
		MaxTextLength:  getEnvInt("MAX_TEXT_LENGTH", 5000),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		UsersTable:     getEnv("USERS_TABLE", "Users"),
		RateLimit:      getEnvFloat("RATE_LIMIT", 50),
		RateBurst:      getEnvInt("RATE_BURST", 100),
		CORSOrigin:     getEnv("CORS_ORIGIN", "*"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	if s.Auth.JWTSecret == DEV_JWT_SECRET && s.AppEnv == "prod" {
		slog.Warn("[Config] JWT_SECRET not set, using the development secret")
	}

	return s, nil
}

func (s *Settings) validate() error {
	if s.Provider != ProviderOpenAI && s.Provider != ProviderLocal {
		return fmt.Errorf("invalid INFERENCE_PROVIDER %q (must be %q or %q)",
			s.Provider, ProviderOpenAI, ProviderLocal)
	}

	var missing []string
	if s.Provider == ProviderOpenAI {
		if s.OpenAI.Endpoint == "" {
			missing = append(missing, "OPENAI_ENDPOINT")
		}
		if s.OpenAI.APIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if s.OpenAI.Deployment == "" {
			missing = append(missing, "OPENAI_DEPLOYMENT")
		}
	}
	if s.Storage.Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Empty values count as unset so a blank line in an env file does not
// silently override a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("[Config] Invalid integer value, using default",
			slog.String("key", key),
			slog.String("value", value),
			slog.Int("default", defaultValue))
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("[Config] Invalid float value, using default",
			slog.String("key", key),
			slog.String("value", value),
			slog.Float64("default", defaultValue))
		return defaultValue
	}
	return f
}
