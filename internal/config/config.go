package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Blob backends
const (
	BackendS3       = "s3"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
	LogFormat   string

	RunLocal bool
	Port     string

	AWS   AWSConfig
	Blob  BlobConfig
	SMTP  SMTPConfig
	Email EmailConfig
	Auth  AuthConfig

	// OrderEventsQueueURL enables SQS order events when set.
	OrderEventsQueueURL string
	// EmailRetryDelay delays failed-email events before the worker picks them up.
	EmailRetryDelay time.Duration

	MetricsNamespace  string
	CloudWatchMetrics bool

	IdempotencyTTL time.Duration
}

type AWSConfig struct {
	Region           string
	EndpointOverride string
	AccessKeyID      string
	SecretAccessKey  string
	S3PathStyle      bool
}

type BlobConfig struct {
	Backend           string
	Bucket            string
	Table             string
	ConditionalWrites bool
	FetchConcurrency  int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Secure   bool
}

type EmailConfig struct {
	StoreName        string
	LogoURL          string
	MaxRetryAttempts int
	SendTimeout      time.Duration
}

type AuthConfig struct {
	Enabled       bool
	AdminEmail    string
	AdminPassword string
	PasswordHash  string
	JWTSecret     string
	TokenTTL      time.Duration
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceName: getenv("SERVICE_NAME", "merch-order-admin"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "json"),

		RunLocal: getenvBool("RUN_LOCAL", false),
		Port:     getenv("PORT", "8080"),

		AWS: AWSConfig{
			Region:           getenv("AWS_REGION", ""),
			EndpointOverride: getenv("AWS_ENDPOINT_OVERRIDE", ""),
			AccessKeyID:      getenv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey:  getenv("R2_SECRET_ACCESS_KEY", ""),
			S3PathStyle:      getenvBool("S3_PATH_STYLE", false),
		},
		Blob: BlobConfig{
			Backend:           strings.ToLower(getenv("BLOB_BACKEND", BackendS3)),
			Bucket:            getenv("R2_BUCKET_NAME", getenv("BLOB_BUCKET", "")),
			Table:             getenv("BLOB_TABLE", ""),
			ConditionalWrites: getenvBool("BLOB_CONDITIONAL_WRITES", false),
			FetchConcurrency:  getenvInt("ORDERS_FETCH_CONCURRENCY", 16),
		},
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", ""),
			Port:     getenvInt("SMTP_PORT", 587),
			User:     getenv("SMTP_USER", ""),
			Password: getenv("SMTP_PASS", ""),
			Secure:   getenvBool("SMTP_SECURE", false),
		},
		Email: EmailConfig{
			StoreName:        getenv("EMAIL_STORE_NAME", "TEDx Merch Store"),
			LogoURL:          getenv("EMAIL_LOGO_URL", ""),
			MaxRetryAttempts: getenvInt("EMAIL_MAX_RETRY_ATTEMPTS", 5),
			SendTimeout:      getenvDuration("EMAIL_SEND_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			Enabled:       getenvBool("AUTH_ENABLED", true),
			AdminEmail:    getenv("ADMIN_EMAIL", ""),
			AdminPassword: getenv("ADMIN_PASSWORD", ""),
			PasswordHash:  getenv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:     getenv("AUTH_JWT_SECRET", getenv("NEXTAUTH_SECRET", "")),
			TokenTTL:      getenvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		},

		OrderEventsQueueURL: getenv("ORDER_EVENTS_QUEUE_URL", ""),
		EmailRetryDelay:     getenvDuration("EMAIL_RETRY_DELAY", 5*time.Minute),

		MetricsNamespace:  getenv("METRICS_NAMESPACE", "merch_admin"),
		CloudWatchMetrics: getenvBool("CLOUDWATCH_METRICS_ENABLED", false),

		IdempotencyTTL: getenvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}

	cfg.SMTP.From = getenv("SMTP_FROM", cfg.SMTP.User)

	// R2 is S3-compatible; the account id implies the endpoint and region.
	if account := getenv("R2_ACCOUNT_ID", ""); account != "" && cfg.AWS.EndpointOverride == "" {
		cfg.AWS.EndpointOverride = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", account)
		if cfg.AWS.Region == "" {
			cfg.AWS.Region = "auto"
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Blob.Backend {
	case BackendS3:
		if c.Blob.Bucket == "" {
			errs = append(errs, errors.New("R2_BUCKET_NAME (or BLOB_BUCKET) is required for the s3 backend"))
		}
	case BackendDynamoDB:
		if c.Blob.Table == "" {
			errs = append(errs, errors.New("BLOB_TABLE is required for the dynamodb backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("BLOB_BACKEND %q is not one of s3, dynamodb, memory", c.Blob.Backend))
	}

	if c.Email.MaxRetryAttempts < 1 {
		errs = append(errs, errors.New("EMAIL_MAX_RETRY_ATTEMPTS must be at least 1"))
	}
	if c.Blob.FetchConcurrency < 1 {
		errs = append(errs, errors.New("ORDERS_FETCH_CONCURRENCY must be at least 1"))
	}

	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("AUTH_JWT_SECRET is required when AUTH_ENABLED is true"))
		}
		if c.Auth.AdminEmail == "" || (c.Auth.AdminPassword == "" && c.Auth.PasswordHash == "") {
			errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD (or ADMIN_PASSWORD_HASH) are required when AUTH_ENABLED is true"))
		}
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getenvDuration accepts Go durations ("45s") or plain seconds ("45").
func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
