package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	AWS      AWSConfig
	Email    EmailConfig
	Token    TokenConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int // 0 keeps the pgx default
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AdminConfig seeds the first dashboard operator. Both fields must be set for bootstrap to run.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// AWSConfig holds AWS credentials and the payment receipts bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ReceiptsBucket       string
	PresignExpireMinutes int
}

// EmailConfig holds SMTP settings and the approval notification mode.
type EmailConfig struct {
	FromAddress string
	FromName    string
	FestName    string // shown in subjects and bodies
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	Delivery    string // "queue" (Redis worker) or "direct" (SMTP inside the request)
	TimeoutSec  int

	// InlineWorker runs the queue consumer inside the HTTP server process.
	InlineWorker bool
}

// TokenConfig controls registration token composition and the collision retry ladder.
type TokenConfig struct {
	OrgCode        string
	Year           string
	MaxAttempts    int
	RetryDelayMS   int
	VerifyFallback bool
}

// Email delivery modes.
const (
	DeliveryQueue  = "queue"
	DeliveryDirect = "direct"
)

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Timeout returns the per-message send budget.
func (c EmailConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// SMTPAddr returns host:port for the SMTP relay, or "" when SMTP is not configured.
func (c EmailConfig) SMTPAddr() string {
	if c.SMTPHost == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.SMTPHost, c.SMTPPort)
}

// RetryDelay returns the wait between token attempts.
func (c TokenConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "eventhub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 0),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 12),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "EventHub Admin"),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "ap-south-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ReceiptsBucket:       getEnv("AWS_S3_RECEIPTS_BUCKET", "eventhub-receipts"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Email: EmailConfig{
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@eventhub.com"),
			FromName:    getEnv("EMAIL_FROM_NAME", "EventHub"),
			FestName:    getEnv("EMAIL_FEST_NAME", "EventHub 2026"),
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnvInt("SMTP_PORT", 587),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
			Delivery:    strings.ToLower(getEnv("EMAIL_DELIVERY", DeliveryQueue)),
			TimeoutSec:  getEnvInt("EMAIL_TIMEOUT_SEC", 10),

			InlineWorker: getEnvBool("EMAIL_INLINE_WORKER", false),
		},
		Token: TokenConfig{
			OrgCode:        getEnv("TOKEN_ORG_CODE", "MCGK"),
			Year:           getEnv("TOKEN_YEAR", "2026"),
			MaxAttempts:    getEnvInt("TOKEN_MAX_ATTEMPTS", 5),
			RetryDelayMS:   getEnvInt("TOKEN_RETRY_DELAY_MS", 100),
			VerifyFallback: getEnvBool("TOKEN_VERIFY_FALLBACK", true),
		},
	}

	if cfg.Email.Delivery != DeliveryQueue && cfg.Email.Delivery != DeliveryDirect {
		return nil, fmt.Errorf("EMAIL_DELIVERY must be %q or %q, got %q", DeliveryQueue, DeliveryDirect, cfg.Email.Delivery)
	}
	if cfg.Token.MaxAttempts < 1 {
		return nil, fmt.Errorf("TOKEN_MAX_ATTEMPTS must be at least 1")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
