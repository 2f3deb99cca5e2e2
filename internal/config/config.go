package config

import (
	"strings"
	"time"

	"github.com/SeakMengs/DocSign/internal/env"
)

type Config struct {
	Port        string
	ENV         string
	DB          DatabaseConfig
	RateLimiter RateLimiterConfig
	Auth        AuthConfig
	Minio       MinioConfig
	Document    DocumentConfig
	Mail        MailConfig
	Client      ClientConfig
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type AuthConfig struct {
	JWT_SECRET string
	TOKEN_TTL  time.Duration
}

type DatabaseConfig struct {
	DB_HOST      string
	DB_PORT      string
	DB_DATABASE  string
	DB_USERNAME  string
	DB_PASSWORD  string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  string
}

type MinioConfig struct {
	ENDPOINT   string
	ACCESS_KEY string
	SECRET_KEY string
	USE_SSL    bool
	BUCKET     string
}

// Mail is used for the "document signed" notification. Delivery is skipped without an API key.
type MailConfig struct {
	FROM_EMAIL       string
	SENDGRID_API_KEY string
}

type DocumentConfig struct {
	// Upper bound for uploaded PDFs in bytes.
	MaxUploadSize int64
}

// ClientConfig is read by the docsign CLI.
type ClientConfig struct {
	BACKEND_URL   string
	TOKEN_FILE    string
	Timeout       time.Duration
	ViewportWidth int
	PreviewDir    string
	SettleDelay   time.Duration
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.ENV, "production")
}

func GetConfig() Config {
	return Config{
		Port: env.GetString("PORT", "8080"),
		ENV:  env.GetString("ENV", "development"),
		DB: DatabaseConfig{
			DB_HOST:      env.GetString("DB_HOST", "127.0.0.1"),
			DB_PORT:      env.GetString("DB_PORT", "5432"),
			DB_USERNAME:  env.GetString("DB_USERNAME", "root"),
			DB_PASSWORD:  env.GetString("DB_PASSWORD", ""),
			DB_DATABASE:  env.GetString("DB_DATABASE", "docsign"),
			MaxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 30),
			MaxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 30),
			MaxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
		// By default if not specified, we allow 5000 requests per minute on all routes
		RateLimiter: RateLimiterConfig{
			RequestsPerTimeFrame: env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 5000),
			TimeFrame:            env.GetDuration("RATE_LIMIT_TIME_FRAME", time.Minute),
			Enabled:              env.GetBool("RATE_LIMIT_ENABLED", true),
		},
		Auth: AuthConfig{
			JWT_SECRET: env.GetString("AUTH_JWT_SECRET", ""),
			TOKEN_TTL:  env.GetDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		},
		Minio: MinioConfig{
			ENDPOINT:   env.GetString("MINIO_ENDPOINT", "127.0.0.1:9000"),
			ACCESS_KEY: env.GetString("MINIO_ACCESS_KEY", ""),
			SECRET_KEY: env.GetString("MINIO_SECRET_KEY", ""),
			USE_SSL:    env.GetBool("MINIO_USE_SSL", false),
			BUCKET:     env.GetString("MINIO_BUCKET", "docsign"),
		},
		Document: DocumentConfig{
			MaxUploadSize: int64(env.GetInt("DOCUMENT_MAX_UPLOAD_SIZE", 10*1024*1024)),
		},
		Mail: MailConfig{
			FROM_EMAIL:       env.GetString("MAIL_FROM_EMAIL", "no-reply@docsign.local"),
			SENDGRID_API_KEY: env.GetString("SENDGRID_API_KEY", ""),
		},
		Client: ClientConfig{
			BACKEND_URL:   env.GetString("DOCSIGN_BACKEND_URL", "http://localhost:8080"),
			TOKEN_FILE:    env.GetString("DOCSIGN_TOKEN_FILE", ""),
			Timeout:       env.GetDuration("DOCSIGN_REQUEST_TIMEOUT", 30*time.Second),
			ViewportWidth: env.GetInt("DOCSIGN_VIEWPORT_WIDTH", 800),
			PreviewDir:    env.GetString("DOCSIGN_PREVIEW_DIR", ""),
			SettleDelay:   env.GetDuration("DOCSIGN_SETTLE_DELAY", 500*time.Millisecond),
		},
	}
}
