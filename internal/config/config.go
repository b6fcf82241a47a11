package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	// URL, when set, takes precedence over the individual fields.
	URL                string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig holds the Redis connection used for quote caching and analytics sessions.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
}

// PricingConfig configures the external premium pricing API.
type PricingConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// SignatureConfig configures the QES e-signature provider.
type SignatureConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	CallbackURL   string
	Timeout       time.Duration
}

// AuthConfig holds token signing and cookie settings.
type AuthConfig struct {
	JWTSecret         string
	AdminTokenTTL     time.Duration
	ApplicantTokenTTL time.Duration
	CookieSecure      bool
	CookieDomain      string
	LoginRatePerMin   int
	LoginBurst        int
}

// UploadConfig limits accepted documents.
type UploadConfig struct {
	MaxBytes int64
}

// AnalyticsConfig holds page-view tracker settings.
type AnalyticsConfig struct {
	SessionTTL time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Env         string
	AppHost     string
	Port        string
	LogLevel    string
	TimeZone    string
	CORSOrigins []string
	Database    DatabaseConfig
	MinIO       MinIOConfig
	Redis       RedisConfig
	Pricing     PricingConfig
	Signature   SignatureConfig
	Auth        AuthConfig
	Upload      UploadConfig
	Analytics   AnalyticsConfig
}

// Location resolves TimeZone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the service runs with production settings.
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Env:         getEnv("APP_ENV", "development"),
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		TimeZone:    getEnv("APP_TIMEZONE", "Europe/Zurich"),
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		Pricing: PricingConfig{
			BaseURL:  getEnv("PRICING_BASE_URL", ""),
			APIKey:   getEnv("PRICING_API_KEY", ""),
			Timeout:  getEnvDuration("PRICING_TIMEOUT", 10*time.Second),
			CacheTTL: getEnvDuration("PRICING_CACHE_TTL", 6*time.Hour),
		},
		Signature: SignatureConfig{
			BaseURL:       getEnv("SIGNATURE_BASE_URL", ""),
			APIKey:        getEnv("SIGNATURE_API_KEY", ""),
			WebhookSecret: getEnv("SIGNATURE_WEBHOOK_SECRET", ""),
			CallbackURL:   getEnv("SIGNATURE_CALLBACK_URL", ""),
			Timeout:       getEnvDuration("SIGNATURE_TIMEOUT", 20*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			AdminTokenTTL:     getEnvDuration("ADMIN_TOKEN_TTL", 8*time.Hour),
			ApplicantTokenTTL: getEnvDuration("APPLICANT_TOKEN_TTL", 72*time.Hour),
			CookieSecure:      getEnvBool("COOKIE_SECURE", true),
			CookieDomain:      getEnv("COOKIE_DOMAIN", ""),
			LoginRatePerMin:   getEnvInt("LOGIN_RATE_PER_MIN", 5),
			LoginBurst:        getEnvInt("LOGIN_BURST", 5),
		},
		Upload: UploadConfig{
			MaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
		},
		Analytics: AnalyticsConfig{
			SessionTTL: getEnvDuration("ANALYTICS_SESSION_TTL", 30*time.Minute),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
