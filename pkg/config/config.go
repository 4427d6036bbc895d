package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Site     SiteConfig
	Webhook  WebhookConfig
	Email    EmailConfig
	CORS     CORSConfig
	Log      LogConfig
	Events   EventsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig verifies bearer tokens issued by the identity provider.
type SessionConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

// SiteConfig describes the public-facing site used to build permalinks.
type SiteConfig struct {
	BaseURL         string
	DefaultImageURL string
	Timezone        string
}

// WebhookConfig points announcements at the chat channel webhook.
type WebhookConfig struct {
	URL     string
	Banner  string
	Timeout time.Duration
}

// EmailConfig drives announcement email via Resend.
type EmailConfig struct {
	Enabled bool
	APIKey  string
	From    string
	To      string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EventsConfig tunes the event listing endpoints.
type EventsConfig struct {
	PageSize        int
	PreviewCacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		Secret:   v.GetString("SESSION_SECRET"),
		Issuer:   v.GetString("SESSION_ISSUER"),
		Audience: splitAndTrim(v.GetString("SESSION_AUDIENCE")),
	}

	cfg.Site = SiteConfig{
		BaseURL:         strings.TrimRight(v.GetString("SITE_BASE_URL"), "/"),
		DefaultImageURL: v.GetString("SITE_DEFAULT_IMAGE_URL"),
		Timezone:        v.GetString("SITE_TIMEZONE"),
	}

	cfg.Webhook = WebhookConfig{
		URL:     v.GetString("EVENT_WEBHOOK_URL"),
		Banner:  v.GetString("EVENT_WEBHOOK_BANNER"),
		Timeout: parseDuration(v.GetString("EVENT_WEBHOOK_TIMEOUT"), 10*time.Second),
	}

	cfg.Email = EmailConfig{
		Enabled: v.GetBool("EMAIL_ENABLED"),
		APIKey:  v.GetString("RESEND_API_KEY"),
		From:    v.GetString("EMAIL_FROM"),
		To:      v.GetString("EMAIL_TO"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Events = EventsConfig{
		PageSize:        v.GetInt("EVENTS_PAGE_SIZE"),
		PreviewCacheTTL: parseDuration(v.GetString("EVENTS_PREVIEW_CACHE_TTL"), time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "club_api")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_secret")
	v.SetDefault("SESSION_ISSUER", "")
	v.SetDefault("SESSION_AUDIENCE", "")

	v.SetDefault("SITE_BASE_URL", "https://bthsaction.org")
	v.SetDefault("SITE_DEFAULT_IMAGE_URL", "https://bthsaction.org/icon.png")
	v.SetDefault("SITE_TIMEZONE", "America/New_York")

	v.SetDefault("EVENT_WEBHOOK_URL", "")
	v.SetDefault("EVENT_WEBHOOK_BANNER", "# New event posted!")
	v.SetDefault("EVENT_WEBHOOK_TIMEOUT", "10s")

	v.SetDefault("EMAIL_ENABLED", false)
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("EMAIL_FROM", "events@bthsaction.org")
	v.SetDefault("EMAIL_TO", "members@bthsaction.org")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EVENTS_PAGE_SIZE", 10)
	v.SetDefault("EVENTS_PREVIEW_CACHE_TTL", "1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
