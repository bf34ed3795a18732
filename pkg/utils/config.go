package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Session   SessionConfig
	Email     EmailConfig
	SMS       SMSConfig
	OTP       OTPConfig
	RateLimit RateLimitConfig
	Cleanup   CleanupConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	CORSOrigin  string
	MigrateOnUp bool
	Environment string
	SentryDSN   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig selects the backing stores. Driver is "memory" or "postgres";
// CodeStore may additionally be "redis".
type StorageConfig struct {
	Driver    string
	CodeStore string
}

type SessionConfig struct {
	ExpiryHours int
}

type EmailConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	From         string
	ResendAPIKey string
	ResendURL    string
}

type SMSConfig struct {
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioBaseURL    string
}

type OTPConfig struct {
	ExpiryMinutes         int
	ResendCooldownSeconds int
	DeliveryTimeout       time.Duration
	InvalidateOnReissue   bool
}

type RateLimitConfig struct {
	SendCodePerMinute int
	SendCodeBurst     int
}

type CleanupConfig struct {
	Interval        time.Duration
	RegistrationTTL time.Duration
}

// LoadConfig reads the optional env file at path, then overlays the process
// environment. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	v.SetDefault("APP_NAME", "pesa-smart-plan")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "*")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STORAGE_DRIVER", "memory")
	v.SetDefault("CODE_STORE", "")
	v.SetDefault("SESSION_EXPIRY_HOURS", 24)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_FROM", "Pesa Smart Plan <noreply@resend.dev>")
	v.SetDefault("RESEND_API_URL", "https://api.resend.com/emails")
	v.SetDefault("TWILIO_BASE_URL", "https://api.twilio.com/2010-04-01")
	v.SetDefault("OTP_EXPIRY_MINUTES", 5)
	v.SetDefault("OTP_RESEND_COOLDOWN_SECONDS", 60)
	v.SetDefault("OTP_DELIVERY_TIMEOUT", "10s")
	v.SetDefault("OTP_INVALIDATE_ON_REISSUE", false)
	v.SetDefault("RATE_LIMIT_SEND_CODE_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_SEND_CODE_BURST", 5)
	v.SetDefault("CLEANUP_INTERVAL", "1m")
	v.SetDefault("REGISTRATION_TTL", "1h")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Port:        v.GetString("PORT"),
			Debug:       v.GetBool("DEBUG"),
			LogPath:     v.GetString("LOG_PATH"),
			CORSOrigin:  v.GetString("CORS_ALLOWED_ORIGIN"),
			MigrateOnUp: v.GetBool("MIGRATE_ON_START"),
			Environment: v.GetString("APP_ENV"),
			SentryDSN:   v.GetString("SENTRY_DSN"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Storage: StorageConfig{
			Driver:    v.GetString("STORAGE_DRIVER"),
			CodeStore: v.GetString("CODE_STORE"),
		},
		Session: SessionConfig{
			ExpiryHours: v.GetInt("SESSION_EXPIRY_HOURS"),
		},
		Email: EmailConfig{
			Host:         v.GetString("SMTP_HOST"),
			Port:         v.GetInt("SMTP_PORT"),
			User:         v.GetString("SMTP_USER"),
			Password:     v.GetString("SMTP_PASS"),
			From:         v.GetString("EMAIL_FROM"),
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			ResendURL:    v.GetString("RESEND_API_URL"),
		},
		SMS: SMSConfig{
			TwilioAccountSID: v.GetString("TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:  v.GetString("TWILIO_AUTH_TOKEN"),
			TwilioFrom:       v.GetString("TWILIO_PHONE_NUMBER"),
			TwilioBaseURL:    v.GetString("TWILIO_BASE_URL"),
		},
		OTP: OTPConfig{
			ExpiryMinutes:         v.GetInt("OTP_EXPIRY_MINUTES"),
			ResendCooldownSeconds: v.GetInt("OTP_RESEND_COOLDOWN_SECONDS"),
			DeliveryTimeout:       v.GetDuration("OTP_DELIVERY_TIMEOUT"),
			InvalidateOnReissue:   v.GetBool("OTP_INVALIDATE_ON_REISSUE"),
		},
		RateLimit: RateLimitConfig{
			SendCodePerMinute: v.GetInt("RATE_LIMIT_SEND_CODE_PER_MINUTE"),
			SendCodeBurst:     v.GetInt("RATE_LIMIT_SEND_CODE_BURST"),
		},
		Cleanup: CleanupConfig{
			Interval:        v.GetDuration("CLEANUP_INTERVAL"),
			RegistrationTTL: v.GetDuration("REGISTRATION_TTL"),
		},
	}

	return config, nil
}

// CodeTTL is the validity window of a freshly issued verification code.
func (c OTPConfig) CodeTTL() time.Duration {
	if c.ExpiryMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.ExpiryMinutes) * time.Minute
}

func (c OTPConfig) ResendCooldown() time.Duration {
	if c.ResendCooldownSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.ResendCooldownSeconds) * time.Second
}

func (c SessionConfig) TTL() time.Duration {
	if c.ExpiryHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ExpiryHours) * time.Hour
}
