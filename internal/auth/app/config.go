package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

type Config struct {
	Env                  string        `toml:"env"`                   // development, test, production (default: development)
	LogLevel             string        `toml:"log_level"`             // debug, info, warn, error (default: info)
	LogFormat            string        `toml:"log_format"`            // json, text (default: json)
	Port                 int           `toml:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `toml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `toml:"housekeeping_interval"` // Cleanup interval (default: 15m)

	DatabaseFile string `toml:"database_file"` // SQLite database file (default: auth.db)
	PepperFile   string `toml:"pepper_file"`   // File holding the password pepper (default: pepper)

	Issuer             string        `toml:"issuer"`                  // iss claim (default: lectern-auth)
	JWTSecret          string        `toml:"jwt_secret"`              // Required outside development
	JWTPreviousSecrets []string      `toml:"jwt_previous_secrets"`    // Verification-only secrets
	AccessTTL          time.Duration `toml:"access_ttl"`              // default: 1h
	RefreshTTL         time.Duration `toml:"refresh_ttl"`             // default: 168h
	PendingMFATTL      time.Duration `toml:"pending_mfa_ttl"`         // default: 5m
	OTPTTL             time.Duration `toml:"otp_ttl"`                 // default: 10m
	OTPResendInterval  time.Duration `toml:"otp_resend_interval"`     // default: 2m
	RedisURL           string        `toml:"redis_url"`               // Optional revocation cache
	NegativeCacheTTL   time.Duration `toml:"revocation_negative_ttl"` // default: 5s

	Mail MailConfig `toml:"mail"`
}

type MailConfig struct {
	Driver   string `toml:"driver"` // log or smtp (default: log)
	Host     string `toml:"smtp_host"`
	Port     int    `toml:"smtp_port"`
	Username string `toml:"smtp_username"`
	Password string `toml:"smtp_password"`
	From     string `toml:"smtp_from"`
}

func DefaultConfig() Config {
	return Config{
		Env:                  EnvDevelopment,
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 15 * time.Minute,
		DatabaseFile:         "auth.db",
		PepperFile:           "pepper",
		Issuer:               "lectern-auth",
		AccessTTL:            time.Hour,
		RefreshTTL:           7 * 24 * time.Hour,
		PendingMFATTL:        5 * time.Minute,
		OTPTTL:               10 * time.Minute,
		OTPResendInterval:    2 * time.Minute,
		NegativeCacheTTL:     5 * time.Second,
		Mail: MailConfig{
			Driver: "log",
			Port:   587,
			From:   "no-reply@lectern.local",
		},
	}
}

// LoadConfig starts from DefaultConfig, decodes AUTH_CONFIG_FILE on top when
// set, then applies environment variables, which always win.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("AUTH_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)

	cfg.DatabaseFile = getEnvOrDefault("AUTH_DATABASE_FILE", cfg.DatabaseFile)
	cfg.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", cfg.PepperFile)

	cfg.Issuer = getEnvOrDefault("AUTH_ISSUER", cfg.Issuer)
	cfg.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.JWTSecret)
	cfg.JWTPreviousSecrets = getEnvListOrDefault("AUTH_JWT_PREVIOUS_SECRETS", cfg.JWTPreviousSecrets)
	cfg.AccessTTL = getEnvDurationOrDefault("AUTH_ACCESS_TTL", cfg.AccessTTL)
	cfg.RefreshTTL = getEnvDurationOrDefault("AUTH_REFRESH_TTL", cfg.RefreshTTL)
	cfg.PendingMFATTL = getEnvDurationOrDefault("AUTH_PENDING_MFA_TTL", cfg.PendingMFATTL)
	cfg.OTPTTL = getEnvDurationOrDefault("AUTH_OTP_TTL", cfg.OTPTTL)
	cfg.OTPResendInterval = getEnvDurationOrDefault("AUTH_OTP_RESEND_INTERVAL", cfg.OTPResendInterval)
	cfg.RedisURL = getEnvOrDefault("AUTH_REDIS_URL", cfg.RedisURL)
	cfg.NegativeCacheTTL = getEnvDurationOrDefault("AUTH_REVOCATION_NEGATIVE_TTL", cfg.NegativeCacheTTL)

	cfg.Mail.Driver = getEnvOrDefault("MAIL_DRIVER", cfg.Mail.Driver)
	cfg.Mail.Host = getEnvOrDefault("SMTP_HOST", cfg.Mail.Host)
	cfg.Mail.Port = getEnvIntOrDefault("SMTP_PORT", cfg.Mail.Port)
	cfg.Mail.Username = getEnvOrDefault("SMTP_USERNAME", cfg.Mail.Username)
	cfg.Mail.Password = getEnvOrDefault("SMTP_PASSWORD", cfg.Mail.Password)
	cfg.Mail.From = getEnvOrDefault("SMTP_FROM", cfg.Mail.From)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("config: unknown ENV %q", c.Env)
	}
	if c.JWTSecret == "" && c.Env != EnvDevelopment {
		return fmt.Errorf("config: AUTH_JWT_SECRET is required when ENV=%s", c.Env)
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.PendingMFATTL <= 0 {
		return fmt.Errorf("config: token lifetimes must be positive")
	}
	if c.RefreshTTL < c.AccessTTL {
		return fmt.Errorf("config: AUTH_REFRESH_TTL (%s) is shorter than AUTH_ACCESS_TTL (%s)", c.RefreshTTL, c.AccessTTL)
	}
	switch c.Mail.Driver {
	case "log":
	case "smtp":
		if c.Mail.Host == "" {
			return fmt.Errorf("config: SMTP_HOST is required with MAIL_DRIVER=smtp")
		}
	default:
		return fmt.Errorf("config: unknown MAIL_DRIVER %q", c.Mail.Driver)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
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
