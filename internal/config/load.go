package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key when read from the environment,
// e.g. TASKLYTICS_SERVER_PORT for server.port.
const EnvPrefix = "TASKLYTICS"

// defaultCORSOrigins mirrors the origins the web frontend is served from.
var defaultCORSOrigins = []string{
	"https://tasklytics.dev",
	"https://www.tasklytics.dev",
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// defaults lists every key with a default value. Keys without a sensible default
// (database.url, auth.jwt_secret, ...) appear in requiredKeys instead.
var defaults = map[string]any{
	"server.port":                       8080,
	"server.log_level":                  "info",
	"server.cors_allowed_origins":       defaultCORSOrigins,
	"server.shutdown_timeout":           10 * time.Second,
	"database.driver":                   "postgres",
	"database.max_open_conns":           10,
	"database.max_idle_conns":           5,
	"database.conn_max_lifetime":        5 * time.Minute,
	"database.migrate_on_start":         true,
	"auth.token_lifetime_minutes":       60,
	"auth.reset_token_lifetime_minutes": 15,
	"auth.bcrypt_cost":                  10,
	"auth.reset_url_base":               "http://localhost:5173/reset-password",
	"reminder.enabled":                  true,
	"reminder.interval":                 time.Minute,
	"reminder.store_timeout":            10 * time.Second,
	"reminder.batch_size":               500,
	"notifier.transport":                "log",
	"notifier.smtp.port":                587,
	"notifier.smtp.starttls":            true,
	"notifier.workers":                  2,
	"notifier.queue_size":               256,
	"notifier.rate_per_sec":             5,
	"notifier.send_timeout":             30 * time.Second,
	"notifier.max_attempts":             1,
}

var requiredKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"notifier.from",
	"notifier.smtp.host",
	"notifier.smtp.username",
	"notifier.smtp.password",
	"notifier.ses.region",
	"notifier.kafka.brokers",
	"notifier.kafka.topic",
}

// legacyEnv maps configuration keys to the unprefixed variable names used by
// earlier deployments. The prefixed name always wins when both are set.
var legacyEnv = map[string][]string{
	"database.url":           {"DATABASE_URL"},
	"auth.jwt_secret":        {"JWT_SECRET"},
	"notifier.from":          {"MAIL_FROM"},
	"notifier.smtp.host":     {"MAIL_SERVER", "SMTP_HOST"},
	"notifier.smtp.port":     {"MAIL_PORT", "SMTP_PORT"},
	"notifier.smtp.username": {"MAIL_USERNAME", "SMTP_USER"},
	"notifier.smtp.password": {"MAIL_PASSWORD", "SMTP_PASS"},
	"notifier.smtp.starttls": {"MAIL_STARTTLS"},
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A .env file in the working directory is loaded first if present; it never
// overrides variables that are already set.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/tasklytics")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate runs struct-tag validation followed by the cross-field checks.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := cfg.Notifier.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func bindEnv(v *viper.Viper) error {
	keys := make([]string, 0, len(defaults)+len(requiredKeys))
	for key := range defaults {
		keys = append(keys, key)
	}
	keys = append(keys, requiredKeys...)

	for _, key := range keys {
		names := []string{envName(key)}
		names = append(names, legacyEnv[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
