package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder" validate:"required"`
	Notifier NotifierConfig `mapstructure:"notifier" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// CORSAllowedOrigins lists the browser origins allowed to call the API.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the storage backend: "postgres" or the embedded "sqlite".
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a postgres connection URL, or a file path / DSN for sqlite.
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	// MigrateOnStart applies pending migrations before the server starts.
	MigrateOnStart bool `mapstructure:"migrate_on_start"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                 string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes      int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=44640"`
	ResetTokenLifetimeMinutes int    `mapstructure:"reset_token_lifetime_minutes" validate:"required,gt=0,lte=1440"`
	BCryptCost                int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
	// ResetURLBase is the frontend page that receives password reset tokens.
	ResetURLBase string `mapstructure:"reset_url_base" validate:"required,url"`
}

// ReminderConfig controls the reminder scheduler.
type ReminderConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Interval between scheduler ticks.
	Interval time.Duration `mapstructure:"interval" validate:"required,gte=1s"`
	// StoreTimeout bounds every store operation issued by a tick.
	StoreTimeout time.Duration `mapstructure:"store_timeout" validate:"required,gt=0"`
	// BatchSize caps the number of tasks dispatched per tick. Zero means no cap.
	BatchSize int `mapstructure:"batch_size" validate:"gte=0"`
}

// NotifierConfig selects and configures the outbound reminder transport.
type NotifierConfig struct {
	Transport string      `mapstructure:"transport" validate:"required,oneof=smtp ses kafka log"`
	From      string      `mapstructure:"from" validate:"omitempty,email"`
	SMTP      SMTPConfig  `mapstructure:"smtp"`
	SES       SESConfig   `mapstructure:"ses"`
	Kafka     KafkaConfig `mapstructure:"kafka"`

	// Delivery pool settings.
	Workers     int           `mapstructure:"workers" validate:"gte=0"`
	QueueSize   int           `mapstructure:"queue_size" validate:"gte=0"`
	RatePerSec  int           `mapstructure:"rate_per_sec" validate:"gte=0"`
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"gte=0"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=0"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gte=0,lt=65536"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	StartTLS bool   `mapstructure:"starttls"`
}

// SESConfig holds Amazon SES settings. Credentials come from the default AWS chain.
type SESConfig struct {
	Region string `mapstructure:"region"`
}

// KafkaConfig holds the broker list and topic reminders are published to.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Validate performs the transport-specific checks that struct tags cannot express.
func (n NotifierConfig) Validate() error {
	switch n.Transport {
	case "smtp":
		if n.SMTP.Host == "" || n.SMTP.Port == 0 {
			return fmt.Errorf("notifier.smtp.host and notifier.smtp.port are required for smtp transport")
		}
		if n.From == "" {
			return fmt.Errorf("notifier.from is required for smtp transport")
		}
	case "ses":
		if n.SES.Region == "" {
			return fmt.Errorf("notifier.ses.region is required for ses transport")
		}
		if n.From == "" {
			return fmt.Errorf("notifier.from is required for ses transport")
		}
	case "kafka":
		if len(n.Kafka.Brokers) == 0 || n.Kafka.Topic == "" {
			return fmt.Errorf("notifier.kafka.brokers and notifier.kafka.topic are required for kafka transport")
		}
	}
	return nil
}
