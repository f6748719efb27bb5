// Package config loads application configuration from the environment.
// Values are decoded with envconfig; a .env file, when present, is loaded by
// the caller before Load runs.
package config

import (
    "fmt"
    "time"

    "github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable named in its envconfig tag.
type Config struct {
    Env      string `envconfig:"APP_ENV" default:"dev"`
    Port     string `envconfig:"APP_PORT" default:"3001"`
    LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

    DBUser string `envconfig:"DB_USER" required:"true"`
    DBPass string `envconfig:"DB_PASS"`
    DBHost string `envconfig:"DB_HOST" required:"true"`
    DBPort string `envconfig:"DB_PORT" default:"3306"`
    DBName string `envconfig:"DB_NAME" required:"true"`

    JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
    TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
    BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`

    UserCacheTTL time.Duration `envconfig:"USER_CACHE_TTL" default:"5m"`
    CSRFTTL      time.Duration `envconfig:"CSRF_TTL" default:"1h"`

    ReminderCron    string        `envconfig:"REMINDER_CRON" default:"0 18 * * *"`
    ReminderTimeout time.Duration `envconfig:"REMINDER_TIMEOUT" default:"5m"`

    // Empty disables booking events.
    RabbitURL   string `envconfig:"RABBITMQ_URL"`
    RabbitQueue string `envconfig:"RABBITMQ_QUEUE" default:"booking_events"`
    ActivityLog string `envconfig:"ACTIVITY_LOG" default:"logs/booking_activity.log"`

    AdminEmail    string `envconfig:"ADMIN_EMAIL"`
    AdminPassword string `envconfig:"ADMIN_PASSWORD"`
    AdminName     string `envconfig:"ADMIN_NAME" default:"Summit Administrator"`

    SMTP      SMTPConfig
    Redis     RedisConfig
    RateLimit RateLimitConfig
    Cache     CacheConfig
}

// SMTPConfig configures outgoing mail.  With an empty Host e-mails are only
// logged.
type SMTPConfig struct {
    Host     string `envconfig:"SMTP_HOST"`
    Port     int    `envconfig:"SMTP_PORT" default:"587"`
    User     string `envconfig:"SMTP_USER"`
    Password string `envconfig:"SMTP_PASS"`
    From     string `envconfig:"EMAIL_FROM" default:"Summit Hub <no-reply@summithub.local>"`
}

// Load decodes the environment into a Config.  A missing required variable
// or an unparsable value is returned as an error.
func Load() (Config, error) {
    var cfg Config
    if err := envconfig.Process("", &cfg); err != nil {
        return Config{}, fmt.Errorf("load config: %w", err)
    }
    cfg.RateLimit.normalize()
    cfg.Cache.normalize()
    if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
        return Config{}, fmt.Errorf("load config: BCRYPT_COST out of range: %d", cfg.BcryptCost)
    }
    return cfg, nil
}

// DSN builds the go-sql-driver connection string.  parseTime returns
// DATETIME columns as time.Time and loc=Local keeps booking dates in the
// server's zone.
func (c Config) DSN() string {
    auth := c.DBUser
    if c.DBPass != "" {
        auth = fmt.Sprintf("%s:%s", c.DBUser, c.DBPass)
    }
    return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
        auth, c.DBHost, c.DBPort, c.DBName)
}
