// Package config loads service configuration.
//
// Precedence (highest to lowest):
//  1. Environment variables prefixed with PARKING_ (a .env file in the
//     working directory is loaded into the environment first)
//  2. Optional YAML config file
//  3. Built-in defaults
//
// Environment keys map to config keys by splitting on the first underscore
// after the prefix: PARKING_ADMIN_JWT_SECRET -> admin.jwt_secret.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for all environment overrides.
const EnvPrefix = "PARKING_"

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	HTTP     HTTPConfig     `koanf:"http"`
	Admin    AdminConfig    `koanf:"admin"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Log      LogConfig      `koanf:"log"`
	Session  SessionConfig  `koanf:"session"`
	Jobs     JobsConfig     `koanf:"jobs"`
}

// DatabaseConfig holds PostgreSQL connection settings. URL wins over the
// discrete fields when set.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"sslmode"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	ConnectAttempts int           `koanf:"connect_attempts"`
	ConnectBackoff  time.Duration `koanf:"connect_backoff"`
}

// DSN builds a libpq-compatible connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Redacted returns the DSN with the password hidden, for logging.
func (c DatabaseConfig) Redacted() string {
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil {
			return "<unparseable url>"
		}
		return u.Redacted()
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Name, c.SSLMode)
}

// HTTPConfig configures the RPC adapter.
type HTTPConfig struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       float64       `koanf:"rate_limit"`
	RateBurst       int           `koanf:"rate_burst"`
}

// AdminConfig configures the shared-passphrase admin gate.
type AdminConfig struct {
	Passphrase     string        `koanf:"passphrase"`
	PassphraseHash string        `koanf:"passphrase_hash"`
	JWTSecret      string        `koanf:"jwt_secret"`
	TokenTTL       time.Duration `koanf:"token_ttl"`
	BootstrapID    int64         `koanf:"bootstrap_id"`
	BootstrapName  string        `koanf:"bootstrap_name"`
}

// Enabled reports whether any passphrase is configured.
func (c AdminConfig) Enabled() bool {
	return c.Passphrase != "" || c.PassphraseHash != ""
}

// KafkaConfig configures booking notification publishing. An empty broker
// list disables Kafka.
type KafkaConfig struct {
	Brokers      string        `koanf:"brokers"`
	Topic        string        `koanf:"topic"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// BatchTimeout bounds how long a synchronous write waits for a batch to fill.
	BatchTimeout time.Duration `koanf:"batch_timeout"`
}

// BrokerList splits the comma-separated broker string.
func (c KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// SessionConfig configures listing sessions.
type SessionConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// JobsConfig holds cron specs for background jobs. Empty disables a job.
type JobsConfig struct {
	SweepSchedule string `koanf:"sweep_schedule"`
	StatsSchedule string `koanf:"stats_schedule"`
}

// Load reads defaults, the optional YAML file at path and the environment.
// A missing file at path is not an error.
func Load(path string) (*Config, error) {
	// .env is optional, the real environment still applies without it
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps PARKING_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// Validate collects every configuration problem into one error.
func (c *Config) Validate() error {
	var problems []string

	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
		problems = append(problems, "database.url or database.host and database.name must be set")
	}
	if c.Database.MaxConns <= 0 {
		problems = append(problems, fmt.Sprintf("database.max_conns must be positive, got: %d", c.Database.MaxConns))
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		problems = append(problems, fmt.Sprintf("database.min_conns must be between 0 and max_conns, got: %d", c.Database.MinConns))
	}
	if c.Database.ConnectAttempts <= 0 {
		problems = append(problems, fmt.Sprintf("database.connect_attempts must be positive, got: %d", c.Database.ConnectAttempts))
	}
	if c.HTTP.Port == "" {
		problems = append(problems, "http.port cannot be empty")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("http.shutdown_timeout must be positive, got: %s", c.HTTP.ShutdownTimeout))
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 {
		problems = append(problems, "http.rate_limit and http.rate_burst cannot be negative")
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.RateBurst < 1 {
		problems = append(problems, fmt.Sprintf("http.rate_burst must be at least 1 when http.rate_limit is set, got: %d", c.HTTP.RateBurst))
	}
	if c.Admin.TokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("admin.token_ttl must be positive, got: %s", c.Admin.TokenTTL))
	}
	if c.Admin.BootstrapID <= 0 {
		problems = append(problems, fmt.Sprintf("admin.bootstrap_id must be positive, got: %d", c.Admin.BootstrapID))
	}
	if len(c.Kafka.BrokerList()) > 0 {
		if c.Kafka.Topic == "" {
			problems = append(problems, "kafka.topic is required when kafka.brokers is set")
		}
		if c.Kafka.BatchTimeout <= 0 {
			problems = append(problems, fmt.Sprintf("kafka.batch_timeout must be positive, got: %s", c.Kafka.BatchTimeout))
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level must be one of debug, info, warn, error, got: %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be json or console, got: %q", c.Log.Format))
	}
	if c.Session.TTL <= 0 {
		problems = append(problems, fmt.Sprintf("session.ttl must be positive, got: %s", c.Session.TTL))
	}

	if len(problems) == 0 {
		return nil
	}
	msg := "configuration validation failed:\n"
	for i, p := range problems {
		msg += fmt.Sprintf("  %d. %s\n", i+1, p)
	}
	return errors.New(msg)
}
