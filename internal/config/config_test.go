package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.MaxConnLifetime)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, int64(7884533080), cfg.Admin.BootstrapID)
	assert.Equal(t, time.Hour, cfg.Admin.TokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Empty(t, cfg.Kafka.BrokerList())
	assert.Equal(t, 10*time.Millisecond, cfg.Kafka.BatchTimeout)
	assert.Equal(t, 10, cfg.HTTP.RateBurst)
	assert.False(t, cfg.Admin.Enabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `http:
  port: "9090"
admin:
  passphrase: from-file
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PARKING_ADMIN_PASSPHRASE", "from-env")
	t.Setenv("PARKING_ADMIN_JWT_SECRET", "s3cret")
	t.Setenv("PARKING_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("PARKING_SESSION_TTL", "10m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.Admin.Passphrase)
	assert.Equal(t, "s3cret", cfg.Admin.JWTSecret)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.BrokerList())
	assert.Equal(t, 10*time.Minute, cfg.Session.TTL)
	assert.True(t, cfg.Admin.Enabled())
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("PARKING_LOG_LEVEL", "verbose")
	t.Setenv("PARKING_SESSION_TTL", "0s")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "session.ttl")
}

func TestLoad_RateLimitNeedsBurst(t *testing.T) {
	t.Setenv("PARKING_HTTP_RATE_LIMIT", "5")
	t.Setenv("PARKING_HTTP_RATE_BURST", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.rate_burst")

	t.Setenv("PARKING_HTTP_RATE_LIMIT", "0")
	_, err = Load("")
	assert.NoError(t, err)
}

func TestLoad_KafkaBatchTimeout(t *testing.T) {
	t.Setenv("PARKING_KAFKA_BROKERS", "kafka-1:9092")
	t.Setenv("PARKING_KAFKA_BATCH_TIMEOUT", "0s")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka.batch_timeout")

	t.Setenv("PARKING_KAFKA_BATCH_TIMEOUT", "5ms")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, cfg.Kafka.BatchTimeout)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "admin.jwt_secret", envKey("PARKING_ADMIN_JWT_SECRET"))
	assert.Equal(t, "database.url", envKey("PARKING_DATABASE_URL"))
	assert.Equal(t, "http.rate_limit", envKey("PARKING_HTTP_RATE_LIMIT"))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "parking", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=parking sslmode=disable", c.DSN())
	assert.NotContains(t, c.Redacted(), "password")

	c.URL = "postgres://u:p@db:5432/parking"
	assert.Equal(t, c.URL, c.DSN())
	assert.NotContains(t, c.Redacted(), ":p@")
}
