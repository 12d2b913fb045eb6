package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "https://phl.carto.com/api/v2/sql", cfg.CartoEndpoint)
	assert.Equal(t, "shootings", cfg.ShootingsTable)
	assert.Equal(t, "incidents_part1_part2", cfg.IncidentsTable)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 100, cfg.UpperTolerance)
	assert.Equal(t, 10, cfg.LowerTolerance)
	assert.Empty(t, cfg.Bucket)
	assert.False(t, cfg.PublishEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "gvd-partition-published", cfg.KafkaNotifyTopic)
	assert.False(t, cfg.KafkaNotifyEnabled)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/var/lib/gvd")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("CARTO_ENDPOINT", "https://example.test/sql")
	t.Setenv("SHOOTINGS_TABLE", "shootings_staging")
	t.Setenv("PPD_ENDPOINT", "https://example.test/homicides.json")
	t.Setenv("HTTP_TIMEOUT", "10s")
	t.Setenv("UPPER_TOLERANCE", "250")
	t.Setenv("LOWER_TOLERANCE", "25")
	t.Setenv("GVD_BUCKET", "gvd-test-bucket")
	t.Setenv("GCS_CREDENTIALS_FILE", "/etc/gvd/creds.json")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_NOTIFY_TOPIC", "custom-topic")
	t.Setenv("KAFKA_NOTIFY_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/gvd", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "https://example.test/sql", cfg.CartoEndpoint)
	assert.Equal(t, "shootings_staging", cfg.ShootingsTable)
	assert.Equal(t, "https://example.test/homicides.json", cfg.PPDEndpoint)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 250, cfg.UpperTolerance)
	assert.Equal(t, 25, cfg.LowerTolerance)
	assert.Equal(t, "gvd-test-bucket", cfg.Bucket)
	assert.True(t, cfg.PublishEnabled)
	assert.Equal(t, "/etc/gvd/creds.json", cfg.CredentialsFile)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaNotifyTopic)
	assert.True(t, cfg.KafkaNotifyEnabled)
}

func TestLoad_InvalidHTTPTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
}

func TestLoad_NegativeHTTPTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
}

func TestLoad_InvalidUpperTolerance(t *testing.T) {
	t.Setenv("UPPER_TOLERANCE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPPER_TOLERANCE")
}

func TestLoad_InvalidLowerTolerance(t *testing.T) {
	t.Setenv("LOWER_TOLERANCE", "abc")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOWER_TOLERANCE")
}

func TestLoad_NotifyEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_NOTIFY_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_BucketImpliesPublishing(t *testing.T) {
	t.Setenv("GVD_BUCKET", "gvd-prod")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.PublishEnabled)
}
