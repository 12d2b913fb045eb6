package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	DataDir   string
	LogLevel  string
	LogFormat string

	// Upstream data sources.
	CartoEndpoint  string
	ShootingsTable string
	IncidentsTable string
	PPDEndpoint    string
	HTTPTimeout    time.Duration

	// Anomaly tolerances for the shootings row-count check.
	UpperTolerance int
	LowerTolerance int

	// Cloud Storage publication. Publishing is enabled when a bucket is set.
	Bucket          string
	CredentialsFile string
	PublishEnabled  bool

	// Kafka partition-published notifications.
	KafkaBrokers       []string
	KafkaNotifyTopic   string
	KafkaNotifyEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	upper, err := parseTolerance("UPPER_TOLERANCE", 100)
	if err != nil {
		return nil, err
	}
	lower, err := parseTolerance("LOWER_TOLERANCE", 10)
	if err != nil {
		return nil, err
	}

	bucket := os.Getenv("GVD_BUCKET")

	cfg := &Config{
		DataDir:   envOrDefault("DATA_DIR", "data"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		CartoEndpoint:  envOrDefault("CARTO_ENDPOINT", "https://phl.carto.com/api/v2/sql"),
		ShootingsTable: envOrDefault("SHOOTINGS_TABLE", "shootings"),
		IncidentsTable: envOrDefault("INCIDENTS_TABLE", "incidents_part1_part2"),
		PPDEndpoint:    envOrDefault("PPD_ENDPOINT", "https://phillypolice.com/assets/crime-stats/homicide-stats.json"),
		HTTPTimeout:    httpTimeout,

		UpperTolerance: upper,
		LowerTolerance: lower,

		Bucket:          bucket,
		CredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		PublishEnabled:  bucket != "",

		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaNotifyTopic:   envOrDefault("KAFKA_NOTIFY_TOPIC", "gvd-partition-published"),
		KafkaNotifyEnabled: os.Getenv("KAFKA_NOTIFY_ENABLED") == "true",
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.CartoEndpoint == "" {
		return nil, errors.New("CARTO_ENDPOINT is required")
	}
	if cfg.KafkaNotifyEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_NOTIFY_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaNotifyEnabled && cfg.KafkaNotifyTopic == "" {
		return nil, errors.New("KAFKA_NOTIFY_ENABLED is true but KAFKA_NOTIFY_TOPIC is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseTolerance(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
