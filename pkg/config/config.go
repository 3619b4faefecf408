package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for a Postura agent. Values are applied in
// order: defaults, YAML file (path from POSTURA_CONFIG), environment, then
// flags; later sources win.
type Config struct {
	// MQTT configuration
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTPort     int    `yaml:"mqtt_port"`
	MQTTUser     string `yaml:"mqtt_user"`
	MQTTPassword string `yaml:"mqtt_password"`
	MQTTClientID string `yaml:"mqtt_client_id"`

	// Redis configuration
	RedisHost     string `yaml:"redis_host"`
	RedisPort     int    `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Postgres configuration
	PostgresHost               string `yaml:"postgres_host"`
	PostgresPort               int    `yaml:"postgres_port"`
	PostgresDB                 string `yaml:"postgres_db"`
	PostgresUser               string `yaml:"postgres_user"`
	PostgresPassword           string `yaml:"postgres_password"`
	PostgresSSLMode            string `yaml:"postgres_ssl_mode"`
	PostgresMaxConnections     int    `yaml:"postgres_max_connections"`
	PostgresMaxIdleConnections int    `yaml:"postgres_max_idle_connections"`
	PostgresConnMaxLifetimeMin int    `yaml:"postgres_conn_max_lifetime_min"`

	// Service configuration
	ServiceName string `yaml:"service_name"`
	HealthPort  int    `yaml:"health_port"`
	LogLevel    string `yaml:"log_level"`

	// Collector agent configuration
	RawTopic            string `yaml:"raw_topic"`
	SampleRetentionDays int    `yaml:"sample_retention_days"`
	DeviceTTLSec        int    `yaml:"device_ttl_sec"`

	// Analysis agent configuration
	AnalysisIntervalSec int `yaml:"analysis_interval_sec"`
	GapThresholdMs      int `yaml:"gap_threshold_ms"`
	MovementWindow      int `yaml:"movement_window"`
	HistogramBins       int `yaml:"histogram_bins"`
	VectorDim           int `yaml:"vector_dim"`
	MinDayRows          int `yaml:"min_day_rows"`
	Workers             int `yaml:"workers"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTUser:     "",
		MQTTPassword: "",
		MQTTClientID: "",

		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresDB:                 "postura",
		PostgresUser:               "postura",
		PostgresPassword:           "",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 5,
		PostgresConnMaxLifetimeMin: 30,

		ServiceName: "postura-agent",
		HealthPort:  8080,
		LogLevel:    "info",

		RawTopic:            "posture/raw/+/+",
		SampleRetentionDays: 7,
		DeviceTTLSec:        300,

		// Analysis defaults: 15 min batch cadence, 10 s activity gap,
		// 30-sample movement window, 8x8 histogram flattened to a
		// 64-dimensional posture vector.
		AnalysisIntervalSec: 900,
		GapThresholdMs:      10000,
		MovementWindow:      30,
		HistogramBins:       8,
		VectorDim:           64,
		MinDayRows:          0,
		Workers:             0,
	}
}

// LoadFromFile merges configuration from a YAML file. An empty path is a
// no-op so agents run without a config file.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables with POSTURA_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("POSTURA_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("POSTURA_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("POSTURA_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("POSTURA_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("POSTURA_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("POSTURA_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("POSTURA_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("POSTURA_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("POSTURA_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("POSTURA_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("POSTURA_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("POSTURA_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("POSTURA_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("POSTURA_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("POSTURA_POSTGRES_SSL_MODE"); v != "" {
		c.PostgresSSLMode = v
	}
	if v := os.Getenv("POSTURA_POSTGRES_MAX_CONNECTIONS"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxConnections = max
		}
	}

	// Service configuration
	if v := os.Getenv("POSTURA_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("POSTURA_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("POSTURA_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Collector agent configuration
	if v := os.Getenv("POSTURA_RAW_TOPIC"); v != "" {
		c.RawTopic = v
	}
	if v := os.Getenv("POSTURA_SAMPLE_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.SampleRetentionDays = days
		}
	}
	if v := os.Getenv("POSTURA_DEVICE_TTL_SEC"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			c.DeviceTTLSec = ttl
		}
	}

	// Analysis agent configuration
	if v := os.Getenv("POSTURA_ANALYSIS_INTERVAL_SEC"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			c.AnalysisIntervalSec = interval
		}
	}
	if v := os.Getenv("POSTURA_GAP_THRESHOLD_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.GapThresholdMs = ms
		}
	}
	if v := os.Getenv("POSTURA_MOVEMENT_WINDOW"); v != "" {
		if window, err := strconv.Atoi(v); err == nil {
			c.MovementWindow = window
		}
	}
	if v := os.Getenv("POSTURA_HISTOGRAM_BINS"); v != "" {
		if bins, err := strconv.Atoi(v); err == nil {
			c.HistogramBins = bins
		}
	}
	if v := os.Getenv("POSTURA_VECTOR_DIM"); v != "" {
		if dim, err := strconv.Atoi(v); err == nil {
			c.VectorDim = dim
		}
	}
	if v := os.Getenv("POSTURA_MIN_DAY_ROWS"); v != "" {
		if rows, err := strconv.Atoi(v); err == nil {
			c.MinDayRows = rows
		}
	}
	if v := os.Getenv("POSTURA_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			c.Workers = workers
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	// MQTT flags
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	pflag.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	pflag.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	pflag.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	pflag.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	pflag.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	pflag.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres username")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresSSLMode, "postgres-ssl-mode", c.PostgresSSLMode, "Postgres SSL mode")

	// Service flags
	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Collector agent flags
	pflag.StringVar(&c.RawTopic, "raw-topic", c.RawTopic, "MQTT subscription for raw posture samples")
	pflag.IntVar(&c.SampleRetentionDays, "sample-retention-days", c.SampleRetentionDays, "Days of raw samples kept in Redis")
	pflag.IntVar(&c.DeviceTTLSec, "device-ttl-sec", c.DeviceTTLSec, "Device last-seen key TTL in seconds")

	// Analysis agent flags
	pflag.IntVar(&c.AnalysisIntervalSec, "analysis-interval", c.AnalysisIntervalSec, "Analysis interval in seconds")
	pflag.IntVar(&c.GapThresholdMs, "gap-threshold-ms", c.GapThresholdMs, "Idle gap closing an activity block (ms)")
	pflag.IntVar(&c.MovementWindow, "movement-window", c.MovementWindow, "Movement score sliding window in samples")
	pflag.IntVar(&c.HistogramBins, "histogram-bins", c.HistogramBins, "Histogram bins per dimension")
	pflag.IntVar(&c.VectorDim, "vector-dim", c.VectorDim, "Posture vector dimensions")
	pflag.IntVar(&c.MinDayRows, "min-day-rows", c.MinDayRows, "Rows a day partition must exceed to be analyzed")
	pflag.IntVar(&c.Workers, "workers", c.Workers, "Feature derivation workers (0 = all CPUs)")

	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	var problems []string

	if c.MQTTBroker == "" {
		problems = append(problems, "MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		problems = append(problems, "MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		problems = append(problems, "Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		problems = append(problems, "Redis port must be between 1 and 65535")
	}
	if c.PostgresHost == "" {
		problems = append(problems, "Postgres host is required")
	}
	if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
		problems = append(problems, "Postgres port must be between 1 and 65535")
	}
	if c.PostgresDB == "" {
		problems = append(problems, "Postgres database name is required")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		problems = append(problems, "Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		problems = append(problems, "Service name is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		problems = append(problems, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel))
	}

	if c.SampleRetentionDays < 1 {
		problems = append(problems, "sample retention must be at least 1 day")
	}
	if c.AnalysisIntervalSec <= 0 {
		problems = append(problems, "analysis interval must be positive")
	}
	if c.GapThresholdMs <= 0 {
		problems = append(problems, "gap threshold must be positive")
	}
	if c.MovementWindow < 1 {
		problems = append(problems, "movement window must be at least 1 sample")
	}
	if c.HistogramBins < 1 {
		problems = append(problems, "histogram needs at least 1 bin per dimension")
	}
	if c.VectorDim < 1 {
		problems = append(problems, "posture vector needs at least 1 dimension")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresDB,
		c.PostgresUser, c.PostgresPassword, c.PostgresSSLMode)
}
