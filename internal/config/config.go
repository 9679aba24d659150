// Package config defines all configuration structures for MolNetEnhancer.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MotifConfig holds the Mass2Motif mapping thresholds.
type MotifConfig struct {
	MinProbability float64 `mapstructure:"min_probability"`
	MinOverlap     float64 `mapstructure:"min_overlap"`
	Top            int     `mapstructure:"top"`
}

// ClassificationConfig controls how identity keys are resolved to ontology
// records.
type ClassificationConfig struct {
	// Parallelism bounds the number of concurrent ClassyFire lookups.
	Parallelism int `mapstructure:"parallelism"`
	// Cache selects the classification cache backend: "memory" | "redis" | "none".
	Cache string `mapstructure:"cache"`
	// RelaxedRetry enables the second lookup with the stereo-insensitive key.
	RelaxedRetry bool `mapstructure:"relaxed_retry"`
}

// ClassyFireConfig holds the ontology web service parameters.
type ClassyFireConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// RedisConfig holds Redis connection parameters for the classification cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the run-event producer parameters.
type KafkaConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Brokers         []string `mapstructure:"brokers"`
	Topic           string   `mapstructure:"topic"`
	TimeoutMS       int      `mapstructure:"timeout_ms"`
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchSize       int      `mapstructure:"batch_size"`
}

// MinIOConfig holds the result-artifact object storage parameters.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`

	// RetentionDays expires uploaded run artifacts; 0 keeps them forever.
	RetentionDays int `mapstructure:"retention_days"`
}

// Neo4jConfig holds the annotated-network export parameters.
type Neo4jConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// MetricsConfig controls the Prometheus registry.  The CLI is short-lived, so
// metrics are written to a node-exporter textfile when TextfilePath is set.
type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Namespace    string `mapstructure:"namespace"`
	Subsystem    string `mapstructure:"subsystem"`
	TextfilePath string `mapstructure:"textfile_path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.  Every infrastructure
// component and application service reads its settings from the relevant
// sub-struct.
type Config struct {
	Log            LogConfig            `mapstructure:"log"`
	Motif          MotifConfig          `mapstructure:"motif"`
	Classification ClassificationConfig `mapstructure:"classification"`
	ClassyFire     ClassyFireConfig     `mapstructure:"classyfire"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	MinIO          MinIOConfig          `mapstructure:"minio"`
	Neo4j          Neo4jConfig          `mapstructure:"neo4j"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Motif
	if c.Motif.MinProbability < 0 || c.Motif.MinProbability > 1 {
		return fmt.Errorf("config: motif.min_probability %v is out of range [0, 1]", c.Motif.MinProbability)
	}
	if c.Motif.MinOverlap < 0 || c.Motif.MinOverlap > 1 {
		return fmt.Errorf("config: motif.min_overlap %v is out of range [0, 1]", c.Motif.MinOverlap)
	}
	if c.Motif.Top < 1 {
		return fmt.Errorf("config: motif.top must be ≥ 1, got %d", c.Motif.Top)
	}

	// Classification
	if c.Classification.Parallelism < 1 {
		return fmt.Errorf("config: classification.parallelism must be ≥ 1, got %d", c.Classification.Parallelism)
	}
	switch c.Classification.Cache {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when classification.cache is redis")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	default:
		return fmt.Errorf("config: classification.cache %q is invalid; expected memory|redis|none", c.Classification.Cache)
	}

	// ClassyFire
	u, err := url.Parse(c.ClassyFire.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: classyfire.base_url %q is not an absolute URL", c.ClassyFire.BaseURL)
	}
	if c.ClassyFire.Timeout <= 0 {
		return fmt.Errorf("config: classyfire.timeout must be positive")
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required")
		}
	}

	// MinIO
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required")
		}
	}

	// Neo4j
	if c.Neo4j.Enabled && c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}

	return nil
}
