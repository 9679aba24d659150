package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "MOLNET"

// newViper builds a pre-configured Viper instance: YAML file type, MOLNET_
// env prefix, automatic env binding, and a key replacer that maps "." → "_"
// so that nested keys like "redis.addr" resolve to "MOLNET_REDIS_ADDR".
// Every known key is registered with its default so that AutomaticEnv can
// override keys that are absent from the file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerDefaults(v, NewDefaultConfig())
	return v
}

func registerDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output_paths", d.Log.OutputPaths)

	v.SetDefault("motif.min_probability", d.Motif.MinProbability)
	v.SetDefault("motif.min_overlap", d.Motif.MinOverlap)
	v.SetDefault("motif.top", d.Motif.Top)

	v.SetDefault("classification.parallelism", d.Classification.Parallelism)
	v.SetDefault("classification.cache", d.Classification.Cache)
	v.SetDefault("classification.relaxed_retry", d.Classification.RelaxedRetry)

	v.SetDefault("classyfire.base_url", d.ClassyFire.BaseURL)
	v.SetDefault("classyfire.timeout", d.ClassyFire.Timeout)
	v.SetDefault("classyfire.poll_interval", d.ClassyFire.PollInterval)
	v.SetDefault("classyfire.max_retries", d.ClassyFire.MaxRetries)
	v.SetDefault("classyfire.retry_backoff", d.ClassyFire.RetryBackoff)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)
	v.SetDefault("redis.dial_timeout", d.Redis.DialTimeout)
	v.SetDefault("redis.read_timeout", d.Redis.ReadTimeout)
	v.SetDefault("redis.write_timeout", d.Redis.WriteTimeout)
	v.SetDefault("redis.default_ttl", d.Redis.DefaultTTL)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)

	v.SetDefault("kafka.enabled", d.Kafka.Enabled)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)
	v.SetDefault("kafka.timeout_ms", d.Kafka.TimeoutMS)
	v.SetDefault("kafka.producer_retries", d.Kafka.ProducerRetries)
	v.SetDefault("kafka.batch_size", d.Kafka.BatchSize)

	v.SetDefault("minio.enabled", d.MinIO.Enabled)
	v.SetDefault("minio.endpoint", d.MinIO.Endpoint)
	v.SetDefault("minio.access_key", d.MinIO.AccessKey)
	v.SetDefault("minio.secret_key", d.MinIO.SecretKey)
	v.SetDefault("minio.bucket", d.MinIO.Bucket)
	v.SetDefault("minio.use_ssl", d.MinIO.UseSSL)
	v.SetDefault("minio.region", d.MinIO.Region)
	v.SetDefault("minio.retention_days", d.MinIO.RetentionDays)

	v.SetDefault("neo4j.enabled", d.Neo4j.Enabled)
	v.SetDefault("neo4j.uri", d.Neo4j.URI)
	v.SetDefault("neo4j.user", d.Neo4j.User)
	v.SetDefault("neo4j.password", d.Neo4j.Password)
	v.SetDefault("neo4j.database", d.Neo4j.Database)
	v.SetDefault("neo4j.max_connection_pool_size", d.Neo4j.MaxConnectionPoolSize)
	v.SetDefault("neo4j.connection_timeout", d.Neo4j.ConnectionTimeout)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("metrics.subsystem", d.Metrics.Subsystem)
	v.SetDefault("metrics.textfile_path", d.Metrics.TextfilePath)
}

// LoadFromFile reads the YAML file at configPath, merges any MOLNET_*
// environment variable overrides, applies defaults for unset fields, and
// validates the result.
func LoadFromFile(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from MOLNET_* environment variables,
// with no config file required.
//
//	MOLNET_<SECTION>_<FIELD>   e.g.  MOLNET_REDIS_ADDR, MOLNET_MOTIF_TOP
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// Load dispatches to LoadFromFile when configPath is non-empty and to
// LoadFromEnv otherwise.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	return LoadFromFile(configPath)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Only the log level
// is meant to be applied at runtime.
//
// Watch is non-blocking; viper manages the background goroutine.  If the
// changed file fails to parse or validate, onChange is not called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Callers are expected to have called LoadFromFile first.
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad is a convenience wrapper around Load that panics on any error.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
