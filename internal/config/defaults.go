package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

// Classification cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMinProbability = 0.01
	DefaultMinOverlap     = 0.3
	DefaultTopMotifs      = 5

	DefaultParallelism = 50
	DefaultCache       = CacheMemory

	DefaultClassyFireURL          = "http://classyfire.wishartlab.com"
	DefaultClassyFireTimeout      = 30 * time.Second
	DefaultClassyFirePollInterval = 10 * time.Second
	DefaultClassyFireRetries      = 3
	DefaultClassyFireBackoff      = 500 * time.Millisecond

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "molnet:"
	DefaultRedisTTL       = 7 * 24 * time.Hour

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "molnet.run.completed"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "molnet-results"

	DefaultNeo4jURI      = "bolt://localhost:7687"
	DefaultNeo4jDatabase = "neo4j"

	DefaultMetricsNamespace = "molnet"
)

// NewDefaultConfig returns a Config with every field set to its default.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Classification: ClassificationConfig{RelaxedRetry: true},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with the default.
// Fields that have already been set by the caller are left unchanged so that
// explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stderr"}
	}

	// ── Motif ─────────────────────────────────────────────────────────────────
	// A zero threshold is a legitimate explicit value only when the other
	// motif settings were also given; a fully zero section means "unset".
	if cfg.Motif == (MotifConfig{}) {
		cfg.Motif.MinProbability = DefaultMinProbability
		cfg.Motif.MinOverlap = DefaultMinOverlap
	}
	if cfg.Motif.Top == 0 {
		cfg.Motif.Top = DefaultTopMotifs
	}

	// ── Classification ────────────────────────────────────────────────────────
	if cfg.Classification.Parallelism == 0 {
		cfg.Classification.Parallelism = DefaultParallelism
	}
	if cfg.Classification.Cache == "" {
		cfg.Classification.Cache = DefaultCache
	}

	// ── ClassyFire ────────────────────────────────────────────────────────────
	if cfg.ClassyFire.BaseURL == "" {
		cfg.ClassyFire.BaseURL = DefaultClassyFireURL
	}
	if cfg.ClassyFire.Timeout == 0 {
		cfg.ClassyFire.Timeout = DefaultClassyFireTimeout
	}
	if cfg.ClassyFire.PollInterval == 0 {
		cfg.ClassyFire.PollInterval = DefaultClassyFirePollInterval
	}
	if cfg.ClassyFire.MaxRetries == 0 {
		cfg.ClassyFire.MaxRetries = DefaultClassyFireRetries
	}
	if cfg.ClassyFire.RetryBackoff == 0 {
		cfg.ClassyFire.RetryBackoff = DefaultClassyFireBackoff
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.TimeoutMS == 0 {
		cfg.Kafka.TimeoutMS = 10000
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = 100
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.Region == "" {
		cfg.MinIO.Region = "us-east-1"
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = DefaultNeo4jDatabase
	}
	if cfg.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Neo4j.MaxConnectionPoolSize = 50
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = 30 * time.Second
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}
