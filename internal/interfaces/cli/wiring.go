package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/turtacn/MolNetEnhancer/internal/application/classification"
	"github.com/turtacn/MolNetEnhancer/internal/application/enhancer"
	"github.com/turtacn/MolNetEnhancer/internal/config"
	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/classyfire"
	neo4jdriver "github.com/turtacn/MolNetEnhancer/internal/infrastructure/database/neo4j"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/database/redis"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/tabular"
)

// Runner executes the pipelines.  *enhancer.Service is the production
// implementation.
type Runner interface {
	RunClasses(ctx context.Context, req enhancer.ClassesRequest) (*enhancer.RunReport, error)
	RunMotifs(ctx context.Context, req enhancer.MotifsRequest) (*enhancer.RunReport, error)
}

// RunnerFactory builds a Runner and returns a cleanup that releases every
// connection it opened.
type RunnerFactory func(ctx context.Context, cc *CLIContext, write tabular.WriteOptions) (Runner, func(), error)

// closers releases resources in reverse order of acquisition.
type closers []func()

func (c *closers) add(f func()) { *c = append(*c, f) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// buildRunner wires the classification service and every enabled sink.
// Optional backends that cannot be reached are logged and skipped so a run
// still produces its local tables.
func buildRunner(ctx context.Context, cc *CLIContext, write tabular.WriteOptions) (Runner, func(), error) {
	cfg, log := cc.Config, cc.Logger
	var cl closers

	client, err := classyfire.NewClient(cfg.ClassyFire.BaseURL,
		classyfire.WithHTTPClient(&http.Client{Timeout: cfg.ClassyFire.Timeout}),
		classyfire.WithLogger(log.Named("classyfire")),
		classyfire.WithRetryMax(cfg.ClassyFire.MaxRetries),
		classyfire.WithRetryWait(cfg.ClassyFire.RetryBackoff, 8*cfg.ClassyFire.RetryBackoff),
		classyfire.WithPollInterval(cfg.ClassyFire.PollInterval),
		classyfire.WithUserAgent("molnetenhancer/"+Version),
	)
	if err != nil {
		return nil, nil, err
	}

	classifier := classification.NewService(client, log.Named("classification"),
		classification.WithCache(buildCache(ctx, cfg, log, &cl)),
		classification.WithMetrics(cc.Metrics),
		classification.WithParallelism(cfg.Classification.Parallelism),
		classification.WithRelaxedRetry(cfg.Classification.RelaxedRetry),
	)

	svc := enhancer.NewService(log,
		enhancer.WithClassifier(classifier),
		enhancer.WithSinks(buildSinks(ctx, cfg, log, &cl)),
		enhancer.WithMetrics(cc.Metrics),
		enhancer.WithWriteOptions(write),
	)
	return svc, cl.run, nil
}

// buildCache returns the configured classification cache.  An unreachable
// Redis falls back to the in-process cache.
func buildCache(ctx context.Context, cfg *config.Config, log logging.Logger, cl *closers) ontology.ClassificationCache {
	switch cfg.Classification.Cache {
	case config.CacheNone:
		return nil
	case config.CacheRedis:
		rc, err := redis.NewClient(ctx, cfg.Redis, log.Named("redis"))
		if err != nil {
			log.Warn("Redis unavailable, using in-memory classification cache", logging.Err(err))
			return classification.NewMemoryCache()
		}
		cl.add(func() { _ = rc.Close() })
		cache := redis.NewRedisCache(rc, log.Named("redis"),
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.DefaultTTL))
		return redis.NewClassificationCache(cache, cfg.Redis.DefaultTTL, log.Named("classification_cache"))
	default:
		return classification.NewMemoryCache()
	}
}

func buildSinks(ctx context.Context, cfg *config.Config, log logging.Logger, cl *closers) enhancer.Sinks {
	var sinks enhancer.Sinks

	if cfg.Neo4j.Enabled {
		d, err := neo4jdriver.NewDriver(ctx, cfg.Neo4j, log.Named("neo4j"))
		if err != nil {
			log.Warn("Neo4j unavailable, network export disabled", logging.Err(err))
		} else {
			cl.add(func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = d.Close(closeCtx)
			})
			sinks.Network = repositories.NewNeo4jNetworkRepo(d, log.Named("neo4j"))
		}
	}

	if cfg.MinIO.Enabled {
		mc, err := minio.NewMinIOClient(ctx, cfg.MinIO, log.Named("minio"))
		if err != nil {
			log.Warn("MinIO unavailable, artifact upload disabled", logging.Err(err))
		} else {
			cl.add(func() { _ = mc.Close() })
			sinks.Artifacts = minio.NewArtifactRepository(mc, log.Named("minio"))
		}
	}

	if cfg.Kafka.Enabled {
		p, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.ProducerRetries,
			BatchSize:    cfg.Kafka.BatchSize,
			WriteTimeout: time.Duration(cfg.Kafka.TimeoutMS) * time.Millisecond,
		}, log.Named("kafka"))
		if err != nil {
			log.Warn("Kafka unavailable, run events disabled", logging.Err(err))
		} else {
			pub := kafka.NewRunPublisher(p, cfg.Kafka.Topic)
			cl.add(func() { _ = pub.Close() })
			sinks.Events = pub
		}
	}

	return sinks
}
