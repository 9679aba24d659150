// Package classification resolves structure identity keys to ChemOnt
// classifications.  Lookups fan out over a bounded worker group, consult the
// injected cache first and fall back to the stereo-insensitive key once.
package classification

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/classyfire"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

// Classifier is the part of the ClassyFire client the service uses.
type Classifier interface {
	GetEntity(ctx context.Context, inchikey string) (*classyfire.Entity, error)
	SubmitStructureQuery(ctx context.Context, input, label string) (int64, error)
	GetResults(ctx context.Context, queryID int64, blocking bool) (*classyfire.QueryResult, error)
}

const (
	DefaultParallelism = 8
	DefaultChunkSize   = 1000
	DefaultQueryLabel  = "molnetenhancer"
)

var errEmptyEntity = errors.New(errors.CodeEntityNotFound, "entity carries no classification")

// Service resolves identity keys.
type Service struct {
	client       Classifier
	cache        ontology.ClassificationCache
	logger       logging.Logger
	metrics      *prometheus.AppMetrics
	parallelism  int
	relaxedRetry bool
	chunkSize    int
	label        string
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the classification cache.  nil disables caching.
func WithCache(c ontology.ClassificationCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithParallelism bounds concurrent lookups; values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

func WithRelaxedRetry(enabled bool) Option {
	return func(s *Service) { s.relaxedRetry = enabled }
}

// WithChunkSize sets the number of structures per submitted query.
func WithChunkSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

func WithQueryLabel(label string) Option {
	return func(s *Service) {
		if label != "" {
			s.label = label
		}
	}
}

// NewService creates a Service backed by client.
func NewService(client Classifier, logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		client:       client,
		logger:       logger,
		metrics:      prometheus.NewNopMetrics(),
		parallelism:  DefaultParallelism,
		relaxedRetry: true,
		chunkSize:    DefaultChunkSize,
		label:        DefaultQueryLabel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ─────────────────────────────────────────────────────────────────────────────
// Key resolution
// ─────────────────────────────────────────────────────────────────────────────

// Resolve classifies one identity key.  The only error returned is the
// context's; every other failure is reported as a LookupFailed result.
func (s *Service) Resolve(ctx context.Context, key string) (ontology.Classification, error) {
	key = classyfire.NormalizeKey(key)
	if key == "" {
		return ontology.NewLookupFailed(key, "empty identity key"), nil
	}
	if s.cache != nil {
		c, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ontology.Classification{}, ctxErr
			}
			s.logger.Warn("Classification cache read failed", logging.String("key", key), logging.Err(err))
		case ok:
			prometheus.RecordCacheAccess(s.metrics, true)
			return c, nil
		default:
			prometheus.RecordCacheAccess(s.metrics, false)
		}
	}
	return s.resolveUncached(ctx, key)
}

// ResolveAll classifies keys concurrently.  Keys are normalized and
// deduplicated; results follow first-seen order.  A cancelled context aborts
// the batch with the context error.
func (s *Service) ResolveAll(ctx context.Context, keys []string) ([]ontology.Classification, error) {
	uniq := uniqueKeys(keys)
	results := make([]ontology.Classification, len(uniq))
	done := make([]bool, len(uniq))

	if s.cache != nil && len(uniq) > 0 {
		cached, err := s.cache.GetMany(ctx, uniq)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn("Classification cache batch read failed", logging.Int("keys", len(uniq)), logging.Err(err))
		}
		for i, k := range uniq {
			if c, ok := cached[k]; ok {
				results[i], done[i] = c, true
			}
			prometheus.RecordCacheAccess(s.metrics, done[i])
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i := range uniq {
		if done[i] {
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := s.resolveUncached(gctx, uniq[i])
			if err != nil {
				return err
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	sum := Summarize(results)
	s.logger.Info("Identity keys resolved",
		logging.Int("keys", len(uniq)),
		logging.Int("classified", sum.Classified),
		logging.Int("unclassified", sum.Unclassified),
		logging.Int("lookup_failed", sum.LookupFailed))
	return results, nil
}

func (s *Service) resolveUncached(ctx context.Context, key string) (ontology.Classification, error) {
	start := time.Now()
	c, err := s.lookup(ctx, key)
	if err != nil {
		return ontology.Classification{}, err
	}
	prometheus.RecordLookup(s.metrics, c.Status.String(), time.Since(start))

	if s.cache != nil && c.Cacheable() {
		if err := s.cache.Put(ctx, c); err != nil {
			s.logger.Warn("Classification cache write failed", logging.String("key", key), logging.Err(err))
		}
	}
	if c.Status == ontology.StatusLookupFailed {
		s.logger.Warn("Identity key lookup failed", logging.String("key", key), logging.String("reason", c.Reason))
	}
	return c, nil
}

// lookup queries the key and, when that fails, the relaxed key.  The result
// is Unclassified when every attempt reported an unknown entity and
// LookupFailed when any attempt failed otherwise.
func (s *Service) lookup(ctx context.Context, key string) (ontology.Classification, error) {
	rec, err := s.fetch(ctx, key)
	if err == nil {
		return ontology.NewClassified(key, rec), nil
	}
	if isContextError(ctx, err) {
		return ontology.Classification{}, contextError(ctx, err)
	}
	failure := transportFailure(nil, err)

	if relaxed := classyfire.RelaxedKey(key); s.relaxedRetry && relaxed != key {
		rec, rerr := s.fetch(ctx, relaxed)
		prometheus.RecordRelaxedRetry(s.metrics, rerr == nil)
		if rerr == nil {
			s.logger.Debug("Resolved with relaxed key", logging.String("key", key), logging.String("relaxed", relaxed))
			return ontology.NewClassified(key, rec), nil
		}
		if isContextError(ctx, rerr) {
			return ontology.Classification{}, contextError(ctx, rerr)
		}
		failure = transportFailure(failure, rerr)
	}

	if failure != nil {
		return ontology.NewLookupFailed(key, failure.Error()), nil
	}
	return ontology.NewUnclassified(key), nil
}

// fetch returns the record of key, stored under key rather than the key the
// service answered for.
func (s *Service) fetch(ctx context.Context, key string) (ontology.StructureRecord, error) {
	e, err := s.client.GetEntity(ctx, key)
	if err != nil {
		return ontology.StructureRecord{}, err
	}
	if e.Empty() {
		return ontology.StructureRecord{}, errEmptyEntity.WithDetail(key)
	}
	rec := e.Record()
	rec.InChIKey = key
	return rec, nil
}

// transportFailure keeps the first error that is not an unknown-entity answer.
func transportFailure(prev, err error) error {
	if prev != nil || errors.IsNotFound(err) {
		return prev
	}
	return err
}

func isContextError(ctx context.Context, err error) bool {
	return ctx.Err() != nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

func contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = classyfire.NormalizeKey(k)
		if k == "" || k == ontology.Unclassified || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Result helpers
// ─────────────────────────────────────────────────────────────────────────────

// Summary counts results by status.
type Summary struct {
	Classified   int
	Unclassified int
	LookupFailed int
}

// Summarize counts results by status.
func Summarize(results []ontology.Classification) Summary {
	var s Summary
	for _, c := range results {
		switch c.Status {
		case ontology.StatusClassified:
			s.Classified++
		case ontology.StatusUnclassified:
			s.Unclassified++
		case ontology.StatusLookupFailed:
			s.LookupFailed++
		}
	}
	return s
}

// ClassyTable flattens results into structure records keyed by the
// requested identity key.  Unclassified and failed keys yield all-None
// records.
func ClassyTable(results []ontology.Classification) []ontology.StructureRecord {
	out := make([]ontology.StructureRecord, 0, len(results))
	for _, c := range results {
		rec := c.Record
		if c.Status != ontology.StatusClassified {
			rec = ontology.UnclassifiedRecord(ontology.Unclassified, c.Key)
		}
		out = append(out, rec)
	}
	return out
}
