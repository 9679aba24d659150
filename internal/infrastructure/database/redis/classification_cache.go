package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

const classificationNamespace = "cf:"

// cachedRecord is the stored form of a classified structure.  Unclassified
// keys are stored as the null marker.
type cachedRecord struct {
	SMILES   string                     `json:"smiles"`
	InChIKey string                     `json:"inchikey"`
	Classes  [ontology.NumLevels]string `json:"classes"`
}

// ClassificationCache implements ontology.ClassificationCache on a Cache.
type ClassificationCache struct {
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

// NewClassificationCache wraps cache.  A zero ttl uses the cache default.
func NewClassificationCache(cache Cache, ttl time.Duration, log logging.Logger) *ClassificationCache {
	return &ClassificationCache{cache: cache, ttl: ttl, logger: log}
}

func (c *ClassificationCache) Get(ctx context.Context, key string) (ontology.Classification, bool, error) {
	var rec cachedRecord
	err := c.cache.Get(ctx, classificationNamespace+key, &rec)
	switch {
	case err == nil:
		return ontology.NewClassified(key, toRecord(rec)), true, nil
	case stderrors.Is(err, ErrNullEntry):
		return ontology.NewUnclassified(key), true, nil
	case stderrors.Is(err, ErrCacheMiss):
		return ontology.Classification{}, false, nil
	default:
		return ontology.Classification{}, false, err
	}
}

func (c *ClassificationCache) GetMany(ctx context.Context, keys []string) (map[string]ontology.Classification, error) {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = classificationNamespace + k
	}
	raw, err := c.cache.MGet(ctx, full)
	if err != nil {
		return nil, err
	}

	out := make(map[string]ontology.Classification, len(raw))
	for _, k := range keys {
		data, ok := raw[classificationNamespace+k]
		if !ok {
			continue
		}
		if string(data) == nullMarker {
			out[k] = ontology.NewUnclassified(k)
			continue
		}
		var rec cachedRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			c.logger.Warn("Dropping undecodable cache entry", logging.String("key", k), logging.Err(err))
			continue
		}
		out[k] = ontology.NewClassified(k, toRecord(rec))
	}
	return out, nil
}

func (c *ClassificationCache) Put(ctx context.Context, cl ontology.Classification) error {
	if !cl.Cacheable() {
		return nil
	}
	key := classificationNamespace + cl.Key
	if cl.Status == ontology.StatusUnclassified {
		return c.cache.SetNull(ctx, key, c.ttl)
	}
	rec := cachedRecord{SMILES: cl.Record.SMILES, InChIKey: cl.Record.InChIKey, Classes: cl.Record.Classes}
	if err := c.cache.Set(ctx, key, rec, c.ttl); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "failed to cache classification").WithDetail("key=" + cl.Key)
	}
	return nil
}

func toRecord(rec cachedRecord) ontology.StructureRecord {
	r := ontology.StructureRecord{SMILES: rec.SMILES, InChIKey: rec.InChIKey, Classes: rec.Classes}
	for i, c := range r.Classes {
		if c == "" {
			r.Classes[i] = ontology.Unclassified
		}
	}
	return r
}

var _ ontology.ClassificationCache = (*ClassificationCache)(nil)
