package ontology

import "context"

// ClassificationCache stores resolved classifications across runs, keyed by
// identity key.  Only Classified and Unclassified outcomes are cacheable; a
// LookupFailed result must be retried on the next run.
type ClassificationCache interface {
	// Get returns the cached classification for key and whether one exists.
	Get(ctx context.Context, key string) (Classification, bool, error)

	// GetMany returns the cached classifications among keys.  Missing keys
	// are absent from the map.
	GetMany(ctx context.Context, keys []string) (map[string]Classification, error)

	// Put stores c under c.Key.  LookupFailed results are ignored.
	Put(ctx context.Context, c Classification) error
}

// Cacheable reports whether c may be stored in a ClassificationCache.
func (c Classification) Cacheable() bool {
	return c.Key != "" && (c.Status == StatusClassified || c.Status == StatusUnclassified)
}
