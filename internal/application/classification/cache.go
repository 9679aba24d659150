package classification

import (
	"context"
	"sync"

	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
)

// MemoryCache is a process-scoped ClassificationCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]ontology.Classification
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]ontology.Classification)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (ontology.Classification, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.entries[key]
	return c, ok, nil
}

func (m *MemoryCache) GetMany(_ context.Context, keys []string) (map[string]ontology.Classification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]ontology.Classification)
	for _, k := range keys {
		if c, ok := m.entries[k]; ok {
			out[k] = c
		}
	}
	return out, nil
}

func (m *MemoryCache) Put(_ context.Context, c ontology.Classification) error {
	if !c.Cacheable() {
		return nil
	}
	m.mu.Lock()
	m.entries[c.Key] = c
	m.mu.Unlock()
	return nil
}

// Len returns the number of cached keys.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ ontology.ClassificationCache = (*MemoryCache)(nil)
