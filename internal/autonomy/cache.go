package autonomy

import (
	"context"
	"log/slog"
	"sync"
)

// Store persists autonomy configs, one row per (subject, process).
type Store interface {
	GetConfig(ctx context.Context, subjectID, process string) (*Config, error)
	UpsertConfig(ctx context.Context, cfg *Config) error
}

// ConfigCache fronts a Store with a read-mostly per-pair cache. Reads are
// safe for concurrent use; updates are last-write-wins and invalidate the
// cached entry so in-flight decisions finish on the old value while new ones
// pick up the update.
//
// If the store is unreachable the cache falls back to conservative defaults
// with a WARN log rather than failing the decision.
type ConfigCache struct {
	mu      sync.RWMutex
	configs map[string]*Config
	store   Store
}

// NewConfigCache creates a cache backed by the given store. A nil store
// serves defaults only.
func NewConfigCache(store Store) *ConfigCache {
	return &ConfigCache{
		configs: make(map[string]*Config),
		store:   store,
	}
}

func cacheKey(subjectID, process string) string {
	return subjectID + "\x00" + process
}

// GetConfig returns the active config for a (subject, process) pair,
// loading from the store on first use.
func (c *ConfigCache) GetConfig(ctx context.Context, subjectID, process string) *Config {
	key := cacheKey(subjectID, process)

	c.mu.RLock()
	if cfg, ok := c.configs[key]; ok {
		c.mu.RUnlock()
		return cfg
	}
	c.mu.RUnlock()

	cfg := c.load(ctx, subjectID, process)

	c.mu.Lock()
	c.configs[key] = cfg
	c.mu.Unlock()

	return cfg
}

func (c *ConfigCache) load(ctx context.Context, subjectID, process string) *Config {
	if c.store == nil || subjectID == "" {
		return DefaultConfig(subjectID, process)
	}

	cfg, err := c.store.GetConfig(ctx, subjectID, process)
	if err != nil {
		slog.Warn("failed to load autonomy config from store, using defaults",
			"subject_id", subjectID, "process", process, "error", err)
		return DefaultConfig(subjectID, process)
	}
	if cfg == nil {
		return DefaultConfig(subjectID, process)
	}
	return cfg
}

// Put validates and persists a config, then invalidates the cached entry.
// The write is atomic: validation failures persist nothing.
func (c *ConfigCache) Put(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if c.store != nil {
		if err := c.store.UpsertConfig(ctx, cfg); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.configs[cacheKey(cfg.SubjectID, cfg.Process)] = cfg
	c.mu.Unlock()

	slog.Info("autonomy config updated",
		"subject_id", cfg.SubjectID,
		"process", cfg.Process,
		"level", cfg.Level,
		"threshold", cfg.ConfidenceThreshold)
	return nil
}

// Invalidate drops a cached entry, forcing a reload on next read.
func (c *ConfigCache) Invalidate(subjectID, process string) {
	c.mu.Lock()
	delete(c.configs, cacheKey(subjectID, process))
	c.mu.Unlock()
}

// InvalidateAll clears the entire cache.
func (c *ConfigCache) InvalidateAll() {
	c.mu.Lock()
	c.configs = make(map[string]*Config)
	c.mu.Unlock()
}
