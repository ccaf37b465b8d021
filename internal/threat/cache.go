package threat

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// entryTTL is how long a profile stays valid. Friendly and hostile entries
// expire identically.
const entryTTL = 24 * time.Hour

// cacheEntry is one persisted profile, keyed by lowercase pilot name.
type cacheEntry struct {
	FetchedAt  int64  `json:"fetched_at"`
	IsFriendly bool   `json:"is_friendly"`
	TopShip    string `json:"top_ship,omitempty"`
	ThreatTag  string `json:"threat_tag,omitempty"`
}

func (e cacheEntry) expired(now time.Time) bool {
	return now.Sub(time.Unix(e.FetchedAt, 0)) >= entryTTL
}

// profileCache is the durable 24-hour profile memo. Entries older than the
// TTL are dropped at load time and treated as absent on lookup.
type profileCache struct {
	mu      sync.Mutex
	path    string
	entries map[string]cacheEntry
	log     *zap.Logger
	now     func() time.Time
}

func newProfileCache(path string, logger *zap.Logger) *profileCache {
	c := &profileCache{
		path:    path,
		entries: make(map[string]cacheEntry),
		log:     logger,
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("Could not read threat cache, starting empty", zap.String("path", path), zap.Error(err))
		}
		return c
	}

	raw := make(map[string]cacheEntry)
	if err := json.Unmarshal(data, &raw); err != nil {
		c.log.Warn("Threat cache is corrupt, starting empty", zap.String("path", path), zap.Error(err))
		return c
	}

	now := c.now()
	for name, entry := range raw {
		if entry.expired(now) {
			continue
		}
		c.entries[name] = entry
	}
	return c
}

// get returns the live entry for the pilot, if any. Lookup is
// case-insensitive.
func (c *profileCache) get(name string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[strings.ToLower(name)]
	if !ok || entry.expired(c.now()) {
		return cacheEntry{}, false
	}
	return entry, true
}

// put stores an entry stamped with the current time and persists the cache.
// Persistence failures degrade to in-memory-only caching.
func (c *profileCache) put(name string, entry cacheEntry) {
	entry.FetchedAt = c.now().Unix()

	c.mu.Lock()
	c.entries[strings.ToLower(name)] = entry
	c.mu.Unlock()

	if err := c.save(); err != nil {
		c.log.Warn("Could not persist threat cache", zap.Error(err))
	}
}

func (c *profileCache) save() error {
	c.mu.Lock()
	raw := make(map[string]cacheEntry, len(c.entries))
	for name, entry := range c.entries {
		raw[name] = entry
	}
	c.mu.Unlock()

	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding threat cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing threat cache: %w", err)
	}
	return nil
}
