// Package cartography builds distance-bounded topology snapshots around the
// observer's current system, merging static gate connections with
// user-declared jump bridges.
package cartography

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Node is one cached graph vertex. Once fetched, its fields never change:
// the cache is an append-only memoization keyed by id.
type Node struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// X and Z are the two retained axes of the system's 3-D position.
	X float64 `json:"x"`
	Z float64 `json:"z"`
	// Connections are neighbor ids from the authoritative static graph.
	Connections []int64 `json:"connections"`
}

// NodeCache is a durable, append-only memoization of fetched nodes. The
// backing file is a single JSON object keyed by system id; it is loaded
// wholesale on construction and written wholesale on Save.
type NodeCache struct {
	mu    sync.RWMutex
	path  string
	nodes map[int64]Node
	log   *zap.Logger
}

// NewNodeCache loads the cache from path. A missing or unreadable file is a
// cache-miss, not an error.
func NewNodeCache(path string, logger *zap.Logger) *NodeCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &NodeCache{
		path:  path,
		nodes: make(map[int64]Node),
		log:   logger.Named("syscache"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("Could not read system cache, starting empty", zap.String("path", path), zap.Error(err))
		}
		return c
	}

	raw := make(map[string]Node)
	if err := json.Unmarshal(data, &raw); err != nil {
		c.log.Warn("System cache is corrupt, starting empty", zap.String("path", path), zap.Error(err))
		return c
	}
	for key, node := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		c.nodes[id] = node
	}
	c.log.Debug("System cache loaded", zap.Int("systems", len(c.nodes)))
	return c
}

// Get returns the cached node for id, if present.
func (c *NodeCache) Get(id int64) (Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[id]
	return n, ok
}

// Put memoizes a node.
func (c *NodeCache) Put(n Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes[n.ID] = n
}

// Len returns the number of cached nodes.
func (c *NodeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

// Save writes the whole cache to disk. Concurrent mapping passes may race
// here; the write is last-writer-wins and each writer persists a complete,
// valid snapshot of its view.
func (c *NodeCache) Save() error {
	c.mu.RLock()
	raw := make(map[string]Node, len(c.nodes))
	for id, node := range c.nodes {
		raw[strconv.FormatInt(id, 10)] = node
	}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding system cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing system cache: %w", err)
	}
	return nil
}
