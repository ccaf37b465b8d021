package cartography

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// BridgeManager keeps the user-declared jump bridge connections. A bridge is
// symmetric: declaring A<->B makes each side appear in the other's list.
// The set is persisted to a JSON file keyed by system id.
type BridgeManager struct {
	mu      sync.RWMutex
	path    string
	bridges map[int64][]int64
	log     *zap.Logger
}

// NewBridgeManager loads the bridge store from path. A missing or unreadable
// file yields an empty store.
func NewBridgeManager(path string, logger *zap.Logger) *BridgeManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &BridgeManager{
		path:    path,
		bridges: make(map[int64][]int64),
		log:     logger.Named("bridges"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.log.Warn("Could not read bridge store, starting empty", zap.String("path", path), zap.Error(err))
		}
		return m
	}

	// JSON object keys are always strings; convert back to ids.
	raw := make(map[string][]int64)
	if err := json.Unmarshal(data, &raw); err != nil {
		m.log.Warn("Bridge store is corrupt, starting empty", zap.String("path", path), zap.Error(err))
		return m
	}
	for key, peers := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		m.bridges[id] = peers
	}
	return m
}

// AddBridge declares a bidirectional bridge between two systems and persists
// the store.
func (m *BridgeManager) AddBridge(a, b int64) error {
	m.mu.Lock()
	if !contains(m.bridges[a], b) {
		m.bridges[a] = append(m.bridges[a], b)
	}
	if !contains(m.bridges[b], a) {
		m.bridges[b] = append(m.bridges[b], a)
	}
	m.mu.Unlock()

	m.log.Info("Bridge added", zap.Int64("from", a), zap.Int64("to", b))
	return m.save()
}

// RemoveBridge deletes the bridge between two systems on both sides. It is a
// no-op (and does not rewrite the store) when no such bridge exists.
func (m *BridgeManager) RemoveBridge(a, b int64) error {
	m.mu.Lock()
	removed := false
	if contains(m.bridges[a], b) {
		m.bridges[a] = remove(m.bridges[a], b)
		removed = true
	}
	if contains(m.bridges[b], a) {
		m.bridges[b] = remove(m.bridges[b], a)
		removed = true
	}
	m.mu.Unlock()

	if !removed {
		return nil
	}
	m.log.Info("Bridge removed", zap.Int64("from", a), zap.Int64("to", b))
	return m.save()
}

// Bridges returns the systems connected to id by a declared bridge. The
// returned slice is a copy.
func (m *BridgeManager) Bridges(id int64) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	peers := m.bridges[id]
	if len(peers) == 0 {
		return nil
	}
	out := make([]int64, len(peers))
	copy(out, peers)
	return out
}

// All returns every declared endpoint and its peers, for listing.
func (m *BridgeManager) All() map[int64][]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64][]int64, len(m.bridges))
	for id, peers := range m.bridges {
		if len(peers) == 0 {
			continue
		}
		cp := make([]int64, len(peers))
		copy(cp, peers)
		out[id] = cp
	}
	return out
}

func (m *BridgeManager) save() error {
	m.mu.RLock()
	raw := make(map[string][]int64, len(m.bridges))
	for id, peers := range m.bridges {
		if len(peers) == 0 {
			continue
		}
		raw[strconv.FormatInt(id, 10)] = peers
	}
	m.mu.RUnlock()

	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding bridge store: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("writing bridge store: %w", err)
	}
	return nil
}

func contains(list []int64, v int64) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func remove(list []int64, v int64) []int64 {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
