package cartography

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeSymmetry(t *testing.T) {
	m := NewBridgeManager(filepath.Join(t.TempDir(), "bridges.json"), nil)

	require.NoError(t, m.AddBridge(30002888, 30000142))
	assert.Contains(t, m.Bridges(30002888), int64(30000142))
	assert.Contains(t, m.Bridges(30000142), int64(30002888))

	require.NoError(t, m.RemoveBridge(30002888, 30000142))
	assert.NotContains(t, m.Bridges(30002888), int64(30000142))
	assert.NotContains(t, m.Bridges(30000142), int64(30002888))
}

func TestBridgeAddIsIdempotent(t *testing.T) {
	m := NewBridgeManager(filepath.Join(t.TempDir(), "bridges.json"), nil)

	require.NoError(t, m.AddBridge(1, 2))
	require.NoError(t, m.AddBridge(1, 2))
	require.NoError(t, m.AddBridge(2, 1))

	assert.Equal(t, []int64{2}, m.Bridges(1))
	assert.Equal(t, []int64{1}, m.Bridges(2))
}

func TestBridgeRemoveMissingIsNoop(t *testing.T) {
	m := NewBridgeManager(filepath.Join(t.TempDir(), "bridges.json"), nil)
	require.NoError(t, m.RemoveBridge(7, 8))
	assert.Empty(t, m.Bridges(7))
}

func TestBridgePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridges.json")

	m := NewBridgeManager(path, nil)
	require.NoError(t, m.AddBridge(1, 2))
	require.NoError(t, m.AddBridge(1, 3))

	reloaded := NewBridgeManager(path, nil)
	assert.ElementsMatch(t, []int64{2, 3}, reloaded.Bridges(1))
	assert.Equal(t, []int64{1}, reloaded.Bridges(2))

	all := reloaded.All()
	assert.Len(t, all, 3)
}

func TestBridgeCorruptStoreStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridges.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	m := NewBridgeManager(path, nil)
	assert.Empty(t, m.All())
}
