package cartography

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/edwardjardy/radlocal/internal/esi"
)

// positionScale flattens raw in-game coordinates (meters, on the order of
// 1e16) down to a human-scale plotting range.
const positionScale = 1e15

// SystemSource fetches node data for systems that are not yet cached.
type SystemSource interface {
	FetchSystem(ctx context.Context, systemID int64) (*esi.SolarSystem, error)
}

// MappedSystem is one entry of a topology snapshot.
type MappedSystem struct {
	Name string `json:"name"`
	// Jumps is the hop distance from the snapshot center.
	Jumps int `json:"jumps"`
	// XRel and ZRel are positions relative to the center, scaled for plotting.
	XRel float64 `json:"x_rel"`
	ZRel float64 `json:"z_rel"`
	// Stargates and JumpBridges list neighbor ids by edge provenance, so a
	// renderer can draw gates and bridges differently.
	Stargates   []int64 `json:"stargates"`
	JumpBridges []int64 `json:"jump_bridges"`
}

// Snapshot is the bounded map produced by one mapping pass. It is never
// mutated after BuildMap returns; a refresh simply replaces it.
type Snapshot struct {
	CenterID int64
	Radius   int
	Systems  map[int64]MappedSystem
}

// NameIndex returns the lowercase system name -> id mapping of the snapshot,
// and the plain name list, for feeding the intel parser's dictionary mode.
func (s *Snapshot) NameIndex() (map[string]int64, []string) {
	if s == nil {
		return nil, nil
	}
	index := make(map[string]int64, len(s.Systems))
	names := make([]string, 0, len(s.Systems))
	for id, sys := range s.Systems {
		index[strings.ToLower(sys.Name)] = id
		names = append(names, sys.Name)
	}
	sort.Strings(names)
	return index, names
}

// Mapper runs breadth-first searches over the system graph, resolving nodes
// through the cache-or-fetch source and merging bridge edges in.
type Mapper struct {
	source  SystemSource
	cache   *NodeCache
	bridges *BridgeManager
	logger  *zap.Logger
}

// NewMapper builds a Mapper. bridges may be nil when the user has declared
// none.
func NewMapper(source SystemSource, cache *NodeCache, bridges *BridgeManager, logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapper{
		source:  source,
		cache:   cache,
		bridges: bridges,
		logger:  logger.Named("cartography"),
	}
}

// BuildMap performs a BFS from centerID out to maxHops and returns the
// resulting snapshot. A node whose fetch fails is skipped entirely: it gets
// no entry and is not expanded, but the rest of the search continues. The
// node cache is persisted once, at the end of the pass, iff at least one
// previously-uncached node was fetched.
//
// The search always terminates: the visited set only grows and is bounded by
// the graph reachable within maxHops.
func (m *Mapper) BuildMap(ctx context.Context, centerID int64, maxHops int) (*Snapshot, error) {
	m.logger.Info("Mapping neighborhood",
		zap.Int64("center_id", centerID),
		zap.Int("max_jumps", maxHops))

	fetched := 0
	center, err := m.resolve(ctx, centerID, &fetched)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		CenterID: centerID,
		Radius:   maxHops,
		Systems:  make(map[int64]MappedSystem),
	}

	type frontierEntry struct {
		id    int64
		jumps int
	}
	queue := []frontierEntry{{centerID, 0}}
	visited := map[int64]struct{}{centerID: {}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		node, err := m.resolve(ctx, cur.id, &fetched)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.logger.Warn("Skipping unreachable system", zap.Int64("system_id", cur.id), zap.Error(err))
			continue
		}

		var bridges []int64
		if m.bridges != nil {
			bridges = m.bridges.Bridges(cur.id)
		}

		snapshot.Systems[cur.id] = MappedSystem{
			Name:        node.Name,
			Jumps:       cur.jumps,
			XRel:        (node.X - center.X) / positionScale,
			ZRel:        (node.Z - center.Z) / positionScale,
			Stargates:   node.Connections,
			JumpBridges: bridges,
		}

		if cur.jumps < maxHops {
			for _, neighbor := range dedupe(node.Connections, bridges) {
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = struct{}{}
				queue = append(queue, frontierEntry{neighbor, cur.jumps + 1})
			}
		}
	}

	if fetched > 0 {
		if err := m.cache.Save(); err != nil {
			m.logger.Warn("Could not persist system cache", zap.Error(err))
		}
	}

	m.logger.Info("Mapping complete",
		zap.Int("systems", len(snapshot.Systems)),
		zap.Int("fetched", fetched))
	return snapshot, nil
}

// resolve returns a node from the cache, fetching and memoizing it on a miss.
func (m *Mapper) resolve(ctx context.Context, systemID int64, fetched *int) (Node, error) {
	if node, ok := m.cache.Get(systemID); ok {
		return node, nil
	}

	sys, err := m.source.FetchSystem(ctx, systemID)
	if err != nil {
		return Node{}, err
	}

	// Flatten to 2-D here: only X and Z survive into the cache.
	node := Node{
		ID:          sys.ID,
		Name:        sys.Name,
		X:           sys.Position.X,
		Z:           sys.Position.Z,
		Connections: sys.Neighbors,
	}
	m.cache.Put(node)
	*fetched++
	return node, nil
}

// dedupe merges two neighbor lists, dropping duplicates while preserving
// first-seen order.
func dedupe(gates, bridges []int64) []int64 {
	seen := make(map[int64]struct{}, len(gates)+len(bridges))
	out := make([]int64, 0, len(gates)+len(bridges))
	for _, list := range [][]int64{gates, bridges} {
		for _, id := range list {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
