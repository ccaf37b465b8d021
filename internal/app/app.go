// Package app wires the ingestion pipeline together: tailed chat lines are
// parsed into intel records, hostile authors are profiled off the ingestion
// path, distances are resolved against the live topology snapshot, and
// qualifying sightings become audio alerts.
package app

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edwardjardy/radlocal/internal/alerting"
	"github.com/edwardjardy/radlocal/internal/cartography"
	"github.com/edwardjardy/radlocal/internal/config"
	"github.com/edwardjardy/radlocal/internal/intel"
	"github.com/edwardjardy/radlocal/internal/tailer"
	"github.com/edwardjardy/radlocal/internal/threat"
	"github.com/edwardjardy/radlocal/internal/tracker"
)

// Event is the egress boundary toward any presentation layer: one intel
// record with its resolved distance and threat assessment.
type Event struct {
	Channel    string
	Record     *intel.Record
	Jumps      int
	InRange    bool
	Assessment threat.Assessment
}

// Profiler is the subset of the threat profiler the pipeline needs.
type Profiler interface {
	Profile(ctx context.Context, name string) threat.Assessment
}

// job carries one parsed record from the ingestion goroutine to the
// profiling workers.
type job struct {
	channel string
	record  *intel.Record
}

// App owns the live pipeline state. The topology snapshot and the parser
// dictionary derived from it are replaced wholesale on every observer move.
type App struct {
	cfg        *config.Config
	mapper     *cartography.Mapper
	profiler   Profiler
	dispatcher *alerting.Dispatcher
	logger     *zap.Logger

	mu       sync.RWMutex
	snapshot *cartography.Snapshot
	// nameIndex is the snapshot's lowercase name -> id map, computed once
	// per refresh so per-line distance lookups stay O(1).
	nameIndex map[string]int64
	parser    *intel.Parser

	// mapping serializes topology passes; an observer move arriving while
	// a pass runs is skipped, the next move supersedes it.
	mapping sync.Mutex

	jobs   chan job
	events chan Event
}

// New assembles the pipeline around an already-constructed mapper, profiler
// and dispatcher.
func New(cfg *config.Config, mapper *cartography.Mapper, profiler Profiler, dispatcher *alerting.Dispatcher, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:        cfg,
		mapper:     mapper,
		profiler:   profiler,
		dispatcher: dispatcher,
		logger:     logger.Named("pipeline"),
		parser:     intel.NewParser(nil),
		jobs:       make(chan job, 64),
		events:     make(chan Event, 64),
	}
}

// Events exposes the stream consumed by any rendering component. The
// pipeline never blocks on a slow consumer; unread events are dropped.
func (a *App) Events() <-chan Event { return a.events }

// Run starts the profiling workers, the alert playback worker, the tailer
// and (when configured) the location watcher, and blocks until the context
// is cancelled.
func (a *App) Run(ctx context.Context, source tracker.LocationSource) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < a.cfg.Threat.Workers; i++ {
		g.Go(func() error { return a.profileWorker(ctx) })
	}

	g.Go(func() error { return a.dispatcher.Run(ctx) })

	tl := tailer.New(a.cfg.Intel.LogDir, a.cfg.Intel.Channels,
		a.cfg.Intel.PollInterval, a.HandleLine, a.logger)
	g.Go(func() error { return tl.Run(ctx) })

	if a.cfg.Tracker.CharacterID != 0 && source != nil {
		w := tracker.New(source, a.cfg.Tracker.CharacterID,
			a.cfg.Tracker.PollInterval, func(systemID int64) {
				// Mapping passes are I/O bound; never run them on the
				// tracker's poll goroutine.
				go a.RefreshTopology(ctx, systemID)
			}, a.logger)
		g.Go(func() error { return w.Run(ctx) })
	}

	return g.Wait()
}

// RefreshTopology rebuilds the snapshot around centerID and swaps in a new
// parser dictionary. Overlapping refreshes are skipped rather than queued;
// cache writes underneath remain last-writer-wins safe.
func (a *App) RefreshTopology(ctx context.Context, centerID int64) {
	if !a.mapping.TryLock() {
		a.logger.Debug("Topology pass already running, skipping refresh",
			zap.Int64("center_id", centerID))
		return
	}
	defer a.mapping.Unlock()

	snapshot, err := a.mapper.BuildMap(ctx, centerID, a.cfg.Map.MaxJumps)
	if err != nil {
		a.logger.Warn("Topology refresh failed", zap.Int64("center_id", centerID), zap.Error(err))
		return
	}
	index, names := snapshot.NameIndex()

	a.mu.Lock()
	a.snapshot = snapshot
	a.nameIndex = index
	a.parser = intel.NewParser(names)
	a.mu.Unlock()
}

// Snapshot returns the current topology snapshot, or nil before the first
// successful pass.
func (a *App) Snapshot() *cartography.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// HandleLine is the tailer callback. It parses on the ingestion goroutine
// (cheap) and defers all network-bound work to the profiling workers. When
// the workers are saturated the line is dropped: stale intel is worthless
// and must never stall tailing.
func (a *App) HandleLine(channel, line string) {
	a.mu.RLock()
	parser := a.parser
	a.mu.RUnlock()

	record := parser.Parse(line)
	if record == nil {
		return
	}
	if record.System == "" {
		a.logger.Debug("Intel line without a resolvable system",
			zap.String("channel", channel),
			zap.String("raw", record.RawMessage))
		return
	}

	select {
	case a.jobs <- job{channel: channel, record: record}:
	default:
		a.logger.Warn("Profiling queue saturated, dropping intel line",
			zap.String("system", record.System))
	}
}

// profileWorker consumes parsed records, resolves the author's threat
// profile and the system's distance, and feeds the dispatcher and the event
// stream.
func (a *App) profileWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-a.jobs:
			a.process(ctx, j)
		}
	}
}

func (a *App) process(ctx context.Context, j job) {
	assessment := a.profiler.Profile(ctx, j.record.Author)

	jumps, inRange := a.distanceTo(j.record.System)

	a.logger.Info("Intel report",
		zap.String("channel", j.channel),
		zap.String("system", j.record.System),
		zap.String("status", string(j.record.Status)),
		zap.String("reporter", j.record.Author),
		zap.String("profile", assessment.String()),
		zap.Int("jumps", jumps),
		zap.Bool("in_range", inRange))

	// A clear or no-visual report is intel, not an alarm; only hostile
	// sightings inside the mapped neighborhood reach the dispatcher.
	if inRange && j.record.Status == intel.StatusHostile {
		a.dispatcher.Submit(j.record.System, jumps,
			assessment.Outcome == threat.OutcomeFriendly)
	}

	select {
	case a.events <- Event{
		Channel:    j.channel,
		Record:     j.record,
		Jumps:      jumps,
		InRange:    inRange,
		Assessment: assessment,
	}:
	default:
		// No consumer, or a slow one. Dropping is fine.
	}
}

// distanceTo resolves a system name against the current snapshot.
func (a *App) distanceTo(system string) (jumps int, ok bool) {
	a.mu.RLock()
	snapshot, index := a.snapshot, a.nameIndex
	a.mu.RUnlock()
	if snapshot == nil {
		return 0, false
	}

	id, found := index[strings.ToLower(system)]
	if !found {
		return 0, false
	}
	return snapshot.Systems[id].Jumps, true
}
