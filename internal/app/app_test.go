package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/edwardjardy/radlocal/internal/alerting"
	"github.com/edwardjardy/radlocal/internal/cartography"
	"github.com/edwardjardy/radlocal/internal/config"
	"github.com/edwardjardy/radlocal/internal/esi"
	"github.com/edwardjardy/radlocal/internal/threat"
)

// fakeGalaxy serves a small line graph: Home(1) - Near(2) - Far(3).
type fakeGalaxy struct{}

func (fakeGalaxy) FetchSystem(ctx context.Context, id int64) (*esi.SolarSystem, error) {
	systems := map[int64]*esi.SolarSystem{
		1: {ID: 1, Name: "Home", Neighbors: []int64{2}},
		2: {ID: 2, Name: "Near", Neighbors: []int64{1, 3}},
		3: {ID: 3, Name: "Far", Neighbors: []int64{2}},
	}
	s, ok := systems[id]
	if !ok {
		return nil, esi.ErrNotFound
	}
	return s, nil
}

// stubProfiler always classifies, without any network.
type stubProfiler struct {
	assessment threat.Assessment
	calls      int
}

func (s *stubProfiler) Profile(ctx context.Context, name string) threat.Assessment {
	s.calls++
	return s.assessment
}

// silentSpeaker records utterances without touching espeak.
type silentSpeaker struct{ spoken chan string }

func (s *silentSpeaker) Speak(text string, rate, pitch int) error {
	select {
	case s.spoken <- text:
	default:
	}
	return nil
}

func newTestApp(t *testing.T, profiler Profiler, speaker alerting.Speaker) *App {
	t.Helper()
	dir := t.TempDir()

	cfg := config.NewDefaultConfig()
	cfg.Intel.LogDir = dir
	cfg.Intel.PollInterval = 20 * time.Millisecond
	cfg.Threat.Workers = 1
	cfg.Map.MaxJumps = 9

	logger := zap.NewNop()
	cache := cartography.NewNodeCache(filepath.Join(dir, "nodes.json"), logger)
	bridges := cartography.NewBridgeManager(filepath.Join(dir, "bridges.json"), logger)
	mapper := cartography.NewMapper(fakeGalaxy{}, cache, bridges, logger)
	dispatcher := alerting.NewDispatcher(speaker, cfg.Alerts.Cooldown, logger)

	return New(cfg, mapper, profiler, dispatcher, logger)
}

func TestRefreshTopologySwapsSnapshotAndDictionary(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := newTestApp(t, &stubProfiler{}, &silentSpeaker{spoken: make(chan string, 8)})
	require.Nil(t, a.Snapshot())

	a.RefreshTopology(context.Background(), 1)

	snap := a.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.CenterID)
	assert.Len(t, snap.Systems, 3)

	// The parser now resolves only mapped names.
	rec := a.parser.Parse("[ 2026.04.14 17:01:23 ] Jardy > far spike")
	require.NotNil(t, rec)
	assert.Equal(t, "Far", rec.System)

	// Distance lookups hit the index built during the refresh, with
	// case-insensitive names.
	jumps, ok := a.distanceTo("FAR")
	require.True(t, ok)
	assert.Equal(t, 2, jumps)
	_, ok = a.distanceTo("Nowhere")
	assert.False(t, ok)
}

func TestPipelineEmitsEventWithDistance(t *testing.T) {
	defer goleak.VerifyNone(t)

	profiler := &stubProfiler{assessment: threat.Assessment{
		Outcome: threat.OutcomeClassified,
		Ship:    "Sabre",
		Tags:    "TACKLE/INTERDICTOR",
	}}
	speaker := &silentSpeaker{spoken: make(chan string, 8)}
	a := newTestApp(t, profiler, speaker)
	a.RefreshTopology(context.Background(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, nil) }()

	a.HandleLine("B0SS Intel", "[ 2026.04.14 17:01:23 ] Scout > Far hostile fleet")

	select {
	case ev := <-a.Events():
		assert.Equal(t, "Far", ev.Record.System)
		assert.Equal(t, 2, ev.Jumps)
		assert.True(t, ev.InRange)
		assert.Equal(t, threat.OutcomeClassified, ev.Assessment.Outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("no event emitted")
	}

	// Hostile and in range, so the dispatcher should speak.
	select {
	case text := <-speaker.spoken:
		assert.Contains(t, text, "hops")
	case <-time.After(2 * time.Second):
		t.Fatal("no alert played")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestPipelineDropsUnresolvableSystems(t *testing.T) {
	defer goleak.VerifyNone(t)

	profiler := &stubProfiler{}
	a := newTestApp(t, profiler, &silentSpeaker{spoken: make(chan string, 8)})
	a.RefreshTopology(context.Background(), 1)

	// Dictionary mode: chatter with no mapped system name never queues a job.
	a.HandleLine("B0SS Intel", "[ 2026.04.14 17:01:24 ] Scout > anyone got eyes?")
	assert.Empty(t, a.jobs)
	assert.Zero(t, profiler.calls)

	// Non-envelope noise is ignored outright.
	a.HandleLine("B0SS Intel", "Channel MOTD: report in format SYSTEM status")
	assert.Empty(t, a.jobs)
}

func TestClearReportsAreNotAlerted(t *testing.T) {
	defer goleak.VerifyNone(t)

	profiler := &stubProfiler{assessment: threat.Assessment{Outcome: threat.OutcomeClassified}}
	speaker := &silentSpeaker{spoken: make(chan string, 8)}
	a := newTestApp(t, profiler, speaker)
	a.RefreshTopology(context.Background(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, nil) }()

	a.HandleLine("B0SS Intel", "[ 2026.04.14 17:05:00 ] Scout > Near clr")

	select {
	case ev := <-a.Events():
		assert.Equal(t, "Near", ev.Record.System)
		assert.Equal(t, 1, ev.Jumps)
	case <-time.After(2 * time.Second):
		t.Fatal("no event emitted")
	}

	select {
	case text := <-speaker.spoken:
		t.Fatalf("unexpected alert for a clear report: %q", text)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
