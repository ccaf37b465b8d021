package alerting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingSpeaker struct {
	mu         sync.Mutex
	utterances []string
	rates      []int
	pitches    []int
	err        error
}

func (r *recordingSpeaker) Speak(text string, rate, pitch int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.utterances = append(r.utterances, text)
	r.rates = append(r.rates, rate)
	r.pitches = append(r.pitches, pitch)
	return r.err
}

func (r *recordingSpeaker) spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.utterances))
	copy(out, r.utterances)
	return out
}

func newTestDispatcher(speaker Speaker) *Dispatcher {
	d := NewDispatcher(speaker, 30*time.Second, nil)
	d.playbackGap = time.Millisecond
	d.idleInterval = time.Millisecond
	return d
}

func TestSubmitFilters(t *testing.T) {
	d := newTestDispatcher(&recordingSpeaker{})

	t.Run("friendly is dropped", func(t *testing.T) {
		d.Submit("Deklein", 0, true)
		assert.Zero(t, d.pending())
	})

	t.Run("out of range is dropped", func(t *testing.T) {
		d.Submit("FarSystem", 10, false)
		d.Submit("FartherSystem", 25, false)
		assert.Zero(t, d.pending())
	})

	t.Run("in range hostile is queued", func(t *testing.T) {
		d.Submit("VFK-IV", 3, false)
		assert.Equal(t, 1, d.pending())
	})
}

func TestSubmitCooldown(t *testing.T) {
	d := newTestDispatcher(&recordingSpeaker{})
	base := time.Now()
	d.now = func() time.Time { return base }

	d.Submit("Deklein", 0, false)
	d.Submit("Deklein", 0, false)
	assert.Equal(t, 1, d.pending(), "second submit inside the window is suppressed")

	// A different system is unaffected.
	d.Submit("Jita", 2, false)
	assert.Equal(t, 2, d.pending())

	// 29s later: still suppressed.
	d.now = func() time.Time { return base.Add(29 * time.Second) }
	d.Submit("Deklein", 0, false)
	assert.Equal(t, 2, d.pending())

	// 31s later: accepted again.
	d.now = func() time.Time { return base.Add(31 * time.Second) }
	d.Submit("Deklein", 0, false)
	assert.Equal(t, 3, d.pending())
}

func TestTierClassification(t *testing.T) {
	tests := []struct {
		jumps int
		want  Tier
	}{
		{0, TierCritical},
		{1, TierHigh},
		{4, TierHigh},
		{5, TierLow},
		{9, TierLow},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, classifyTier(tc.jumps), "jumps=%d", tc.jumps)
	}
}

func TestPlaybackRendering(t *testing.T) {
	defer goleak.VerifyNone(t)

	speaker := &recordingSpeaker{}
	d := newTestDispatcher(speaker)

	d.Submit("Deklein", 0, false)
	d.Submit("VFK-IV", 1, false)
	d.Submit("Jita", 3, false)
	d.Submit("QA-8XZ", 7, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(speaker.spoken()) == 4
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	// Strict FIFO order, tier-specific phrasing with hop agreement.
	assert.Equal(t, []string{"Local.", "1 hop.", "3 hops.", "7 hops."}, speaker.spoken())

	speaker.mu.Lock()
	defer speaker.mu.Unlock()
	assert.Equal(t, []int{120, 130, 130, 140}, speaker.rates)
	assert.Equal(t, []int{70, 50, 50, 30}, speaker.pitches)
}

func TestPlaybackSurvivesSpeakerFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	speaker := &recordingSpeaker{err: errors.New("audio device busy")}
	d := newTestDispatcher(speaker)

	d.Submit("Deklein", 0, false)
	d.Submit("Jita", 2, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(speaker.spoken()) == 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestSubmitConcurrent(t *testing.T) {
	d := newTestDispatcher(&recordingSpeaker{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Submit("Deklein", 0, false)
		}()
	}
	wg.Wait()

	// All racers hit the same cooldown key: exactly one alert survives.
	assert.Equal(t, 1, d.pending())
}
