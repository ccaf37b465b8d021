// Package alerting turns proximity events into rate-limited audio alerts.
// Alerts are filtered (friendlies, range, cooldown), classified into a
// priority tier by hop distance, and played back in strict submission order
// by a single worker.
package alerting

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tier is the alert priority derived from hop distance. It governs how an
// alert is voiced, not its position in the queue.
type Tier string

const (
	// TierCritical: the hostile is in the observer's own system.
	TierCritical Tier = "critical"
	// TierHigh: 1-4 jumps out.
	TierHigh Tier = "high"
	// TierLow: 5-9 jumps out.
	TierLow Tier = "low"
)

const (
	// rangeLimit is the hop distance at which events stop mattering.
	rangeLimit = 10

	defaultPlaybackGap  = 500 * time.Millisecond
	defaultIdleInterval = 100 * time.Millisecond
)

// Instruction is one queued playback order.
type Instruction struct {
	// ID correlates queue and playback log lines.
	ID     string
	Tier   Tier
	System string
	Jumps  int
}

// Speaker is the external speech-output collaborator. Failures are
// best-effort: the dispatcher logs and moves on.
type Speaker interface {
	Speak(text string, rate, pitch int) error
}

// Dispatcher accepts threat events from any number of goroutines and plays
// the accepted ones back through a single consumer. The cooldown map and the
// queue are the only shared mutable state, both guarded by the mutex.
type Dispatcher struct {
	speaker  Speaker
	cooldown time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	lastPlay map[string]time.Time
	queue    []Instruction

	// playbackGap and idleInterval are the worker's pacing knobs,
	// overridable in tests.
	playbackGap  time.Duration
	idleInterval time.Duration
	now          func() time.Time
}

// NewDispatcher builds a Dispatcher. cooldown is the minimum interval
// between accepted alerts for the same system.
func NewDispatcher(speaker Speaker, cooldown time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		speaker:      speaker,
		cooldown:     cooldown,
		logger:       logger.Named("alerting"),
		lastPlay:     make(map[string]time.Time),
		playbackGap:  defaultPlaybackGap,
		idleInterval: defaultIdleInterval,
		now:          time.Now,
	}
}

// Submit is the fire-and-forget entry point. Safe for concurrent use.
func (d *Dispatcher) Submit(system string, jumps int, isFriendly bool) {
	if isFriendly {
		return
	}
	if jumps >= rangeLimit {
		return
	}

	now := d.now()
	d.mu.Lock()
	if last, ok := d.lastPlay[system]; ok && now.Sub(last) < d.cooldown {
		d.mu.Unlock()
		return
	}
	// The cooldown key is touched as soon as the event clears the filters,
	// before tier classification.
	d.lastPlay[system] = now

	instr := Instruction{
		ID:     uuid.NewString(),
		Tier:   classifyTier(jumps),
		System: system,
		Jumps:  jumps,
	}
	d.queue = append(d.queue, instr)
	d.mu.Unlock()

	d.logger.Debug("Alert queued",
		zap.String("alert_id", instr.ID),
		zap.String("tier", string(instr.Tier)),
		zap.String("system", system),
		zap.Int("jumps", jumps))
}

// classifyTier maps hop distance to an alert tier. Events at rangeLimit or
// beyond were already dropped.
func classifyTier(jumps int) Tier {
	switch {
	case jumps == 0:
		return TierCritical
	case jumps <= 4:
		return TierHigh
	default:
		return TierLow
	}
}

// Run is the playback worker: a single consumer draining the queue in FIFO
// order until the context is cancelled. Priority tiers affect phrasing, not
// queue position.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Alert playback worker started")
	for {
		instr, ok := d.pop()
		if !ok {
			select {
			case <-ctx.Done():
				d.logger.Info("Alert playback worker stopped")
				return ctx.Err()
			case <-time.After(d.idleInterval):
			}
			continue
		}

		d.play(instr)

		// Short gap so consecutive alerts do not run into each other.
		select {
		case <-ctx.Done():
			d.logger.Info("Alert playback worker stopped")
			return ctx.Err()
		case <-time.After(d.playbackGap):
		}
	}
}

func (d *Dispatcher) pop() (Instruction, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return Instruction{}, false
	}
	instr := d.queue[0]
	d.queue = d.queue[1:]
	return instr, true
}

// pending returns the current queue depth.
func (d *Dispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// play renders an instruction to its tier-specific utterance and hands it to
// the speaker. Playback failures never crash the worker.
func (d *Dispatcher) play(instr Instruction) {
	var text string
	var rate, pitch int

	switch instr.Tier {
	case TierCritical:
		// Zero jumps: one blunt word, urgent delivery.
		text, rate, pitch = "Local.", 120, 70
	case TierHigh:
		word := "hops"
		if instr.Jumps == 1 {
			word = "hop"
		}
		text, rate, pitch = strconv.Itoa(instr.Jumps)+" "+word+".", 130, 50
	default:
		text, rate, pitch = strconv.Itoa(instr.Jumps)+" hops.", 140, 30
	}

	if err := d.speaker.Speak(text, rate, pitch); err != nil {
		d.logger.Warn("Alert playback failed",
			zap.String("alert_id", instr.ID),
			zap.String("text", text),
			zap.Error(err))
	}
}
