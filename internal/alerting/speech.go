package alerting

import (
	"fmt"
	"os/exec"
	"strconv"

	"go.uber.org/zap"
)

// ESpeakSpeaker renders utterances through the espeak-ng command line
// synthesizer.
type ESpeakSpeaker struct {
	// Voice is the espeak-ng voice identifier, e.g. "es" or "en".
	Voice string
	// Volume is the amplitude flag (0-200).
	Volume int
	Logger *zap.Logger
}

// NewESpeakSpeaker returns a speaker using the given voice and volume.
func NewESpeakSpeaker(voice string, volume int, logger *zap.Logger) *ESpeakSpeaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ESpeakSpeaker{Voice: voice, Volume: volume, Logger: logger.Named("espeak")}
}

// Available reports whether the espeak-ng binary can be found on PATH.
func (s *ESpeakSpeaker) Available() bool {
	_, err := exec.LookPath("espeak-ng")
	return err == nil
}

// SilentSpeaker discards every utterance. Used when alerts are disabled or
// no synthesizer is installed, so the rest of the pipeline runs unchanged.
type SilentSpeaker struct{}

func (SilentSpeaker) Speak(string, int, int) error { return nil }

// Speak synthesizes text at the given words-per-minute rate and pitch
// (0-99). It blocks until playback finishes.
func (s *ESpeakSpeaker) Speak(text string, rate, pitch int) error {
	cmd := exec.Command("espeak-ng",
		"-v", s.Voice,
		"-s", strconv.Itoa(rate),
		"-p", strconv.Itoa(pitch),
		"-a", strconv.Itoa(s.Volume),
		text,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("espeak-ng: %w", err)
	}
	return nil
}
