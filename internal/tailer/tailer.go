// Package tailer follows the game's chat log files in real time. The game
// writes each channel to a new UTF-16 file per session and per day, so the
// tailer continuously re-discovers the freshest backing file per channel and
// reads only what gets appended after attach.
package tailer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
)

// discoveryEvery is how many poll ticks pass between file re-discovery
// sweeps. Rotation is rare compared to appends, so discovery runs on a
// slower cadence than reads.
const discoveryEvery = 10

// utf16Decoder decodes the wide-character log encoding, substituting
// replacement characters on invalid input rather than failing. The BOM is
// never seen because we attach at end-of-file.
var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// LineHandler receives each newly appended line of a channel. The redesign
// here is intentional: downstream behavior is a plain callback, not a
// subclass override.
type LineHandler func(channel, line string)

// channelFile is the open backing file of one channel plus its undecoded
// residue (bytes read past the last complete line).
type channelFile struct {
	path    string
	file    *os.File
	residue []byte
}

// Tailer watches the chat logs of a set of channels. It owns its file
// handles exclusively; Run is the only goroutine touching them.
type Tailer struct {
	logDir   string
	channels []string
	interval time.Duration
	handler  LineHandler
	logger   *zap.Logger

	open map[string]*channelFile
}

// New builds a Tailer over logDir for the given channels. interval is the
// delay between read passes.
func New(logDir string, channels []string, interval time.Duration, handler LineHandler, logger *zap.Logger) *Tailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tailer{
		logDir:   logDir,
		channels: channels,
		interval: interval,
		handler:  handler,
		logger:   logger.Named("tailer"),
		open:     make(map[string]*channelFile),
	}
}

// Run is the poll loop: each tick drains every open file of complete lines,
// and every tenth tick re-runs file discovery to catch rotations and new
// days. It returns when the context is cancelled, closing all handles.
// Partial trailing lines are discarded on stop, not carried over.
func (t *Tailer) Run(ctx context.Context) error {
	t.logger.Info("Watching chat logs",
		zap.String("dir", t.logDir),
		zap.Strings("channels", t.channels))

	t.discover()
	defer t.closeAll()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Stopping chat log watch")
			return ctx.Err()
		case <-ticker.C:
		}

		tick++
		if tick%discoveryEvery == 0 {
			t.discover()
		}
		for channel, cf := range t.open {
			t.drain(channel, cf)
		}
	}
}

// discover locates the most recently modified backing file for each channel
// and (re)attaches when it differs from the one currently open. A channel
// whose file cannot be found or opened is skipped this pass and retried on
// the next sweep; it never affects the other channels.
func (t *Tailer) discover() {
	for _, channel := range t.channels {
		latest, ok := t.latestLogFor(channel)
		if !ok {
			continue
		}
		cur := t.open[channel]
		if cur != nil && cur.path == latest {
			continue
		}

		f, err := os.Open(latest)
		if err != nil {
			t.logger.Warn("Cannot open channel log",
				zap.String("channel", channel),
				zap.String("path", latest),
				zap.Error(err))
			continue
		}
		// Attach at end-of-file: historical content is never replayed.
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			t.logger.Warn("Cannot seek channel log", zap.String("path", latest), zap.Error(err))
			f.Close()
			continue
		}

		if cur != nil {
			cur.file.Close()
		}
		t.logger.Info("Attached to intel channel",
			zap.String("channel", channel),
			zap.String("file", filepath.Base(latest)))
		t.open[channel] = &channelFile{path: latest, file: f}
	}
}

// latestLogFor finds the freshest log file matching the channel name.
// Spaces in channel names are treated as wildcards, since the game mangles
// them in file names.
func (t *Tailer) latestLogFor(channel string) (string, bool) {
	safe := strings.ReplaceAll(channel, " ", "*")
	pattern := filepath.Join(t.logDir, "*"+safe+"*.txt")

	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", false
	}

	var newest string
	var newestMod time.Time
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = path
			newestMod = info.ModTime()
		}
	}
	return newest, newest != ""
}

// drain reads everything currently appended to the channel file, slices it
// into complete lines and hands them decoded to the handler. Bytes after the
// last newline stay buffered for the next pass.
func (t *Tailer) drain(channel string, cf *channelFile) {
	var buf [4096]byte
	for {
		n, err := cf.file.Read(buf[:])
		if n > 0 {
			cf.residue = append(cf.residue, buf[:n]...)
		}
		if err != nil || n == 0 {
			break
		}
	}

	for {
		line, rest, ok := cutLine(cf.residue)
		if !ok {
			return
		}
		cf.residue = rest

		decoded, err := utf16Decoder.NewDecoder().Bytes(line)
		if err != nil {
			// The decoder substitutes replacement characters itself;
			// anything surfacing here is unexpected but never fatal.
			t.logger.Warn("Undecodable log line", zap.String("channel", channel), zap.Error(err))
			continue
		}
		text := strings.TrimRight(string(decoded), "\r\n")
		if text == "" {
			continue
		}
		t.handler(channel, text)
	}
}

// cutLine splits the first complete UTF-16LE line off raw. The newline is a
// 0x0A 0x00 code unit at an even offset.
func cutLine(raw []byte) (line, rest []byte, ok bool) {
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == '\n' && raw[i+1] == 0x00 {
			return raw[:i], raw[i+2:], true
		}
	}
	return nil, raw, false
}

func (t *Tailer) closeAll() {
	for channel, cf := range t.open {
		cf.file.Close()
		delete(t.open, channel)
	}
}
