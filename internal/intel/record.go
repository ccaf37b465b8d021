package intel

// Status is the tactical state reported by a single chat line.
type Status string

const (
	// StatusHostile is the default: an intel post with no explicit
	// clear/no-visual marker is assumed to report a hostile sighting.
	StatusHostile Status = "hostile"
	// StatusClear means the reporter confirmed the system is empty.
	StatusClear Status = "clear"
	// StatusNoVisual means the hostile is known but not currently on scan.
	StatusNoVisual Status = "no_vis"
)

// Record is one parsed intel observation. Records are immutable once built
// and are discarded after the dispatch stage consumes them.
type Record struct {
	// Timestamp is the source-format timestamp string, preserved verbatim.
	Timestamp string
	// Author is the reporting pilot's name.
	Author string
	// System is the reported location, or empty when none could be resolved.
	System string
	// Status is the tactical state of the report.
	Status Status
	// ScanLink is the first recognized scan-report URL in the message, if any.
	ScanLink string
	// RawMessage is the message body after the envelope, untouched.
	RawMessage string
}
