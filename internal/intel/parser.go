// Package intel turns raw chat log lines into structured intel records.
// The parsing here is deliberately heuristic: it favors catching real
// sightings over grammatical completeness, and a chatty line may well be
// mis-read as a location report when no system dictionary is supplied.
package intel

import (
	"regexp"
	"strings"
	"unicode"
)

// logPattern splits the chat envelope: [ date time ] author > message.
// Example: [ 2026.04.14 17:01:23 ] Jardy > VFK-IV nv
var logPattern = regexp.MustCompile(`^\[\s+(.*?)\s+\]\s+(.*?)\s+>\s+(.*)$`)

// scanLinkPattern matches report links from the known scan aggregator hosts.
var scanLinkPattern = regexp.MustCompile(`https?://(?:dscan\.info|adashboard\.info|evepraisal\.com|dscan\.me)/\S+`)

// stopWords are common intel chatter tokens that can never be a system name.
var stopWords = map[string]struct{}{
	"clr": {}, "clear": {}, "nv": {}, "no": {}, "vis": {},
	"dscan": {}, "spike": {}, "local": {}, "in": {}, "system": {},
}

// Parser extracts intel records from raw chat lines. A Parser built with a
// known-system dictionary only reports locations it can match exactly;
// without one it falls back to a first-plausible-token heuristic.
type Parser struct {
	knownSystems map[string]struct{}
}

// NewParser returns a Parser. knownSystems may be nil or empty, in which case
// location detection degrades to heuristic mode. Names are matched
// case-insensitively.
func NewParser(knownSystems []string) *Parser {
	p := &Parser{}
	if len(knownSystems) > 0 {
		p.knownSystems = make(map[string]struct{}, len(knownSystems))
		for _, s := range knownSystems {
			p.knownSystems[strings.ToLower(s)] = struct{}{}
		}
	}
	return p
}

// Parse analyzes one raw log line. It returns nil when the line does not
// match the chat envelope; it never fails otherwise. A line may parse to a
// record with an empty System when no location could be resolved.
func (p *Parser) Parse(rawLine string) *Record {
	m := logPattern.FindStringSubmatch(strings.TrimSpace(rawLine))
	if m == nil {
		return nil
	}
	timestamp, author, message := m[1], m[2], m[3]

	words := strings.Fields(message)

	status := StatusHostile
	lowerWords := make([]string, len(words))
	for i, w := range words {
		lowerWords[i] = strings.ToLower(w)
	}
	switch {
	case containsWord(lowerWords, "clr"), containsWord(lowerWords, "clear"):
		status = StatusClear
	case containsWord(lowerWords, "nv"), strings.Contains(strings.ToLower(message), "no vis"):
		status = StatusNoVisual
	}

	return &Record{
		Timestamp:  timestamp,
		Author:     author,
		System:     p.detectSystem(words),
		Status:     status,
		ScanLink:   scanLinkPattern.FindString(message),
		RawMessage: message,
	}
}

// detectSystem picks the reported location out of the message tokens.
func (p *Parser) detectSystem(words []string) string {
	if p.knownSystems != nil {
		// Exact search when we have the topology loaded. Keep the
		// capitalization from the message itself.
		for _, w := range words {
			if _, ok := p.knownSystems[strings.ToLower(w)]; ok {
				if isAllUpper(w) {
					return w
				}
				return titleCase(w)
			}
		}
		return ""
	}

	// Heuristic: the first token that is neither common intel chatter nor a
	// link is assumed to be the system. Tokens with digits and dashes
	// (1DQ1-A) are exactly what this catches, but plain chat words slip
	// through too; that is an accepted limitation.
	for _, w := range words {
		clean := strings.Trim(w, "*.,:;!?")
		if clean == "" {
			continue
		}
		if _, stop := stopWords[strings.ToLower(clean)]; stop {
			continue
		}
		if strings.HasPrefix(clean, "http") {
			continue
		}
		return clean
	}
	return ""
}

func containsWord(words []string, target string) bool {
	for _, w := range words {
		if w == target {
			return true
		}
	}
	return false
}

// isAllUpper reports whether s contains at least one cased letter and every
// cased letter is upper case.
func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// titleCase upper-cases the first letter of every letter run and lower-cases
// the rest, so "vfk-iv" becomes "Vfk-Iv".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
