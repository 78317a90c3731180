package marker

import (
	"regexp"
	"strings"
)

// Marker names recognized in the stream.
const (
	NameAgent    = "AGENT"
	NameTheme    = "THEME"
	NameSections = "SECTIONS"
	NameImages   = "IMAGES"
	NameSitemap  = "SITEMAP"
	NameNavbar   = "NAVBAR"
	NamePage     = "PAGE"
	NameUsage    = "USAGE"
)

// payloadNames are the marker names that carry a bracketed payload.
// AGENT markers are handled separately because their JSON rides outside
// the closing bracket.
var payloadNames = []string{NameTheme, NameSections, NameImages, NameSitemap, NameNavbar, NamePage, NameUsage}

var (
	agentStartRE    = regexp.MustCompile(`\[AGENT:(\w+):start\]`)
	agentCompleteRE = regexp.MustCompile(`\[AGENT:(\w+):complete\]`)
)

// Match is one complete marker occurrence in the buffer.
type Match struct {
	// Full is the entire marker text including brackets and, for AGENT
	// complete markers, the trailing JSON payload.
	Full string
	// Payload is the text between "NAME:" and the closing bracket, or the
	// trailing JSON for AGENT complete markers.
	Payload string
	// Start and End delimit Full within the scanned buffer.
	Start, End int
}

// scanBalanced scans a marker starting at s[start] == '[' and returns the
// index just past its closing bracket. Nesting of '[' and '{' inside the
// payload is tracked so [SECTIONS:[{...}]] closes at the right bracket, and
// bracket characters inside JSON strings are ignored. ok is false when the
// marker is still incomplete (the stream has not delivered its tail yet).
func scanBalanced(s string, start int) (end int, ok bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return len(s), false
}

// scanObject scans a JSON object starting at s[start] == '{'.
func scanObject(s string, start int) (end int, ok bool) {
	return scanBalanced(s, start)
}

// Find returns all complete occurrences of [name:...] in s, plus the start
// offset of a trailing incomplete occurrence (-1 when none).
func Find(s, name string) (matches []Match, partial int) {
	partial = -1
	head := "[" + name + ":"
	from := 0
	for {
		i := strings.Index(s[from:], head)
		if i < 0 {
			return matches, partial
		}
		start := from + i
		end, ok := scanBalanced(s, start)
		if !ok {
			return matches, start
		}
		matches = append(matches, Match{
			Full:    s[start:end],
			Payload: s[start+len(head) : end-1],
			Start:   start,
			End:     end,
		})
		from = end
	}
}

// AgentEvent is one AGENT marker occurrence.
type AgentEvent struct {
	Name    string
	Payload string // optional inline JSON for complete markers
	Start   int
	End     int
	// PayloadPartial marks a complete marker whose inline JSON payload has
	// started but not yet closed; the stream has more of it to deliver.
	PayloadPartial bool
}

// FindAgentStarts returns every [AGENT:name:start] occurrence.
func FindAgentStarts(s string) []AgentEvent {
	var events []AgentEvent
	for _, m := range agentStartRE.FindAllStringSubmatchIndex(s, -1) {
		events = append(events, AgentEvent{
			Name:  s[m[2]:m[3]],
			Start: m[0],
			End:   m[1],
		})
	}
	return events
}

// FindAgentCompletes returns every [AGENT:name:complete] occurrence together
// with its optional inline JSON payload. The payload, when present, starts
// immediately after the closing bracket.
func FindAgentCompletes(s string) []AgentEvent {
	var events []AgentEvent
	for _, m := range agentCompleteRE.FindAllStringSubmatchIndex(s, -1) {
		ev := AgentEvent{
			Name:  s[m[2]:m[3]],
			Start: m[0],
			End:   m[1],
		}
		if ev.End < len(s) && s[ev.End] == '{' {
			if end, ok := scanObject(s, ev.End); ok {
				ev.Payload = s[ev.End:end]
				ev.End = end
			} else {
				ev.PayloadPartial = true
			}
		}
		events = append(events, ev)
	}
	return events
}

// AtLineEnd reports whether the text at offset i is end of buffer or a line
// break, skipping trailing spaces. SITEMAP and NAVBAR markers require it.
func AtLineEnd(s string, i int) bool {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

var newlineRunRE = regexp.MustCompile(`\n{3,}`)

// Strip removes every recognized marker from s and tidies the remainder for
// display: runs of three or more newlines collapse to two and the result is
// trimmed. A trailing marker that is still streaming in is removed as well
// so partial bracket noise never reaches the client.
func Strip(s string) string {
	type span struct{ start, end int }
	var spans []span

	cut := len(s)
	for _, ev := range FindAgentStarts(s) {
		spans = append(spans, span{ev.Start, ev.End})
	}
	for _, ev := range FindAgentCompletes(s) {
		spans = append(spans, span{ev.Start, ev.End})
		if ev.PayloadPartial && ev.End < cut {
			// The unclosed JSON tail runs to the end of the buffer.
			cut = ev.End
		}
	}
	for _, name := range payloadNames {
		matches, partial := Find(s, name)
		for _, m := range matches {
			spans = append(spans, span{m.Start, m.End})
		}
		if partial >= 0 && partial < cut {
			cut = partial
		}
	}
	if p := partialHead(s); p >= 0 && p < cut {
		cut = p
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < cut; i++ {
		inMarker := false
		for _, sp := range spans {
			if i >= sp.start && i < sp.end {
				inMarker = true
				break
			}
		}
		if !inMarker {
			b.WriteByte(s[i])
		}
	}

	out := newlineRunRE.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out)
}

// partialHead returns the offset of a trailing '[' that is still a prefix of
// some marker head (like "[AGENT:co" or "[SECT"), or -1 when the tail cannot
// grow into a marker.
func partialHead(s string) int {
	i := strings.LastIndexByte(s, '[')
	if i < 0 {
		return -1
	}
	tail := s[i:]
	if strings.ContainsRune(tail, ']') {
		return -1
	}
	for _, name := range append([]string{NameAgent}, payloadNames...) {
		head := "[" + name + ":"
		if len(tail) < len(head) {
			if strings.HasPrefix(head, tail) {
				return i
			}
		} else if strings.HasPrefix(tail, head) {
			return i
		}
	}
	return -1
}
