package a2a

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	muse "github.com/cling-godaddy/muse-sub001"
	"github.com/cling-godaddy/muse-sub001/marker"
	"github.com/google/uuid"
)

// maxMarkerEcho bounds how much of an offending marker a parse_error status
// update carries downstream.
const maxMarkerEcho = 100

// Translator feeds raw marker-text chunks into an Emitter, one protocol
// event per marker, in the order markers appear in the stream.
//
// Consistency policy per artifact kind:
//
//   - theme: first successful parse wins; later theme markers are ignored
//     for the life of the translator.
//   - sitemap, sections, images: last wins; every successful parse emits a
//     new artifact update tagged with a strictly incrementing per-kind
//     revision in metadata "rev", starting at 1.
//   - page markers: deduplicated by slug, metadata restricted to slug and
//     title.
//   - agent completions: metadata restricted to an allow-list of small
//     fields plus completed=true; large payload fields never leak.
//
// Artifact identity is stable: the translator mints one artifact id per
// artifact name and reuses it across revisions.
//
// A Translator is stateful and not safe for concurrent use; each stream
// gets its own instance.
type Translator struct {
	emitter      *Emitter
	log          *slog.Logger
	onParseError func(marker string, err error)

	buf          strings.Builder
	processed    map[string]int    // marker name → occurrences handled
	revs         map[string]int    // artifact name → last emitted revision
	artifactIDs  map[string]string // artifact name → stable artifact id
	themeEmitted bool
	seenSlugs    map[string]bool
	started      map[string]bool
	completed    map[string]bool
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*Translator)

// WithParseErrorHandler registers a callback invoked with the original
// matched marker text whenever a marker payload fails to parse. The
// translator still emits a parse_error status update and keeps going.
func WithParseErrorHandler(fn func(marker string, err error)) TranslatorOption {
	return func(t *Translator) { t.onParseError = fn }
}

// WithTranslatorLogger sets the diagnostic logger.
func WithTranslatorLogger(log *slog.Logger) TranslatorOption {
	return func(t *Translator) { t.log = log }
}

// NewTranslator creates a Translator emitting through the given Emitter.
func NewTranslator(emitter *Emitter, opts ...TranslatorOption) *Translator {
	t := &Translator{
		emitter:     emitter,
		log:         slog.Default(),
		processed:   make(map[string]int),
		revs:        make(map[string]int),
		artifactIDs: make(map[string]string),
		seenSlugs:   make(map[string]bool),
		started:     make(map[string]bool),
		completed:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Text returns the full accumulated stream text.
func (t *Translator) Text() string { return t.buf.String() }

// pendingMarker is a complete, not-yet-handled marker occurrence.
type pendingMarker struct {
	kind    string
	name    string // agent name, for AGENT markers
	payload string
	full    string
	start   int
	seq     int // occurrence index within its kind
}

// ProcessChunk appends one chunk of stream text and emits events for every
// marker that completed since the previous call. Markers split across chunk
// boundaries are handled once their tail arrives. Parse failures never stop
// processing of later markers.
func (t *Translator) ProcessChunk(chunk string) {
	t.buf.WriteString(chunk)
	full := t.buf.String()

	var pending []pendingMarker

	starts := marker.FindAgentStarts(full)
	for i := t.processed["AGENT_START"]; i < len(starts); i++ {
		ev := starts[i]
		pending = append(pending, pendingMarker{kind: "AGENT_START", name: ev.Name, full: full[ev.Start:ev.End], start: ev.Start, seq: i})
	}
	completes := marker.FindAgentCompletes(full)
	for i := t.processed["AGENT_COMPLETE"]; i < len(completes); i++ {
		ev := completes[i]
		if ev.PayloadPartial || (ev.Payload == "" && ev.End == len(full)) {
			// The inline payload may begin, or finish, in a later chunk;
			// handling now would lose it for good. A closed payload cannot
			// grow, so it is handled immediately wherever the buffer ends.
			break
		}
		pending = append(pending, pendingMarker{kind: "AGENT_COMPLETE", name: ev.Name, payload: ev.Payload, full: full[ev.Start:ev.End], start: ev.Start, seq: i})
	}
	for _, name := range []string{marker.NameTheme, marker.NameSections, marker.NameImages, marker.NameSitemap, marker.NameNavbar, marker.NamePage, marker.NameUsage} {
		matches, _ := marker.Find(full, name)
		for i := t.processed[name]; i < len(matches); i++ {
			m := matches[i]
			if (name == marker.NameSitemap || name == marker.NameNavbar) && m.End == len(full) {
				// Termination rule undecidable until more text arrives.
				break
			}
			pending = append(pending, pendingMarker{kind: name, payload: m.Payload, full: m.Full, start: m.Start, seq: i})
		}
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].start < pending[j].start })

	for _, pm := range pending {
		t.handle(full, pm)
		// Occurrence counters, not offsets: the buffer only grows and
		// markers are write-once, so counts identify what is new.
		t.processed[pm.kind] = pm.seq + 1
	}
}

func (t *Translator) handle(full string, pm pendingMarker) {
	switch pm.kind {
	case "AGENT_START":
		t.handleAgentStart(pm)
	case "AGENT_COMPLETE":
		t.handleAgentComplete(pm)
	case marker.NameTheme:
		t.handleTheme(pm)
	case marker.NameSections:
		t.handleSections(pm)
	case marker.NameImages:
		t.handleImages(pm)
	case marker.NameSitemap:
		t.handleSitemap(full, pm)
	case marker.NameNavbar:
		// Navbar feeds the parser, not the artifact stream; malformed
		// payloads still surface as diagnostics.
		if !json.Valid([]byte(pm.payload)) {
			t.parseError(pm, errInvalidJSON)
		}
	case marker.NamePage:
		t.handlePage(pm)
	case marker.NameUsage:
		t.handleUsage(pm)
	}
}

func (t *Translator) handleAgentStart(pm pendingMarker) {
	if t.started[pm.name] {
		return
	}
	t.started[pm.name] = true
	t.emitter.StatusUpdate(pm.name, map[string]any{
		"description": pm.name + " agent started",
	})
}

// agentMetadataAllowList names the completion payload fields forwarded
// downstream; anything else (full section payloads and the like) is dropped
// to bound event size.
var agentMetadataAllowList = []string{"duration", "summary", "sectionCount", "pageCount", "planned", "resolved"}

func (t *Translator) handleAgentComplete(pm pendingMarker) {
	if t.completed[pm.name] {
		return
	}
	t.completed[pm.name] = true

	md := map[string]any{"completed": true}
	if pm.payload != "" {
		var data map[string]any
		if err := json.Unmarshal([]byte(pm.payload), &data); err != nil {
			t.parseError(pm, err)
		} else {
			for _, key := range agentMetadataAllowList {
				if v, ok := data[key]; ok {
					md[key] = v
				}
			}
		}
	}
	t.emitter.StatusUpdate(pm.name, md)
}

func (t *Translator) handleTheme(pm pendingMarker) {
	if t.themeEmitted {
		return
	}
	var theme muse.Theme
	if err := json.Unmarshal([]byte(pm.payload), &theme); err != nil {
		t.parseError(pm, err)
		return
	}
	t.themeEmitted = true
	t.emitArtifact("theme", theme, false)
}

func (t *Translator) handleSections(pm pendingMarker) {
	var sections []muse.Section
	if err := json.Unmarshal([]byte(pm.payload), &sections); err != nil {
		t.parseError(pm, err)
		return
	}
	t.emitArtifact("sections", sections, true)
}

func (t *Translator) handleImages(pm pendingMarker) {
	var images []muse.ImageAsset
	if err := json.Unmarshal([]byte(pm.payload), &images); err != nil {
		t.parseError(pm, err)
		return
	}
	t.emitArtifact("images", images, true)
}

func (t *Translator) handleSitemap(full string, pm pendingMarker) {
	if !markerAtLineEnd(full, pm) {
		return
	}
	var sitemap muse.Sitemap
	if err := json.Unmarshal([]byte(pm.payload), &sitemap); err != nil {
		t.parseError(pm, err)
		return
	}
	t.emitArtifact("sitemap", sitemap, true)
}

func (t *Translator) handlePage(pm pendingMarker) {
	var info muse.PageInfo
	if err := json.Unmarshal([]byte(pm.payload), &info); err != nil {
		t.parseError(pm, err)
		return
	}
	if t.seenSlugs[info.Slug] {
		return
	}
	t.seenSlugs[info.Slug] = true
	// Only slug and title: sectionCount and friends stay out of the wire
	// format to bound payload size.
	t.emitter.StatusUpdate("page", map[string]any{
		"slug":  info.Slug,
		"title": info.Title,
	})
}

func (t *Translator) handleUsage(pm pendingMarker) {
	var usage muse.SiteUsage
	if err := json.Unmarshal([]byte(pm.payload), &usage); err != nil {
		t.parseError(pm, err)
		return
	}
	t.emitter.StatusUpdate("usage", map[string]any{
		"description": "generation usage",
		"usage":       usage,
	})
}

// emitArtifact emits an artifact update under the stable id for name.
// Revisioned kinds get a strictly incrementing rev starting at 1.
func (t *Translator) emitArtifact(name string, data any, revisioned bool) {
	id, ok := t.artifactIDs[name]
	if !ok {
		id = uuid.New().String()
		t.artifactIDs[name] = id
	}
	artifact := Artifact{
		ArtifactID: id,
		Name:       name,
		Parts:      []Part{NewDataPart(data)},
	}
	if revisioned {
		t.revs[name]++
		t.emitter.ArtifactUpdate(artifact, WithArtifactMetadata(map[string]any{"rev": t.revs[name]}))
		return
	}
	t.emitter.ArtifactUpdate(artifact)
}

func (t *Translator) parseError(pm pendingMarker, err error) {
	t.log.Warn("marker parse error", "marker", truncate(pm.full, maxMarkerEcho), "error", err)
	if t.onParseError != nil {
		t.onParseError(pm.full, err)
	}
	t.emitter.StatusUpdate("parse_error", map[string]any{
		"description": "failed to parse marker",
		"marker":      truncate(pm.full, maxMarkerEcho),
		"error":       err.Error(),
	})
}

func markerAtLineEnd(full string, pm pendingMarker) bool {
	return marker.AtLineEnd(full, pm.start+len(pm.full))
}

// truncate cuts s to at most n bytes, backing up so a multi-byte rune is
// never split.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var errInvalidJSON = &Error{Code: CodeParseError, Message: "invalid JSON payload"}
