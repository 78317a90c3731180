package marker

import (
	"encoding/json"
	"log/slog"

	muse "github.com/cling-godaddy/muse-sub001"
)

// State is the parser's carried-forward memory across successive calls on a
// growing buffer. A fresh State starts a new parse session; the State
// returned by Parse must be passed back in on the next call.
//
// Theme, Sitemap, Navbar, Sections, Pages and Images parse at most once per
// session: once populated they are never re-parsed from the buffer. Agents
// and usage are rescanned on every call.
type State struct {
	Theme    *muse.Theme
	Sitemap  *muse.Sitemap
	Navbar   *muse.Navbar
	Sections []muse.Section
	Pages    []muse.Page
	Images   []muse.ImageAsset
	Agents   map[string]*muse.AgentState
}

// NewState creates an empty parse state.
func NewState() *State {
	return &State{Agents: make(map[string]*muse.AgentState)}
}

// ResetStructure clears the parsed page/section structure so the next Parse
// call re-extracts it. Used when the orchestrator re-generates structure
// mid-session.
func (s *State) ResetStructure() {
	s.Sections = nil
	s.Pages = nil
}

// Result is what one Parse call extracted. NewSections, NewPages and
// NewImages carry data only on the call that first parsed them.
type Result struct {
	DisplayText string
	Theme       *muse.Theme
	Sitemap     *muse.Sitemap
	Navbar      *muse.Navbar
	NewSections []muse.Section
	NewPages    []muse.Page
	NewImages   []muse.ImageAsset
	Usage       *muse.SiteUsage
	Agents      []muse.AgentState
	State       *State
}

// Parser extracts structured progress data from an accumulated stream
// buffer. A Parser holds no per-session state and is safe to share; session
// state lives in the State passed through Parse.
type Parser struct {
	log    *slog.Logger
	inject muse.ImageInjector
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for malformed marker diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(p *Parser) { p.log = log }
}

// WithImageInjector sets the strategy used to place grouped image assets
// into parsed sections.
func WithImageInjector(inject muse.ImageInjector) Option {
	return func(p *Parser) { p.inject = inject }
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		log:    slog.Default(),
		inject: muse.DefaultImageInjector,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse scans the full accumulated buffer against the previous state and
// returns everything extracted so far plus the display text with markers
// stripped. Callers re-supply the entire buffer on every call, not a delta.
func (p *Parser) Parse(text string, prev *State) Result {
	if prev == nil {
		prev = NewState()
	}
	if prev.Agents == nil {
		prev.Agents = make(map[string]*muse.AgentState)
	}

	res := Result{State: prev}

	p.parseAgents(text, prev)
	res.Usage = p.parseUsage(text)

	if prev.Theme == nil {
		if theme := p.parseTheme(text); theme != nil {
			prev.Theme = theme
		}
	}
	if prev.Sitemap == nil {
		prev.Sitemap = p.parseSitemap(text)
	}
	if prev.Navbar == nil {
		prev.Navbar = p.parseNavbar(text)
	}
	if prev.Images == nil {
		if images := p.parseImages(text); images != nil {
			prev.Images = images
			res.NewImages = images
		}
	}
	if prev.Sections == nil && prev.Pages == nil {
		pages, sections := p.parseStructure(text, prev.Images)
		if sections != nil {
			prev.Sections = sections
			prev.Pages = pages
			res.NewSections = sections
			res.NewPages = pages
		}
	}

	res.Theme = prev.Theme
	res.Sitemap = prev.Sitemap
	res.Navbar = prev.Navbar
	res.Agents = orderedAgents(prev.Agents)
	res.DisplayText = Strip(text)
	return res
}

// parseAgents registers running agents and applies completions. Status never
// regresses: a completed agent stays completed whatever order the start and
// complete markers arrive in.
func (p *Parser) parseAgents(text string, state *State) {
	for _, ev := range FindAgentStarts(text) {
		if _, ok := state.Agents[ev.Name]; !ok {
			state.Agents[ev.Name] = &muse.AgentState{Name: ev.Name, Status: muse.AgentRunning}
		}
	}

	for _, ev := range FindAgentCompletes(text) {
		agent, ok := state.Agents[ev.Name]
		if !ok {
			agent = &muse.AgentState{Name: ev.Name}
			state.Agents[ev.Name] = agent
		}
		agent.Status = muse.AgentComplete

		if ev.Payload == "" {
			continue
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(ev.Payload), &data); err != nil {
			// The agent still completes; only its payload is lost.
			p.log.Warn("malformed agent payload", "agent", ev.Name, "error", err)
			continue
		}
		p.applyAgentData(agent, data, state)
	}
}

func (p *Parser) applyAgentData(agent *muse.AgentState, data map[string]any, state *State) {
	if d, ok := data["duration"].(float64); ok {
		agent.Duration = int(d)
	}
	if s, ok := data["summary"].(string); ok {
		agent.Summary = s
	}
	if agent.Data == nil {
		agent.Data = make(map[string]any)
	}
	for k, v := range data {
		if k == "duration" || k == "summary" {
			continue
		}
		agent.Data[k] = v
	}

	// A completed theme agent carrying both choices is the authoritative
	// theme selection, overriding anything inferred earlier.
	if agent.Name == muse.AgentTheme {
		palette, _ := data["palette"].(string)
		typography, _ := data["typography"].(string)
		if palette != "" && typography != "" {
			state.Theme = &muse.Theme{Palette: palette, Typography: typography}
		}
	}
}

func (p *Parser) parseUsage(text string) *muse.SiteUsage {
	matches, _ := Find(text, NameUsage)
	if len(matches) == 0 {
		return nil
	}
	m := matches[len(matches)-1]
	var usage muse.SiteUsage
	if err := json.Unmarshal([]byte(m.Payload), &usage); err != nil {
		p.log.Warn("malformed usage marker", "error", err)
		return nil
	}
	return &usage
}

func (p *Parser) parseTheme(text string) *muse.Theme {
	matches, _ := Find(text, NameTheme)
	if len(matches) == 0 {
		return nil
	}
	m := matches[0]
	var theme muse.Theme
	if err := json.Unmarshal([]byte(m.Payload), &theme); err != nil {
		// Scalar form: [THEME:ocean] names a palette directly.
		if !json.Valid([]byte(m.Payload)) && !containsBracket(m.Payload) {
			return &muse.Theme{Palette: m.Payload}
		}
		p.log.Warn("malformed theme marker", "error", err)
		return nil
	}
	return &theme
}

func (p *Parser) parseSitemap(text string) *muse.Sitemap {
	matches, _ := Find(text, NameSitemap)
	for _, m := range matches {
		if !AtLineEnd(text, m.End) {
			continue
		}
		var sitemap muse.Sitemap
		if err := json.Unmarshal([]byte(m.Payload), &sitemap); err != nil {
			p.log.Warn("malformed sitemap marker", "error", err)
			continue
		}
		return &sitemap
	}
	return nil
}

func (p *Parser) parseNavbar(text string) *muse.Navbar {
	matches, _ := Find(text, NameNavbar)
	for _, m := range matches {
		if !AtLineEnd(text, m.End) {
			continue
		}
		var navbar muse.Navbar
		if err := json.Unmarshal([]byte(m.Payload), &navbar); err != nil {
			p.log.Warn("malformed navbar marker", "error", err)
			continue
		}
		return &navbar
	}
	return nil
}

func (p *Parser) parseImages(text string) []muse.ImageAsset {
	matches, _ := Find(text, NameImages)
	if len(matches) == 0 {
		return nil
	}
	var images []muse.ImageAsset
	if err := json.Unmarshal([]byte(matches[0].Payload), &images); err != nil {
		p.log.Warn("malformed images marker", "error", err)
		return nil
	}
	return images
}

// parseStructure extracts the page/section structure. The multi-page form
// pairs each [PAGE:...] marker with the [SECTIONS:...] block at the same
// index; when the counts disagree, the first sections block alone defines an
// implicit "/" page. Returns nil sections when nothing parsed, so a later
// call retries once more of the stream has arrived.
func (p *Parser) parseStructure(text string, images []muse.ImageAsset) ([]muse.Page, []muse.Section) {
	sectionMatches, _ := Find(text, NameSections)
	if len(sectionMatches) == 0 {
		return nil, nil
	}
	pageMatches, _ := Find(text, NamePage)

	grouped := groupImages(images)

	if len(pageMatches) > 0 && len(pageMatches) == len(sectionMatches) {
		var pages []muse.Page
		var all []muse.Section
		for i, pm := range pageMatches {
			var info muse.PageInfo
			if err := json.Unmarshal([]byte(pm.Payload), &info); err != nil {
				p.log.Warn("malformed page marker", "error", err)
				continue
			}
			sections, ok := p.parseSectionBlock(sectionMatches[i].Payload, grouped)
			if !ok {
				continue
			}
			pages = append(pages, muse.Page{Slug: info.Slug, Title: info.Title, Sections: sections})
			all = append(all, sections...)
		}
		if all == nil {
			return nil, nil
		}
		return pages, all
	}

	sections, ok := p.parseSectionBlock(sectionMatches[0].Payload, grouped)
	if !ok {
		return nil, nil
	}
	return []muse.Page{{Slug: "/", Sections: sections}}, sections
}

func (p *Parser) parseSectionBlock(payload string, grouped map[string][]muse.ImageAsset) ([]muse.Section, bool) {
	var sections []muse.Section
	if err := json.Unmarshal([]byte(payload), &sections); err != nil {
		p.log.Warn("malformed sections marker", "error", err)
		return nil, false
	}
	for i := range sections {
		if imgs := grouped[sections[i].ID]; len(imgs) > 0 {
			p.inject(&sections[i], imgs)
		}
	}
	return sections, true
}

func groupImages(images []muse.ImageAsset) map[string][]muse.ImageAsset {
	grouped := make(map[string][]muse.ImageAsset)
	for _, img := range images {
		if img.SectionID != "" {
			grouped[img.SectionID] = append(grouped[img.SectionID], img)
		}
	}
	return grouped
}

// orderedAgents returns tracked agents in fixed display priority order.
func orderedAgents(agents map[string]*muse.AgentState) []muse.AgentState {
	var out []muse.AgentState
	for _, name := range muse.AgentOrder {
		if a, ok := agents[name]; ok {
			out = append(out, *a)
		}
	}
	return out
}

func containsBracket(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{', '}', '[', ']', '"':
			return true
		}
	}
	return false
}
