package muse

// Section represents one block of a generated page (hero, features, pricing,
// and so on). Content is a free-form bag whose shape depends on Type/Preset;
// the streaming core never inspects it beyond passing it through.
type Section struct {
	ID      string         `json:"id,omitempty"`
	Type    string         `json:"type"`
	Preset  string         `json:"preset,omitempty"`
	Content map[string]any `json:"content,omitempty"`
	Images  []ImageAsset   `json:"images,omitempty"`
}

// Page represents one generated page of a site.
type Page struct {
	Slug     string    `json:"slug"`
	Title    string    `json:"title,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

// PageInfo is the lightweight page descriptor carried by [PAGE:...] markers,
// emitted before the page's sections arrive.
type PageInfo struct {
	Slug         string `json:"slug"`
	Title        string `json:"title,omitempty"`
	SectionCount int    `json:"sectionCount,omitempty"`
}

// Theme represents the visual identity chosen for a site.
type Theme struct {
	Palette    string `json:"palette,omitempty"`
	Typography string `json:"typography,omitempty"`
	Mode       string `json:"mode,omitempty"`
}

// Defined reports whether a theme selection has been made.
func (t Theme) Defined() bool {
	return t.Palette != "" || t.Typography != ""
}

// Sitemap describes the planned page structure of a site.
type Sitemap struct {
	Pages []SitemapPage `json:"pages"`
}

// SitemapPage is one entry in a sitemap.
type SitemapPage struct {
	Slug        string `json:"slug"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Navbar describes the site navigation.
type Navbar struct {
	Brand string    `json:"brand,omitempty"`
	Links []NavLink `json:"links,omitempty"`
}

// NavLink is a single navigation entry.
type NavLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// ImageAsset is an image resolved (or planned) for a section. SectionID
// associates the asset with its target section.
type ImageAsset struct {
	SectionID string `json:"sectionId,omitempty"`
	Slot      string `json:"slot,omitempty"`
	URL       string `json:"url,omitempty"`
	Alt       string `json:"alt,omitempty"`
	Query     string `json:"query,omitempty"`
}

// SiteUsage aggregates token and cost counters for a generation, carried by
// the [USAGE:...] marker near the end of a stream.
type SiteUsage struct {
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	CostUSD      float64 `json:"costUsd,omitempty"`
	DurationMS   int     `json:"durationMs,omitempty"`
	Model        string  `json:"model,omitempty"`
}

// ImageInjector places grouped image assets into a parsed section. The
// content model supplies the strategy; the parser only calls it. The default
// appends the assets to the section's Images slice.
type ImageInjector func(section *Section, images []ImageAsset)

// DefaultImageInjector attaches assets to the section as-is.
func DefaultImageInjector(section *Section, images []ImageAsset) {
	section.Images = append(section.Images, images...)
}
