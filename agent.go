package muse

// AgentStatus represents the lifecycle of one named generation sub-task.
type AgentStatus string

const (
	AgentPending  AgentStatus = "pending"
	AgentRunning  AgentStatus = "running"
	AgentComplete AgentStatus = "complete"
)

// Known agent names, in display priority order. Agents run concurrently
// upstream so their markers interleave arbitrarily in the stream; display
// ordering follows this list, not arrival order.
const (
	AgentBrief     = "brief"
	AgentSitemap   = "sitemap"
	AgentStructure = "structure"
	AgentTheme     = "theme"
	AgentPages     = "pages"
	AgentCopy      = "copy"
	AgentImage     = "image"
)

// AgentOrder is the fixed priority used when returning agents as a list.
var AgentOrder = []string{AgentBrief, AgentSitemap, AgentTheme, AgentPages, AgentCopy, AgentImage}

// AgentState tracks one named concurrent sub-task observed in the stream.
// Status never regresses: once an agent is complete it stays complete,
// whatever order its markers arrive in.
type AgentState struct {
	Name     string         `json:"name"`
	Status   AgentStatus    `json:"status"`
	Summary  string         `json:"summary,omitempty"`
	Duration int            `json:"duration,omitempty"` // milliseconds
	Data     map[string]any `json:"data,omitempty"`
}
