package builder

// Skill identifiers advertised on the agent card and inferred from
// incoming messages.
const (
	SkillGenerateLanding = "generate_landing"
	SkillGenerateSite    = "generate_site"
	SkillRefine          = "refine"
)

const markerContract = `Report progress with bracketed markers on their own lines:
[AGENT:<name>:start] when a sub-task begins, [AGENT:<name>:complete]{...} when
it finishes, then [THEME:{...}], [SITEMAP:{...}], [NAVBAR:{...}],
[PAGE:{...}] with a following [SECTIONS:[...]] per page, [IMAGES:[...]],
and finally [USAGE:{...}]. Put narration between markers as plain text.`

// systemPrompt returns the system prompt for a skill. Unknown skills fall
// back to the landing-page prompt.
func systemPrompt(skillID string) string {
	switch skillID {
	case SkillGenerateSite:
		return "You are a website builder producing a complete multi-page site.\n" + markerContract
	case SkillRefine:
		return "You are a website builder refining an existing site per the user's instructions. Re-emit only the changed structures.\n" + markerContract
	default:
		return "You are a website builder producing a single landing page.\n" + markerContract
	}
}
