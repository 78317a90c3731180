package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	t.Run("simple payload", func(t *testing.T) {
		matches, partial := Find(`before [THEME:{"palette":"ocean"}] after`, NameTheme)
		require.Len(t, matches, 1)
		assert.Equal(t, `{"palette":"ocean"}`, matches[0].Payload)
		assert.Equal(t, `[THEME:{"palette":"ocean"}]`, matches[0].Full)
		assert.Equal(t, -1, partial)
	})

	t.Run("nested brackets close at the right depth", func(t *testing.T) {
		s := `[SECTIONS:[{"id":"hero","content":"use [brackets] freely"}]] tail`
		matches, partial := Find(s, NameSections)
		require.Len(t, matches, 1)
		assert.Equal(t, `[{"id":"hero","content":"use [brackets] freely"}]`, matches[0].Payload)
		assert.Equal(t, -1, partial)
	})

	t.Run("brackets inside JSON strings are ignored", func(t *testing.T) {
		s := `[PAGE:{"slug":"/","title":"a ] b"}]`
		matches, _ := Find(s, NamePage)
		require.Len(t, matches, 1)
		assert.Equal(t, `{"slug":"/","title":"a ] b"}`, matches[0].Payload)
	})

	t.Run("incomplete marker reports partial offset", func(t *testing.T) {
		s := `text [SECTIONS:[{"id":"he`
		matches, partial := Find(s, NameSections)
		assert.Empty(t, matches)
		assert.Equal(t, 5, partial)
	})

	t.Run("multiple occurrences", func(t *testing.T) {
		s := `[PAGE:{"slug":"/"}] mid [PAGE:{"slug":"/about"}]`
		matches, _ := Find(s, NamePage)
		require.Len(t, matches, 2)
		assert.Equal(t, `{"slug":"/"}`, matches[0].Payload)
		assert.Equal(t, `{"slug":"/about"}`, matches[1].Payload)
	})
}

func TestFindAgentMarkers(t *testing.T) {
	s := `[AGENT:theme:start] working [AGENT:theme:complete]{"duration":120,"summary":"done"}`

	starts := FindAgentStarts(s)
	require.Len(t, starts, 1)
	assert.Equal(t, "theme", starts[0].Name)

	completes := FindAgentCompletes(s)
	require.Len(t, completes, 1)
	assert.Equal(t, "theme", completes[0].Name)
	assert.Equal(t, `{"duration":120,"summary":"done"}`, completes[0].Payload)
}

func TestFindAgentCompletes_NoPayload(t *testing.T) {
	completes := FindAgentCompletes(`[AGENT:brief:complete] and text`)
	require.Len(t, completes, 1)
	assert.Empty(t, completes[0].Payload)
	assert.False(t, completes[0].PayloadPartial)
}

func TestFindAgentCompletes_IncompletePayload(t *testing.T) {
	// JSON still streaming in: the marker itself matches, payload is dropped
	// until the tail arrives.
	completes := FindAgentCompletes(`[AGENT:copy:complete]{"summary":"par`)
	require.Len(t, completes, 1)
	assert.Empty(t, completes[0].Payload)
	assert.True(t, completes[0].PayloadPartial)
}

func TestAtLineEnd(t *testing.T) {
	s := "[SITEMAP:{}]  \ntext"
	assert.True(t, AtLineEnd(s, 12))

	assert.True(t, AtLineEnd("[SITEMAP:{}]", 12), "end of buffer counts")
	assert.False(t, AtLineEnd("[SITEMAP:{}] more", 12))
}

func TestStrip(t *testing.T) {
	t.Run("removes complete markers", func(t *testing.T) {
		s := "Building your site.\n[THEME:{\"palette\":\"ocean\"}]\n[AGENT:theme:start]\nAlmost there."
		out := Strip(s)
		assert.NotContains(t, out, "[THEME")
		assert.NotContains(t, out, "[AGENT")
		assert.Contains(t, out, "Building your site.")
		assert.Contains(t, out, "Almost there.")
	})

	t.Run("removes trailing partial marker", func(t *testing.T) {
		out := Strip(`Here is the plan. [SECTIONS:[{"id":"her`)
		assert.Equal(t, "Here is the plan.", out)
	})

	t.Run("removes agent complete payloads", func(t *testing.T) {
		out := Strip(`done [AGENT:copy:complete]{"summary":"five sections"} end`)
		assert.NotContains(t, out, "summary")
		assert.Contains(t, out, "done")
		assert.Contains(t, out, "end")
	})

	t.Run("removes trailing partial agent marker", func(t *testing.T) {
		out := Strip("Styling the sections. [AGENT:co")
		assert.Equal(t, "Styling the sections.", out)
	})

	t.Run("removes streaming-in completion payload", func(t *testing.T) {
		out := Strip(`done [AGENT:copy:complete]{"summary":"fiv`)
		assert.Equal(t, "done", out)
	})

	t.Run("keeps ordinary bracketed prose", func(t *testing.T) {
		out := Strip("see [the docs] for details [note")
		assert.Equal(t, "see [the docs] for details [note", out)
	})

	t.Run("collapses newline runs", func(t *testing.T) {
		out := Strip("a\n[USAGE:{\"inputTokens\":1}]\n\n\n\nb")
		assert.Equal(t, "a\n\nb", out)
	})
}
