package builder

import (
	"context"
	"errors"
	"testing"

	muse "github.com/cling-godaddy/muse-sub001"
	"github.com/cling-godaddy/muse-sub001/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider replays scripted stream events and records the messages it
// was called with.
type fakeProvider struct {
	events   []muse.StreamEvent
	err      error
	failures int // ChatStream errors returned before succeeding
	calls    int
	messages []muse.Message
}

func (p *fakeProvider) Chat(_ context.Context, _ []muse.Message, _ ...muse.Option) (*muse.Response, error) {
	return nil, errors.New("not used")
}

func (p *fakeProvider) ChatStream(_ context.Context, messages []muse.Message, _ ...muse.Option) (<-chan muse.StreamEvent, error) {
	p.calls++
	p.messages = messages
	if p.err != nil {
		return nil, p.err
	}
	if p.calls <= p.failures {
		return nil, errors.New("503 service unavailable")
	}
	ch := make(chan muse.StreamEvent, len(p.events))
	for _, ev := range p.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func collect(t *testing.T, ch <-chan Chunk) []Chunk {
	t.Helper()
	var chunks []Chunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	return chunks
}

func TestGenerate_ForwardsDeltas(t *testing.T) {
	p := &fakeProvider{events: []muse.StreamEvent{
		{Delta: "[AGENT:brief:start]"},
		{Delta: "Building"},
		{Done: true, Response: &muse.Response{Content: "done"}},
	}}
	g := NewProviderGenerator(p)

	chunks := collect(t, g.Generate(context.Background(), Request{Prompt: "a bakery", SkillID: SkillGenerateLanding}))

	require.Len(t, chunks, 2, "empty deltas and the done event are dropped")
	assert.Equal(t, "[AGENT:brief:start]", chunks[0].Text)
	assert.Equal(t, "Building", chunks[1].Text)
}

func TestGenerate_PromptAssembly(t *testing.T) {
	p := &fakeProvider{}
	g := NewProviderGenerator(p)

	collect(t, g.Generate(context.Background(), Request{Prompt: "a bakery site", SkillID: SkillGenerateSite}))

	require.Len(t, p.messages, 2)
	assert.Equal(t, muse.RoleSystem, p.messages[0].Role)
	assert.Contains(t, p.messages[0].Content, "multi-page")
	assert.Equal(t, muse.RoleUser, p.messages[1].Role)
	assert.Equal(t, "a bakery site", p.messages[1].Content)
}

func TestGenerate_StreamErrorSurfaces(t *testing.T) {
	p := &fakeProvider{events: []muse.StreamEvent{
		{Delta: "partial"},
		{Err: errors.New("connection dropped")},
	}}
	g := NewProviderGenerator(p)

	chunks := collect(t, g.Generate(context.Background(), Request{Prompt: "x"}))

	require.Len(t, chunks, 2)
	require.Error(t, chunks[1].Err)
	assert.Contains(t, chunks[1].Err.Error(), "connection dropped")
}

func TestGenerate_EstablishErrorSurfaces(t *testing.T) {
	p := &fakeProvider{err: errors.New("invalid api key")}
	g := NewProviderGenerator(p).WithRetry(retry.Disabled())

	chunks := collect(t, g.Generate(context.Background(), Request{Prompt: "x"}))

	require.Len(t, chunks, 1)
	require.Error(t, chunks[0].Err)
}

func TestGenerate_RetriesTransientEstablishFailure(t *testing.T) {
	p := &fakeProvider{
		failures: 2,
		events:   []muse.StreamEvent{{Delta: "ok"}},
	}
	g := NewProviderGenerator(p).WithRetry(retry.Config{MaxAttempts: 3, Multiplier: 1})

	chunks := collect(t, g.Generate(context.Background(), Request{Prompt: "x"}))

	require.Len(t, chunks, 1)
	assert.Equal(t, "ok", chunks[0].Text)
	assert.Equal(t, 3, p.calls)
}

func TestSystemPrompt(t *testing.T) {
	assert.Contains(t, systemPrompt(SkillGenerateLanding), "landing")
	assert.Contains(t, systemPrompt(SkillRefine), "refining")
	assert.Contains(t, systemPrompt("unknown"), "landing", "unknown skills fall back to the landing prompt")
}
