package builder

import (
	"context"

	muse "github.com/cling-godaddy/muse-sub001"
	"github.com/cling-godaddy/muse-sub001/retry"
)

// Chunk is one unit of streamed generation output. Err is set on the final
// chunk when the stream ended abnormally; the channel closes either way.
type Chunk struct {
	Text string
	Err  error
}

// Request describes one generation run.
type Request struct {
	// Prompt is the user's instruction text.
	Prompt string
	// SkillID selects the generation mode: generate_landing, generate_site,
	// or refine.
	SkillID string
	// ContextID groups the run into a conversation.
	ContextID string
}

// Generator produces the marker-annotated text stream for a request. The
// returned channel closes when generation completes, fails, or ctx is
// cancelled.
type Generator interface {
	Generate(ctx context.Context, req Request) <-chan Chunk
}

// chunkBuffer bounds the producer's lead over the consumer.
const chunkBuffer = 64

// ProviderGenerator generates sites by streaming from a chat provider.
// Stream establishment is retried on transient provider errors; individual
// chunks are not.
type ProviderGenerator struct {
	provider muse.ChatProvider
	opts     []muse.Option
	retry    retry.Config
}

// NewProviderGenerator creates a Generator backed by the given provider.
// opts are applied to every request (model selection, token limits).
func NewProviderGenerator(provider muse.ChatProvider, opts ...muse.Option) *ProviderGenerator {
	return &ProviderGenerator{provider: provider, opts: opts, retry: retry.DefaultConfig()}
}

// WithRetry overrides the retry policy for stream establishment.
func (g *ProviderGenerator) WithRetry(cfg retry.Config) *ProviderGenerator {
	g.retry = cfg
	return g
}

// Generate streams provider deltas as chunks. Provider errors surface as a
// final chunk with Err set.
func (g *ProviderGenerator) Generate(ctx context.Context, req Request) <-chan Chunk {
	out := make(chan Chunk, chunkBuffer)

	go func() {
		defer close(out)

		messages := []muse.Message{
			{Role: muse.RoleSystem, Content: systemPrompt(req.SkillID)},
			{Role: muse.RoleUser, Content: req.Prompt},
		}

		events, err := retry.DoStream(ctx, g.retry, func() (<-chan muse.StreamEvent, error) {
			return g.provider.ChatStream(ctx, messages, g.opts...)
		})
		if err != nil {
			out <- Chunk{Err: err}
			return
		}

		for ev := range events {
			if ev.Err != nil {
				out <- Chunk{Err: ev.Err}
				return
			}
			if ev.Delta == "" {
				continue
			}
			select {
			case out <- Chunk{Text: ev.Delta}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

var _ Generator = (*ProviderGenerator)(nil)
