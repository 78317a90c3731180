package muse

import "context"

// ChatProvider defines the interface for LLM providers. The streaming core
// treats the provider as an opaque collaborator: it only needs completions
// and a token stream, never provider-specific features.
type ChatProvider interface {
	// Chat sends a conversation and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)

	// ChatStream sends a conversation and returns a channel of streaming
	// events. The channel is closed when the stream is complete or an error
	// occurs. Callers should check StreamEvent.Err for any errors.
	ChatStream(ctx context.Context, messages []Message, opts ...Option) (<-chan StreamEvent, error)
}
