// Package builder drives site generation: it turns a user request into a
// stream of marker-annotated text chunks that the a2a translator consumes.
//
// The [Generator] interface is the seam between the transport and the LLM
// layer. [ProviderGenerator] is the production implementation backed by a
// [muse.ChatProvider]; tests substitute scripted generators. Chunks arrive
// on a bounded channel that closes when generation ends, which gives the
// consuming loop a natural place to observe cancellation between chunks.
package builder
