// Package a2a implements the Agent-to-Agent (A2A) protocol surface of the
// site builder: the wire types, the event emitter, and the translator that
// turns the marker stream into protocol events.
//
// A2A is an open protocol enabling communication between AI agent systems.
// It uses JSON-RPC 2.0 over HTTP(S) with streaming via Server-Sent Events
// (SSE). This package provides:
//
//   - Core types: [Message], [Task], [TaskState], [Artifact], Part types,
//     and the [StreamResponse] union emitted over SSE
//   - [Emitter]: constructs protocol events from simple method calls, each
//     carrying the task and context ids supplied at construction
//   - [Translator]: feeds raw marker-text chunks into an Emitter, applying
//     per-artifact consistency policy (first-wins theme, last-wins revisions
//     for sections/images/sitemap) and deduplicating page notifications
//   - [Client]: a JSON-RPC client for calling a remote builder
//   - JSON-RPC error codes and the [Error] type used by the transport
//
// # Task Lifecycle
//
// Tasks progress submitted → working → {completed | failed | cancelled |
// input-required | rejected | auth-required}. Completed, failed, cancelled
// and rejected are terminal; only submitted, working and input-required are
// cancelable.
//
// # Thread Safety
//
// The Translator is NOT safe for concurrent use; each stream gets its own
// instance. The Emitter is stateless per call and safe to share within one
// stream's goroutine.
//
// Protocol reference: https://a2a-protocol.org
package a2a
