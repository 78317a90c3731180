// Package server binds the builder to HTTP: a single JSON-RPC 2.0 endpoint
// dispatching tasks/get, tasks/cancel, message/send and message/stream (the
// last streamed as Server-Sent Events), plus agent-card discovery, a task
// listing endpoint, and a health check.
//
// Each SSE data line is a JSON-RPC success response whose result is one
// a2a.StreamResponse, sharing the original request id. Protocol errors are
// JSON-RPC error objects; the connection stays usable after any of them.
package server
