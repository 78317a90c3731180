// Package marker parses the bracketed progress markers embedded in a site
// generation stream.
//
// The orchestration layer interleaves markers such as [AGENT:theme:start],
// [SECTIONS:[...]] and [USAGE:{...}] with free-form narration text. The
// parser is incremental: callers re-supply the entire accumulated buffer as
// more text arrives, together with the State returned by the previous call,
// and the parser extracts only what is new. Structured payloads (sections,
// pages, images, sitemap, navbar, theme) parse once per session; agent and
// usage markers are rescanned on every call.
//
// Malformed JSON inside a marker never fails a parse. The marker's
// structured effect is skipped and logged, but the marker text is still
// stripped from the returned display text.
package marker
