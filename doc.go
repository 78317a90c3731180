// Package muse defines the shared content model and provider interface for
// the muse site builder.
//
// The builder generates websites by streaming text from an LLM provider. The
// stream carries bracketed progress markers that the [marker] package parses
// into structured data and the [a2a] package translates into Agent-to-Agent
// (A2A) protocol events.
//
// This root package holds the types every layer agrees on:
//
//   - Content types: [Section], [Page], [Theme], [Sitemap], [Navbar], [ImageAsset]
//   - Progress types: [AgentState], [SiteUsage]
//   - Provider types: [ChatProvider], [Message], [StreamEvent]
//
// Concrete providers live under provider/ (anthropic, openai, google). The
// HTTP transport lives in the server package, task persistence in the store
// package, and the generation loop in the builder package.
package muse
