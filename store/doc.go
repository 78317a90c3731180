// Package store provides task state management for the builder.
//
// The [TaskStore] is the only shared mutable resource in the system: every
// in-flight request reads and writes tasks through it, and a background
// janitor evicts tasks that have gone unmodified past their TTL. All
// operations are safe for concurrent use; updates to one task are
// serialized, so a version bump is never lost.
//
// The [Adapter] interface abstracts key-value persistence for generated
// sites. [MemoryAdapter] is the in-process default; production deployments
// swap in a database-backed implementation.
package store
