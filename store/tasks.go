package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cling-godaddy/muse-sub001/a2a"
	"github.com/google/uuid"
)

const (
	// DefaultTTL is how long a task survives without updates.
	DefaultTTL = 30 * time.Minute
	// DefaultCleanupInterval is how often expired tasks are evicted.
	DefaultCleanupInterval = 5 * time.Minute
)

// Options configures a TaskStore. Zero values take the defaults; negative
// values are rejected.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	Logger          *slog.Logger
}

// TaskStore is an in-memory keyed store of protocol tasks with TTL-based
// expiry. Safe for concurrent use by multiple in-flight requests.
type TaskStore struct {
	mu      sync.RWMutex
	tasks   map[string]*taskEntry
	order   []string // insertion order for List
	ttl     time.Duration
	log     *slog.Logger
	done    chan struct{}
	stopped sync.Once
}

type taskEntry struct {
	task    a2a.Task
	updated time.Time
}

// New creates a TaskStore and starts its cleanup janitor. The store never
// fails after construction; the only error case is invalid options.
func New(opts Options) (*TaskStore, error) {
	if opts.TTL < 0 || opts.CleanupInterval < 0 {
		return nil, fmt.Errorf("store: negative ttl or cleanup interval")
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CleanupInterval == 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &TaskStore{
		tasks: make(map[string]*taskEntry),
		ttl:   opts.TTL,
		log:   opts.Logger,
		done:  make(chan struct{}),
	}
	go s.janitor(opts.CleanupInterval)
	return s, nil
}

// Close stops the cleanup janitor. Idempotent.
func (s *TaskStore) Close() {
	s.stopped.Do(func() { close(s.done) })
}

// CreateParams seeds a new task.
type CreateParams struct {
	ContextID      string
	InitialMessage *a2a.Message
	Metadata       map[string]any
}

// Create allocates a new submitted task at version 1. A missing context id
// gets a fresh one, grouping the task into a new conversation.
func (s *TaskStore) Create(params CreateParams) *a2a.Task {
	if params.ContextID == "" {
		params.ContextID = uuid.New().String()
	}
	task := a2a.NewTask(uuid.New().String(), params.ContextID)
	task.Metadata = params.Metadata
	if params.InitialMessage != nil {
		task.History = []a2a.Message{*params.InitialMessage}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = &taskEntry{task: *task, updated: time.Now()}
	s.order = append(s.order, task.ID)
	return task
}

// Get returns a copy of the task, or nil when the id is unknown.
func (s *TaskStore) Get(id string) *a2a.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.tasks[id]
	if !ok {
		return nil
	}
	return copyTask(&entry.task)
}

// Update mutates a task's status.
type Update struct {
	State   a2a.TaskState
	Message *a2a.Message
	Error   *a2a.TaskError
}

// Apply bumps the task version, overwrites its status, and appends the
// message (when present) to history. Returns nil when the id is unknown;
// callers treat that as not-found, not as a failure.
func (s *TaskStore) Apply(id string, u Update) *a2a.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tasks[id]
	if !ok {
		return nil
	}
	entry.task.Version++
	entry.task.Status = a2a.TaskStatus{
		State:     u.State,
		Message:   u.Message,
		Timestamp: a2a.Now(),
		Error:     u.Error,
	}
	if u.Message != nil {
		entry.task.History = append(entry.task.History, *u.Message)
	}
	entry.updated = time.Now()
	return copyTask(&entry.task)
}

// AddArtifact records an artifact on the task, replacing any prior artifact
// with the same id.
func (s *TaskStore) AddArtifact(id string, artifact a2a.Artifact) *a2a.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tasks[id]
	if !ok {
		return nil
	}
	replaced := false
	for i := range entry.task.Artifacts {
		if entry.task.Artifacts[i].ArtifactID == artifact.ArtifactID {
			entry.task.Artifacts[i] = artifact
			replaced = true
			break
		}
	}
	if !replaced {
		entry.task.Artifacts = append(entry.task.Artifacts, artifact)
	}
	entry.updated = time.Now()
	return copyTask(&entry.task)
}

// Filter selects tasks for List.
type Filter struct {
	ContextID string
	States    []a2a.TaskState
	Limit     int
}

// List returns tasks in insertion order, filtered by optional context id
// and state-set membership, truncated to Limit when positive.
func (s *TaskStore) List(f Filter) []a2a.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []a2a.Task
	for _, id := range s.order {
		entry, ok := s.tasks[id]
		if !ok {
			continue
		}
		if f.ContextID != "" && entry.task.ContextID != f.ContextID {
			continue
		}
		if len(f.States) > 0 && !stateIn(entry.task.Status.State, f.States) {
			continue
		}
		out = append(out, *copyTask(&entry.task))
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// Len returns the number of live tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *TaskStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *TaskStore) evictExpired() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted int
	live := s.order[:0]
	for _, id := range s.order {
		entry, ok := s.tasks[id]
		if !ok {
			continue
		}
		if entry.updated.Before(cutoff) {
			delete(s.tasks, id)
			evicted++
			continue
		}
		live = append(live, id)
	}
	s.order = live
	if evicted > 0 {
		s.log.Debug("evicted expired tasks", "count", evicted, "remaining", len(s.tasks))
	}
}

func stateIn(state a2a.TaskState, states []a2a.TaskState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

// copyTask snapshots a task so callers never share slices with the store.
func copyTask(t *a2a.Task) *a2a.Task {
	cp := *t
	if t.Artifacts != nil {
		cp.Artifacts = make([]a2a.Artifact, len(t.Artifacts))
		copy(cp.Artifacts, t.Artifacts)
	}
	if t.History != nil {
		cp.History = make([]a2a.Message, len(t.History))
		copy(cp.History, t.History)
	}
	return &cp
}
