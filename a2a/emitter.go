package a2a

import (
	"github.com/google/uuid"
)

// Emitter constructs protocol events and hands each one to the onEvent sink
// synchronously. Every event carries the task and context ids supplied at
// construction, so callers never re-specify them. Timestamps are generated
// at call time.
type Emitter struct {
	taskID    string
	contextID string
	onEvent   func(StreamResponse)
}

// NewEmitter creates an Emitter bound to one task. onEvent must not be nil.
func NewEmitter(taskID, contextID string, onEvent func(StreamResponse)) *Emitter {
	return &Emitter{taskID: taskID, contextID: contextID, onEvent: onEvent}
}

// TaskID returns the task id events are tagged with.
func (e *Emitter) TaskID() string { return e.taskID }

// ContextID returns the context id events are tagged with.
func (e *Emitter) ContextID() string { return e.contextID }

// StatusUpdate emits a non-final working status for the named step. When
// metadata carries a "description" string it becomes the status message
// text. The step name is folded into the event metadata alongside the rest.
func (e *Emitter) StatusUpdate(step string, metadata map[string]any) {
	md := map[string]any{"step": step}
	var msg *Message
	for k, v := range metadata {
		md[k] = v
	}
	if desc, ok := md["description"].(string); ok && desc != "" {
		m := e.agentMessage(NewTextPart(desc))
		msg = &m
	}
	e.onEvent(StreamResponse{StatusUpdate: &TaskStatusUpdateEvent{
		Kind:      "status-update",
		TaskID:    e.taskID,
		ContextID: e.contextID,
		Status:    TaskStatus{State: TaskStateWorking, Message: msg, Timestamp: Now()},
		Final:     false,
		Metadata:  md,
	}})
}

// ArtifactOption configures an artifact update envelope.
type ArtifactOption func(*TaskArtifactUpdateEvent)

// WithAppend marks the update as appending to the previous chunk.
func WithAppend() ArtifactOption {
	return func(ev *TaskArtifactUpdateEvent) { ev.Append = true }
}

// WithLastChunk marks the update as the artifact's final chunk.
func WithLastChunk() ArtifactOption {
	return func(ev *TaskArtifactUpdateEvent) { ev.LastChunk = true }
}

// WithArtifactMetadata merges entries into the artifact's metadata.
func WithArtifactMetadata(md map[string]any) ArtifactOption {
	return func(ev *TaskArtifactUpdateEvent) {
		if ev.Artifact.Metadata == nil {
			ev.Artifact.Metadata = make(map[string]any, len(md))
		}
		for k, v := range md {
			ev.Artifact.Metadata[k] = v
		}
	}
}

// ArtifactUpdate emits an artifact update. A fresh ArtifactID is generated
// only when the caller did not supply one; callers needing stable identity
// across revisions pass their own id.
func (e *Emitter) ArtifactUpdate(artifact Artifact, opts ...ArtifactOption) {
	if artifact.ArtifactID == "" {
		artifact.ArtifactID = uuid.New().String()
	}
	ev := &TaskArtifactUpdateEvent{
		Kind:      "artifact-update",
		TaskID:    e.taskID,
		ContextID: e.contextID,
		Artifact:  artifact,
	}
	for _, opt := range opts {
		opt(ev)
	}
	e.onEvent(StreamResponse{ArtifactUpdate: ev})
}

// InputRequired emits a non-final input-required status carrying the prompt.
func (e *Emitter) InputRequired(prompt string, metadata map[string]any) {
	msg := e.agentMessage(NewTextPart(prompt))
	e.onEvent(StreamResponse{StatusUpdate: &TaskStatusUpdateEvent{
		Kind:      "status-update",
		TaskID:    e.taskID,
		ContextID: e.contextID,
		Status:    TaskStatus{State: TaskStateInputRequired, Message: &msg, Timestamp: Now()},
		Final:     false,
		Metadata:  metadata,
	}})
}

// Message emits an agent message tagged with the emitter's task and context
// ids and a fresh message id.
func (e *Emitter) Message(parts []Part, metadata map[string]any) {
	msg := e.agentMessage(parts...)
	msg.Metadata = metadata
	e.onEvent(StreamResponse{Message: &msg})
}

// Complete emits the final completed status, optionally carrying a closing
// message.
func (e *Emitter) Complete(msg *Message) {
	e.onEvent(StreamResponse{StatusUpdate: &TaskStatusUpdateEvent{
		Kind:      "status-update",
		TaskID:    e.taskID,
		ContextID: e.contextID,
		Status:    TaskStatus{State: TaskStateCompleted, Message: msg, Timestamp: Now()},
		Final:     true,
	}})
}

// Fail emits the final failed status carrying the error message.
func (e *Emitter) Fail(err error) {
	var taskErr *TaskError
	if err != nil {
		taskErr = &TaskError{Message: err.Error()}
	}
	e.onEvent(StreamResponse{StatusUpdate: &TaskStatusUpdateEvent{
		Kind:      "status-update",
		TaskID:    e.taskID,
		ContextID: e.contextID,
		Status:    TaskStatus{State: TaskStateFailed, Timestamp: Now(), Error: taskErr},
		Final:     true,
	}})
}

// EmitTask emits the full task object verbatim. Used once generation
// concludes to hand back the canonical final state.
func (e *Emitter) EmitTask(task *Task) {
	e.onEvent(StreamResponse{Task: task})
}

func (e *Emitter) agentMessage(parts ...Part) Message {
	msg := NewMessage(MessageRoleAgent, parts...)
	msg.TaskID = &e.taskID
	msg.ContextID = &e.contextID
	return msg
}
