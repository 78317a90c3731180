package a2a

import (
	"errors"
	"testing"
)

func collectEvents() (*[]StreamResponse, func(StreamResponse)) {
	var events []StreamResponse
	return &events, func(ev StreamResponse) { events = append(events, ev) }
}

func TestEmitter_Identity(t *testing.T) {
	events, sink := collectEvents()
	e := NewEmitter("task-1", "ctx-1", sink)

	if e.TaskID() != "task-1" {
		t.Errorf("TaskID = %q, want task-1", e.TaskID())
	}
	if e.ContextID() != "ctx-1" {
		t.Errorf("ContextID = %q, want ctx-1", e.ContextID())
	}

	e.StatusUpdate("theme", nil)
	ev := (*events)[0].StatusUpdate
	if ev.TaskID != "task-1" || ev.ContextID != "ctx-1" {
		t.Errorf("event ids = %q/%q, want task-1/ctx-1", ev.TaskID, ev.ContextID)
	}
}

func TestEmitter_StatusUpdate(t *testing.T) {
	events, sink := collectEvents()
	e := NewEmitter("task-1", "ctx-1", sink)

	e.StatusUpdate("copy", map[string]any{"description": "copy agent started", "extra": 1})

	ev := (*events)[0].StatusUpdate
	if ev == nil {
		t.Fatal("expected status update")
	}
	if ev.Status.State != TaskStateWorking {
		t.Errorf("state = %v, want working", ev.Status.State)
	}
	if ev.Final {
		t.Error("status update should not be final")
	}
	if ev.Metadata["step"] != "copy" {
		t.Errorf("step = %v, want copy", ev.Metadata["step"])
	}
	if ev.Metadata["extra"] != 1 {
		t.Errorf("extra metadata lost")
	}
	if ev.Status.Message == nil {
		t.Fatal("description should become the status message")
	}
	tp, ok := ev.Status.Message.Parts[0].(TextPart)
	if !ok || tp.Text != "copy agent started" {
		t.Errorf("message text = %v, want description", ev.Status.Message.Parts[0])
	}
	if ev.Status.Timestamp == "" {
		t.Error("timestamp missing")
	}
}

func TestEmitter_ArtifactUpdate(t *testing.T) {
	events, sink := collectEvents()
	e := NewEmitter("task-1", "ctx-1", sink)

	e.ArtifactUpdate(Artifact{Name: "theme", Parts: []Part{NewDataPart(map[string]any{"palette": "ocean"})}})

	ev := (*events)[0].ArtifactUpdate
	if ev == nil {
		t.Fatal("expected artifact update")
	}
	if ev.Artifact.ArtifactID == "" {
		t.Error("artifact id should be generated when absent")
	}
	if ev.Artifact.Name != "theme" {
		t.Errorf("name = %q, want theme", ev.Artifact.Name)
	}

	// A supplied id is preserved.
	e.ArtifactUpdate(Artifact{ArtifactID: "stable-id", Name: "sections"}, WithArtifactMetadata(map[string]any{"rev": 2}), WithLastChunk())
	ev = (*events)[1].ArtifactUpdate
	if ev.Artifact.ArtifactID != "stable-id" {
		t.Errorf("artifact id = %q, want stable-id", ev.Artifact.ArtifactID)
	}
	if ev.Artifact.Metadata["rev"] != 2 {
		t.Errorf("rev = %v, want 2", ev.Artifact.Metadata["rev"])
	}
	if !ev.LastChunk {
		t.Error("LastChunk option not applied")
	}
}

func TestEmitter_CompleteAndFail(t *testing.T) {
	events, sink := collectEvents()
	e := NewEmitter("task-1", "ctx-1", sink)

	e.Complete(nil)
	done := (*events)[0].StatusUpdate
	if done.Status.State != TaskStateCompleted || !done.Final {
		t.Errorf("complete = %v final=%v, want completed/final", done.Status.State, done.Final)
	}

	e.Fail(errors.New("provider exploded"))
	failed := (*events)[1].StatusUpdate
	if failed.Status.State != TaskStateFailed || !failed.Final {
		t.Errorf("fail = %v final=%v, want failed/final", failed.Status.State, failed.Final)
	}
	if failed.Status.Error == nil || failed.Status.Error.Message != "provider exploded" {
		t.Errorf("error = %+v, want message carried", failed.Status.Error)
	}
}

func TestEmitter_InputRequired(t *testing.T) {
	events, sink := collectEvents()
	e := NewEmitter("task-1", "ctx-1", sink)

	e.InputRequired("Which palette?", map[string]any{"choices": []string{"ocean", "forest"}})
	ev := (*events)[0].StatusUpdate
	if ev.Status.State != TaskStateInputRequired {
		t.Errorf("state = %v, want input-required", ev.Status.State)
	}
	if ev.Final {
		t.Error("input-required should not be final")
	}
	if ev.Status.Message == nil {
		t.Error("prompt should be carried as a message")
	}
}

func TestEmitter_EmitTask(t *testing.T) {
	events, sink := collectEvents()
	e := NewEmitter("task-1", "ctx-1", sink)

	task := NewTask("task-1", "ctx-1")
	e.EmitTask(task)
	if (*events)[0].Task != task {
		t.Error("task should be passed through verbatim")
	}
}
