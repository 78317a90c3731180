package a2a

import (
	"encoding/json"
	"testing"
)

func TestTaskStateClassification(t *testing.T) {
	terminal := []TaskState{TaskStateCompleted, TaskStateFailed, TaskStateCancelled, TaskStateRejected}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%v should be terminal", s)
		}
		if s.IsCancelable() {
			t.Errorf("%v should not be cancelable", s)
		}
	}

	cancelable := []TaskState{TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired}
	for _, s := range cancelable {
		if s.IsTerminal() {
			t.Errorf("%v should not be terminal", s)
		}
		if !s.IsCancelable() {
			t.Errorf("%v should be cancelable", s)
		}
	}
}

func TestMessageUnmarshalDispatchesParts(t *testing.T) {
	raw := `{
		"kind": "message",
		"messageId": "m1",
		"role": "user",
		"parts": [
			{"kind": "text", "text": "build me a site"},
			{"kind": "data", "data": {"palette": "ocean"}},
			{"kind": "file", "file": {"uri": "https://example.test/logo.png"}}
		]
	}`

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(msg.Parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(msg.Parts))
	}
	if tp, ok := msg.Parts[0].(TextPart); !ok || tp.Text != "build me a site" {
		t.Errorf("part 0 = %#v, want text part", msg.Parts[0])
	}
	if _, ok := msg.Parts[1].(DataPart); !ok {
		t.Errorf("part 1 = %#v, want data part", msg.Parts[1])
	}
	if fp, ok := msg.Parts[2].(FilePart); !ok || fp.File.URI == "" {
		t.Errorf("part 2 = %#v, want file part", msg.Parts[2])
	}
}

func TestNewTask(t *testing.T) {
	task := NewTask("t1", "c1")
	if task.Status.State != TaskStateSubmitted {
		t.Errorf("state = %v, want submitted", task.Status.State)
	}
	if task.Version != 1 {
		t.Errorf("version = %d, want 1", task.Version)
	}
	if task.Kind != "task" {
		t.Errorf("kind = %q, want task", task.Kind)
	}
}
