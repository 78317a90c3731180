package a2a

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cling-godaddy/muse-sub001/retry"
)

func rpcTestServer(t *testing.T, handler func(method string, params json.RawMessage) (any, *Error)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JSONRPC string          `json:"jsonrpc"`
			ID      json.RawMessage `json:"id"`
			Method  string          `json:"method"`
			Params  json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": json.RawMessage(req.ID)}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SendText(t *testing.T) {
	srv := rpcTestServer(t, func(method string, params json.RawMessage) (any, *Error) {
		if method != "message/send" {
			t.Errorf("method = %q, want message/send", method)
		}
		var p SendMessageRequest
		if err := json.Unmarshal(params, &p); err != nil {
			t.Fatalf("params: %v", err)
		}
		tp, ok := p.Message.Parts[0].(TextPart)
		if !ok || tp.Text != "build a bakery site" {
			t.Errorf("part = %#v, want the sent text", p.Message.Parts[0])
		}
		return NewTask("task-1", "ctx-1"), nil
	})

	client := NewClient(srv.URL)
	task, err := client.SendText(context.Background(), "build a bakery site")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if task.ID != "task-1" {
		t.Errorf("task id = %q, want task-1", task.ID)
	}
	if task.Status.State != TaskStateSubmitted {
		t.Errorf("state = %v, want submitted", task.Status.State)
	}
}

func TestClient_GetTask(t *testing.T) {
	srv := rpcTestServer(t, func(method string, params json.RawMessage) (any, *Error) {
		if method != "tasks/get" {
			t.Errorf("method = %q, want tasks/get", method)
		}
		var p map[string]any
		json.Unmarshal(params, &p)
		if p["id"] != "task-1" {
			t.Errorf("id param = %v, want task-1", p["id"])
		}
		if p["historyLength"] != float64(5) {
			t.Errorf("historyLength = %v, want 5", p["historyLength"])
		}
		task := NewTask("task-1", "ctx-1")
		task.Artifacts = []Artifact{{ArtifactID: "a1", Name: "theme", Parts: []Part{NewDataPart(map[string]any{"palette": "ocean"})}}}
		return task, nil
	})

	client := NewClient(srv.URL)
	task, err := client.GetTask(context.Background(), "task-1", 5)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if len(task.Artifacts) != 1 {
		t.Fatalf("artifacts = %d, want 1", len(task.Artifacts))
	}
	if _, ok := task.Artifacts[0].Parts[0].(DataPart); !ok {
		t.Errorf("artifact part = %#v, want data part", task.Artifacts[0].Parts[0])
	}
}

func TestClient_RPCErrorSurfaces(t *testing.T) {
	srv := rpcTestServer(t, func(method string, _ json.RawMessage) (any, *Error) {
		return nil, ErrTaskNotFound("nope")
	})

	client := NewClient(srv.URL, WithRetry(retry.Disabled()))
	_, err := client.CancelTask(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error")
	}
	rpcErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("err = %T, want *Error", err)
	}
	if rpcErr.Code != CodeTaskNotFound {
		t.Errorf("code = %d, want %d", rpcErr.Code, CodeTaskNotFound)
	}
}

func TestClient_RetriesTransportFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": "1", "result": NewTask("task-1", "ctx-1")})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRetry(retry.Config{MaxAttempts: 5, Multiplier: 1}))
	task, err := client.SendText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if task.ID != "task-1" {
		t.Errorf("task id = %q", task.ID)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}
