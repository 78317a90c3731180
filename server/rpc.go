package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cling-godaddy/muse-sub001/a2a"
	"github.com/cling-godaddy/muse-sub001/builder"
	"github.com/cling-godaddy/muse-sub001/store"
)

// rpcRequest is a JSON-RPC 2.0 request envelope. The id is kept raw so the
// response echoes it byte-for-byte whether it was a number or a string.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *a2a.Error      `json:"error,omitempty"`
}

// zeroID is the id echoed when the request was unparseable.
var zeroID = json.RawMessage("0")

// handleRPC dispatches the single JSON-RPC endpoint. Every failure mode
// resolves to a JSON-RPC error response; the connection stays open.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, zeroID, &a2a.Error{Code: a2a.CodeParseError, Message: "parse error: " + err.Error()})
		return
	}
	id := req.ID
	if len(id) == 0 {
		id = zeroID
	}

	log := s.log.With("method", req.Method)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("rpc handler panic", "panic", rec)
			s.writeError(w, id, &a2a.Error{Code: a2a.CodeInternalError, Message: "internal error"})
		}
	}()

	switch req.Method {
	case "tasks/get":
		res, rpcErr := s.tasksGet(req.Params)
		s.rpcResult(w, id, res, rpcErr)
	case "tasks/cancel":
		res, rpcErr := s.tasksCancel(req.Params)
		s.rpcResult(w, id, res, rpcErr)
	case "message/send":
		res, rpcErr := s.messageSend(req.Params)
		s.rpcResult(w, id, res, rpcErr)
	case "message/stream":
		s.messageStream(w, r, id, req.Params)
	default:
		log.Warn("unknown rpc method")
		s.writeError(w, id, a2a.ErrMethodNotFound(req.Method))
	}
}

func (s *Server) rpcResult(w http.ResponseWriter, id json.RawMessage, result any, err *a2a.Error) {
	if err != nil {
		s.writeError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(w http.ResponseWriter, id json.RawMessage, err *a2a.Error) {
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Error: err})
}

type getParams struct {
	ID            string `json:"id"`
	HistoryLength *int   `json:"historyLength,omitempty"`
}

func (s *Server) tasksGet(raw json.RawMessage) (any, *a2a.Error) {
	var params getParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, a2a.ErrInvalidParams(err.Error())
		}
	}
	if params.ID == "" {
		return nil, a2a.ErrInvalidParams("id is required")
	}

	task := s.tasks.Get(params.ID)
	if task == nil {
		return nil, a2a.ErrTaskNotFound(params.ID)
	}
	if params.HistoryLength != nil {
		if *params.HistoryLength < 0 {
			return nil, a2a.ErrInvalidParams("historyLength must be non-negative")
		}
		if len(task.History) > *params.HistoryLength {
			task.History = task.History[len(task.History)-*params.HistoryLength:]
		}
	}
	return task, nil
}

type cancelParams struct {
	ID string `json:"id"`
}

func (s *Server) tasksCancel(raw json.RawMessage) (any, *a2a.Error) {
	var params cancelParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, a2a.ErrInvalidParams(err.Error())
		}
	}
	if params.ID == "" {
		return nil, a2a.ErrInvalidParams("id is required")
	}

	task := s.tasks.Get(params.ID)
	if task == nil {
		return nil, a2a.ErrTaskNotFound(params.ID)
	}
	if !task.Status.State.IsCancelable() {
		return nil, a2a.ErrTaskNotCancelable(task.Status.State)
	}

	// Flips stored state only; an in-flight generation loop observes the
	// transition at its next between-chunks checkpoint.
	updated := s.tasks.Apply(params.ID, store.Update{State: a2a.TaskStateCancelled})
	if updated == nil {
		return nil, a2a.ErrTaskNotFound(params.ID)
	}
	s.log.Info("task cancelled", "task_id", params.ID)
	return updated, nil
}

type sendParams struct {
	Message  *a2a.Message   `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (s *Server) messageSend(raw json.RawMessage) (any, *a2a.Error) {
	params, rpcErr := parseSendParams(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}

	skillID := inferSkill(params)
	contextID := ""
	if params.Message.ContextID != nil {
		contextID = *params.Message.ContextID
	}

	task := s.tasks.Create(store.CreateParams{
		ContextID:      contextID,
		InitialMessage: params.Message,
		Metadata:       map[string]any{"skillId": skillID},
	})
	s.log.Info("task created", "task_id", task.ID, "skill", skillID)

	// Non-streaming sends complete immediately; the streaming endpoint is
	// where the generation loop attaches.
	s.tasks.Apply(task.ID, store.Update{State: a2a.TaskStateWorking})
	return s.tasks.Apply(task.ID, store.Update{State: a2a.TaskStateCompleted}), nil
}

func parseSendParams(raw json.RawMessage) (*sendParams, *a2a.Error) {
	var params sendParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, a2a.ErrInvalidParams(err.Error())
		}
	}
	if params.Message == nil {
		return nil, a2a.ErrInvalidParams("message is required")
	}
	return &params, nil
}

// inferSkill selects the generation skill: explicit metadata wins, then
// keyword matching on the first text part, then the landing-page default.
func inferSkill(params *sendParams) string {
	if id, ok := params.Metadata["skillId"].(string); ok && id != "" {
		return id
	}

	var text string
	for _, part := range params.Message.Parts {
		if tp, ok := part.(a2a.TextPart); ok {
			text = strings.ToLower(tp.Text)
			break
		}
	}

	for _, kw := range []string{"refine", "edit", "change", "update"} {
		if strings.Contains(text, kw) {
			return builder.SkillRefine
		}
	}
	for _, kw := range []string{"multi-page", "full site", "website"} {
		if strings.Contains(text, kw) {
			return builder.SkillGenerateSite
		}
	}
	return builder.SkillGenerateLanding
}
