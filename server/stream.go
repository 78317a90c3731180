package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cling-godaddy/muse-sub001/a2a"
	"github.com/cling-godaddy/muse-sub001/builder"
	"github.com/cling-godaddy/muse-sub001/marker"
	"github.com/cling-godaddy/muse-sub001/store"
)

// messageStream handles message/stream: it runs the generation loop and
// relays every A2A event as an SSE frame carrying a JSON-RPC success
// response. Errors before the first frame go back as plain JSON-RPC errors;
// after headers are written the stream can only end early.
func (s *Server) messageStream(w http.ResponseWriter, r *http.Request, id json.RawMessage, raw json.RawMessage) {
	params, rpcErr := parseSendParams(raw)
	if rpcErr != nil {
		s.writeError(w, id, rpcErr)
		return
	}
	if s.gen == nil {
		s.writeError(w, id, a2a.ErrInternal(fmt.Errorf("no generator configured")))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, id, a2a.ErrInternal(fmt.Errorf("streaming unsupported")))
		return
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
	log := s.log.With("task_id", task.ID, "skill", skillID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeFrame := func(result any) {
		payload, err := json.Marshal(rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
		if err != nil {
			log.Error("marshal sse frame", "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	emitter := a2a.NewEmitter(task.ID, task.ContextID, func(ev a2a.StreamResponse) {
		if ev.ArtifactUpdate != nil {
			s.tasks.AddArtifact(task.ID, ev.ArtifactUpdate.Artifact)
		}
		writeFrame(ev)
	})
	translator := a2a.NewTranslator(emitter, a2a.WithTranslatorLogger(log))

	working := s.tasks.Apply(task.ID, store.Update{State: a2a.TaskStateWorking})
	emitter.EmitTask(working)

	prompt := promptText(params.Message)
	chunks := s.gen.Generate(r.Context(), builder.Request{
		Prompt:    prompt,
		SkillID:   skillID,
		ContextID: task.ContextID,
	})

	for chunk := range chunks {
		// Cancellation checkpoint: tasks/cancel flips the stored state,
		// and we stop at the next chunk boundary.
		if current := s.tasks.Get(task.ID); current != nil && current.Status.State == a2a.TaskStateCancelled {
			log.Info("generation cancelled")
			emitter.StatusUpdate("cancelled", map[string]any{"description": "Generation cancelled"})
			emitter.EmitTask(current)
			return
		}
		if chunk.Err != nil {
			log.Error("generation failed", "error", chunk.Err)
			s.tasks.Apply(task.ID, store.Update{
				State: a2a.TaskStateFailed,
				Error: &a2a.TaskError{Message: chunk.Err.Error()},
			})
			emitter.Fail(chunk.Err)
			return
		}
		translator.ProcessChunk(chunk.Text)
	}

	// The channel can also close because tasks/cancel landed after the final
	// chunk, or because the client disconnected and the generator bailed on
	// the request context. Neither is a successful run.
	if current := s.tasks.Get(task.ID); current != nil && current.Status.State == a2a.TaskStateCancelled {
		log.Info("generation cancelled")
		emitter.StatusUpdate("cancelled", map[string]any{"description": "Generation cancelled"})
		emitter.EmitTask(current)
		return
	}
	if err := r.Context().Err(); err != nil {
		log.Info("client disconnected", "error", err)
		cancelled := s.tasks.Apply(task.ID, store.Update{State: a2a.TaskStateCancelled})
		emitter.StatusUpdate("cancelled", map[string]any{"description": "Generation cancelled"})
		emitter.EmitTask(cancelled)
		return
	}

	s.persistSite(r, task, translator.Text(), log)

	final := s.tasks.Apply(task.ID, store.Update{State: a2a.TaskStateCompleted})
	emitter.Complete(nil)
	emitter.EmitTask(final)
	log.Info("generation complete")
}

func promptText(msg *a2a.Message) string {
	for _, part := range msg.Parts {
		if tp, ok := part.(a2a.TextPart); ok {
			return tp.Text
		}
	}
	return ""
}

// persistSite parses the full accumulated stream into site structures and
// stores them keyed by context, so later refine turns can load prior state.
func (s *Server) persistSite(r *http.Request, task *a2a.Task, text string, log *slog.Logger) {
	if s.sites == nil || text == "" {
		return
	}
	result := marker.New(marker.WithLogger(log)).Parse(text, nil)
	site := map[string]any{
		"theme":   result.Theme,
		"sitemap": result.Sitemap,
		"navbar":  result.Navbar,
		"pages":   result.State.Pages,
		"images":  result.State.Images,
	}
	payload, err := json.Marshal(site)
	if err != nil {
		log.Warn("marshal site", "error", err)
		return
	}
	if err := s.sites.Set(r.Context(), "site:"+task.ContextID, payload); err != nil {
		log.Warn("persist site", "error", err)
	}
}
