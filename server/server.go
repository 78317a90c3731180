package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cling-godaddy/muse-sub001/a2a"
	"github.com/cling-godaddy/muse-sub001/builder"
	"github.com/cling-godaddy/muse-sub001/store"
)

// Config configures a Server.
type Config struct {
	// BaseURL is the externally visible URL advertised on the agent card.
	BaseURL string
	// Tasks is the shared task store. Required.
	Tasks *store.TaskStore
	// Generator produces site generation streams. Required for
	// message/stream; message/send works without one.
	Generator builder.Generator
	// Sites persists finished site payloads. Optional.
	Sites store.Adapter
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Server exposes the builder over the A2A protocol.
type Server struct {
	baseURL string
	tasks   *store.TaskStore
	gen     builder.Generator
	sites   store.Adapter
	log     *slog.Logger
}

// New creates a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Tasks == nil {
		return nil, fmt.Errorf("server: task store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		baseURL: cfg.BaseURL,
		tasks:   cfg.Tasks,
		gen:     cfg.Generator,
		sites:   cfg.Sites,
		log:     cfg.Logger,
	}, nil
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /a2a", s.handleRPC)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("GET /.well-known/agent-card.json", s.handleAgentCard)
	mux.HandleFunc("GET /health", handleHealth)
	return corsMiddleware(mux)
}

// handleListTasks is a non-protocol convenience listing:
// GET /tasks?contextId=&status=&limit=
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.Filter{ContextID: q.Get("contextId")}
	if status := q.Get("status"); status != "" {
		for _, st := range strings.Split(status, ",") {
			filter.States = append(filter.States, a2a.TaskState(strings.TrimSpace(st)))
		}
	}
	if limit := q.Get("limit"); limit != "" {
		fmt.Sscanf(limit, "%d", &filter.Limit)
	}

	tasks := s.tasks.List(filter)
	if tasks == nil {
		tasks = []a2a.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	card := a2a.AgentCard{
		ProtocolVersion:    "0.3.0",
		Name:               "muse",
		Description:        "AI website builder: generates and refines page content with streamed progress",
		URL:                s.baseURL,
		Version:            "1.0.0",
		Capabilities:       map[string]any{"streaming": true},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"application/json"},
		Skills: []a2a.AgentSkill{
			{ID: builder.SkillGenerateLanding, Name: "Generate landing page", Tags: []string{"generation"}},
			{ID: builder.SkillGenerateSite, Name: "Generate multi-page site", Tags: []string{"generation"}},
			{ID: builder.SkillRefine, Name: "Refine existing content", Tags: []string{"refinement"}},
		},
	}
	writeJSON(w, http.StatusOK, card)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
