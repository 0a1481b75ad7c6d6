package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kdimtricp/vidagent/internal/display"
	"github.com/kdimtricp/vidagent/internal/tools"
)

type Deps struct {
	Backend  Backend
	Ledger   Ledger
	Registry *tools.Registry
	Watcher  *display.Watcher
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	proxy := NewProxyHandlers(deps.Backend, deps.Ledger)
	r.Post("/api/video-analysis", proxy.StartAnalysisHandler)
	r.Get("/api/video-analysis", proxy.QueryHandler)

	if deps.Registry != nil {
		toolHandlers := NewToolHandlers(deps.Registry)
		r.Get("/api/tools", toolHandlers.ListToolsHandler)
		r.Post("/api/tools/{name}", toolHandlers.InvokeToolHandler)
	}

	sessions := NewSessionHandlers(deps.Watcher, deps.Ledger)
	r.Get("/api/sessions", sessions.ListSessionsHandler)
	if deps.Watcher != nil {
		r.Get("/sessions/{sessionID}", sessions.SessionPageHandler)
		r.Get("/sessions/{sessionID}/stream", sessions.SessionStreamHandler)
	}

	return r
}
