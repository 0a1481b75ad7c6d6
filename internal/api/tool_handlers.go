package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kdimtricp/vidagent/internal/tools"
)

type ToolHandlers struct {
	registry *tools.Registry
}

func NewToolHandlers(registry *tools.Registry) *ToolHandlers {
	return &ToolHandlers{registry: registry}
}

// InvokeToolHandler answers 200 with the tool's Result even when the tool
// failed; only an unknown tool name is an HTTP error.
func (h *ToolHandlers) InvokeToolHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request")
		return
	}

	result, err := h.registry.Invoke(r.Context(), name, body)
	if errors.Is(err, tools.ErrUnknownTool) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ToolHandlers) ListToolsHandler(w http.ResponseWriter, r *http.Request) {
	type toolInfo struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	}

	var out []toolInfo
	for _, t := range h.registry.Tools() {
		out = append(out, toolInfo{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
	}
	writeJSON(w, http.StatusOK, out)
}
