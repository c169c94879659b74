package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"opendart/internal/corpcode"
	"opendart/internal/mcp"
)

// maxCallBody caps POST /tools/{name} request bodies.
const maxCallBody = 1 << 20

// ToolsHandler serves the plain JSON tool surface.
type ToolsHandler struct {
	registry *mcp.Registry
	log      logrus.FieldLogger
}

func NewToolsHandler(registry *mcp.Registry, log logrus.FieldLogger) *ToolsHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ToolsHandler{registry: registry, log: log.WithField("component", "http")}
}

// HandleList serves GET /tools.
func (h *ToolsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": h.registry.Specs()})
}

// HandleCall serves POST /tools/{name}. The body is the tool input.
func (h *ToolsHandler) HandleCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimSpace(r.PathValue("name"))
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, mcp.KindInvalidInput, "read body: "+err.Error())
		return
	}
	if len(body) > maxCallBody {
		writeError(w, http.StatusRequestEntityTooLarge, mcp.KindInvalidInput, "request body too large")
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 && !json.Valid(body) {
		writeError(w, http.StatusBadRequest, mcp.KindInvalidInput, "invalid json body")
		return
	}

	out, err := h.registry.Call(r.Context(), name, body)
	if err != nil {
		kind := mcp.Classify(err)
		writeError(w, StatusFor(kind), kind, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// StatusFor maps a tool failure kind to an HTTP status.
func StatusFor(kind mcp.ErrorKind) int {
	switch kind {
	case mcp.KindOK:
		return http.StatusOK
	case mcp.KindInvalidInput:
		return http.StatusBadRequest
	case mcp.KindUnknownTool, mcp.KindNotFound:
		return http.StatusNotFound
	case mcp.KindUnavailable, mcp.KindUnconfigured:
		return http.StatusServiceUnavailable
	case mcp.KindUpstreamAPI, mcp.KindUpstreamHTTP, mcp.KindNetwork:
		return http.StatusBadGateway
	case mcp.KindTimeout:
		return http.StatusGatewayTimeout
	case mcp.KindCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind mcp.ErrorKind, msg string) {
	writeJSON(w, status, map[string]any{
		"error": mcp.FrameError{Kind: kind, Message: msg},
	})
}

// DirectoryStats reports the loaded company directory. *corpcode.Resolver
// implements it.
type DirectoryStats interface {
	Stats(ctx context.Context) (corpcode.BuildStats, error)
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	dir DirectoryStats
}

func NewHealthHandler(dir DirectoryStats) *HealthHandler {
	return &HealthHandler{dir: dir}
}

// HandleHealth always answers 200 while the process serves. The directory
// block shows whether name resolution is available.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	directory := map[string]any{"available": false}
	if h.dir != nil {
		if st, err := h.dir.Stats(r.Context()); err == nil {
			directory = map[string]any{"available": true, "total": st.Total, "listed": st.Listed}
		} else {
			directory["error"] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "directory": directory})
}
