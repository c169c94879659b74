package mcp

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"opendart/internal/platform/metrics"
)

// ToolSpec documents a tool's contract (name + schemas).
type ToolSpec struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	InputSchema  json.RawMessage `json:"input_schema,omitempty"`
	OutputSchema json.RawMessage `json:"output_schema,omitempty"`
}

// Tool is a minimal in-process MCP-style tool.
type Tool interface {
	Spec() ToolSpec
	Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error)
}

// Registry holds tool registrations and dispatches calls.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewRegistry creates an empty registry and registers any provided tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}, log: logrus.StandardLogger()}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Instrument sets the logger and metrics used by Call. Nil values keep the
// current setting.
func (r *Registry) Instrument(log logrus.FieldLogger, m *metrics.Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log != nil {
		r.log = log
	}
	if m != nil {
		r.metrics = m
	}
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t Tool) {
	if r == nil || t == nil {
		return
	}
	spec := t.Spec()
	if spec.Name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tools == nil {
		r.tools = map[string]Tool{}
	}
	r.tools[spec.Name] = t
}

// Call invokes a registered tool.
func (r *Registry) Call(ctx context.Context, name string, input json.RawMessage) (json.RawMessage, error) {
	if r == nil {
		return nil, &UnknownToolError{Name: name}
	}
	r.mu.RLock()
	t, ok := r.tools[name]
	log, m := r.log, r.metrics
	r.mu.RUnlock()
	if !ok {
		m.ObserveToolCall("unknown", string(KindUnknownTool))
		return nil, &UnknownToolError{Name: name}
	}
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}

	start := time.Now()
	out, err := t.Call(ctx, input)
	kind := Classify(err)
	m.ObserveToolCall(name, string(kind))
	entry := log.WithFields(logrus.Fields{"tool": name, "elapsed": time.Since(start).Round(time.Millisecond), "outcome": kind})
	if err != nil {
		entry.WithError(err).Info("tool call failed")
		return nil, err
	}
	entry.Debug("tool call")
	return out, nil
}

// Specs returns the current tool specs sorted by name.
func (r *Registry) Specs() []ToolSpec {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Spec())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
