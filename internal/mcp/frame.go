package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// CallFrame is one tool call on a streaming transport (websocket, stdio).
type CallFrame struct {
	ID    string          `json:"id,omitempty"`
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input,omitempty"`
}

// FrameError is the failure half of a ResultFrame.
type FrameError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ResultFrame answers a CallFrame with the same ID.
type ResultFrame struct {
	ID     string          `json:"id"`
	Tool   string          `json:"tool,omitempty"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  *FrameError     `json:"error,omitempty"`
}

// ErrorFrame reports a failure that is not tied to a decoded call, such as
// a malformed frame.
func ErrorFrame(id string, kind ErrorKind, msg string) ResultFrame {
	return ResultFrame{ID: id, Error: &FrameError{Kind: kind, Message: msg}}
}

// Dispatch runs one frame. Frames without an ID get a random one so replies
// can always be correlated in logs.
func (r *Registry) Dispatch(ctx context.Context, f CallFrame) ResultFrame {
	id := strings.TrimSpace(f.ID)
	if id == "" {
		id = uuid.NewString()
	}
	tool := strings.TrimSpace(f.Tool)
	if tool == "" {
		return ErrorFrame(id, KindInvalidInput, "tool is required")
	}
	out, err := r.Call(ctx, tool, f.Input)
	if err != nil {
		res := ErrorFrame(id, Classify(err), err.Error())
		res.Tool = tool
		return res
	}
	return ResultFrame{ID: id, Tool: tool, Output: out}
}
