package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"opendart/internal/mcp"
)

const (
	ToolServiceName = "opendart.v1.ToolService"

	ListToolsProcedure = "/" + ToolServiceName + "/ListTools"
	CallToolProcedure  = "/" + ToolServiceName + "/CallTool"
)

// ToolHandler exposes the tool registry as a connect service. Requests and
// responses are google.protobuf.Struct so tool schemas stay JSON-shaped.
//
//	ListTools(Empty) -> {"tools": [ToolSpec...]}
//	CallTool({"name": string, "input": object}) -> {"tool": string, "output": any}
type ToolHandler struct {
	registry *mcp.Registry
}

func NewToolHandler(registry *mcp.Registry) *ToolHandler {
	return &ToolHandler{registry: registry}
}

// NewToolServiceHandler builds the HTTP handler and the path prefix it
// serves, for use with http.ServeMux.Handle.
func NewToolServiceHandler(h *ToolHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	list := connect.NewUnaryHandler(ListToolsProcedure, h.ListTools, opts...)
	call := connect.NewUnaryHandler(CallToolProcedure, h.CallTool, opts...)
	return "/" + ToolServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ListToolsProcedure:
			list.ServeHTTP(w, r)
		case CallToolProcedure:
			call.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func (h *ToolHandler) ListTools(_ context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	raw, err := json.Marshal(map[string]any{"tools": h.registry.Specs()})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode tool specs: %w", err))
	}
	return connect.NewResponse(out), nil
}

func (h *ToolHandler) CallTool(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	name := strings.TrimSpace(fields["name"].GetStringValue())
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("name is required"))
	}

	var input json.RawMessage
	if v := fields["input"]; v != nil && !isNull(v) {
		raw, err := protojson.Marshal(v)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("input: %w", err))
		}
		input = raw
	}

	out, err := h.registry.Call(ctx, name, input)
	if err != nil {
		return nil, toToolError(err)
	}
	value := &structpb.Value{}
	if err := protojson.Unmarshal(out, value); err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode %s output: %w", name, err))
	}
	return connect.NewResponse(&structpb.Struct{Fields: map[string]*structpb.Value{
		"tool":   structpb.NewStringValue(name),
		"output": value,
	}}), nil
}

func isNull(v *structpb.Value) bool {
	_, null := v.GetKind().(*structpb.Value_NullValue)
	return null || v.GetKind() == nil
}

func toToolError(err error) error {
	kind := mcp.Classify(err)
	cerr := connect.NewError(CodeFor(kind), err)
	cerr.Meta().Set("Opendart-Error-Kind", string(kind))
	return cerr
}

// CodeFor maps a tool failure kind to a connect code.
func CodeFor(kind mcp.ErrorKind) connect.Code {
	switch kind {
	case mcp.KindInvalidInput:
		return connect.CodeInvalidArgument
	case mcp.KindUnknownTool, mcp.KindNotFound:
		return connect.CodeNotFound
	case mcp.KindUnavailable, mcp.KindUpstreamHTTP, mcp.KindNetwork:
		return connect.CodeUnavailable
	case mcp.KindUnconfigured, mcp.KindUpstreamAPI:
		return connect.CodeFailedPrecondition
	case mcp.KindTimeout:
		return connect.CodeDeadlineExceeded
	case mcp.KindCanceled:
		return connect.CodeCanceled
	default:
		return connect.CodeInternal
	}
}
