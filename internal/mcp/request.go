package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"opendart/internal/dart"
)

// --------------------- dart_request ---------------------

type dartRequestTool struct{ host Host }

func newDartRequestTool(h Host) *dartRequestTool { return &dartRequestTool{host: h} }

func (t *dartRequestTool) Spec() ToolSpec {
	return ToolSpec{
		Name:         "dart_request",
		Description:  "Call any DART OpenAPI JSON endpoint (e.g. company.json, list.json) with raw query parameters and return the response body.",
		InputSchema:  json.RawMessage(`{"type":"object","properties":{"endpoint":{"type":"string","description":"Endpoint file name such as list.json"},"params":{"type":"object","additionalProperties":{"type":"string"}}},"required":["endpoint"]}`),
		OutputSchema: json.RawMessage(`{"type":"object","properties":{"status":{"type":"string"},"message":{"type":"string"}}}`),
	}
}

type dartRequestInput struct {
	Endpoint string            `json:"endpoint"`
	Params   map[string]string `json:"params"`
}

func (t *dartRequestTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	const tool = "dart_request"
	var in dartRequestInput
	if err := decodeInput(tool, input, &in); err != nil {
		return nil, err
	}
	ep := strings.TrimSpace(in.Endpoint)
	switch {
	case ep == "":
		return nil, inputErrorf(tool, "endpoint is required")
	case strings.ContainsAny(ep, "/?#\\") || strings.Contains(ep, ".."):
		return nil, inputErrorf(tool, "endpoint %q must be a bare endpoint name", ep)
	case !strings.HasSuffix(ep, ".json"):
		return nil, inputErrorf(tool, "endpoint %q is not a JSON endpoint", ep)
	}
	return t.host.DART.Request(ctx, ep, dart.Params(in.Params))
}
