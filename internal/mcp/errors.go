package mcp

import (
	"context"
	"errors"
	"fmt"

	"opendart/internal/corpcode"
	"opendart/internal/dart"
)

// InputError reports tool arguments that fail validation.
type InputError struct {
	Tool string
	Msg  string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Tool, e.Msg)
}

func inputErrorf(tool, format string, args ...any) error {
	return &InputError{Tool: tool, Msg: fmt.Sprintf(format, args...)}
}

// UnknownToolError is returned for calls to unregistered tools.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("mcp: unknown tool %q", e.Name)
}

// ErrorKind groups tool failures for transports and metrics.
type ErrorKind string

const (
	KindOK            ErrorKind = "ok"
	KindInvalidInput  ErrorKind = "invalid_input"
	KindUnknownTool   ErrorKind = "unknown_tool"
	KindNotFound      ErrorKind = "not_found"
	KindUnavailable   ErrorKind = "unavailable"
	KindUnconfigured  ErrorKind = "unconfigured"
	KindUpstreamAPI   ErrorKind = "upstream_status"
	KindUpstreamHTTP  ErrorKind = "upstream_http"
	KindTimeout       ErrorKind = "timeout"
	KindNetwork       ErrorKind = "network"
	KindCanceled      ErrorKind = "canceled"
	KindInternalError ErrorKind = "internal"
)

// Classify maps an error from Registry.Call to its kind.
func Classify(err error) ErrorKind {
	var (
		ie *InputError
		ut *UnknownToolError
		nf *corpcode.NotFoundError
		ua *corpcode.UnavailableError
		se *dart.APIStatusError
		he *dart.HTTPError
		te *dart.TimeoutError
		ne *dart.NetworkError
	)
	switch {
	case err == nil:
		return KindOK
	case errors.As(err, &ie):
		return KindInvalidInput
	case errors.As(err, &ut):
		return KindUnknownTool
	case errors.As(err, &nf):
		return KindNotFound
	case errors.As(err, &ua):
		return KindUnavailable
	case errors.Is(err, dart.ErrMissingAPIKey):
		return KindUnconfigured
	case dart.IsStatus(err, dart.StatusNoData):
		return KindNotFound
	case errors.As(err, &se):
		return KindUpstreamAPI
	case errors.As(err, &he):
		return KindUpstreamHTTP
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &ne):
		return KindNetwork
	default:
		return KindInternalError
	}
}
