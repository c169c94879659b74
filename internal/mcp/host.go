package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"opendart/internal/corpcode"
	"opendart/internal/dart"
	"opendart/internal/util/jsonutil"
)

// Resolver turns user-supplied company identifiers into corp codes.
// *corpcode.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, query string) (string, error)
	Search(ctx context.Context, query string) ([]corpcode.SearchResult, error)
	Lookup(ctx context.Context, corpCode string) (corpcode.CompanyInfo, bool, error)
}

// DART is the upstream API. *dart.Client implements it.
type DART interface {
	Request(ctx context.Context, endpoint string, params dart.Params) (json.RawMessage, error)
	Company(ctx context.Context, corpCode string) (*dart.Company, error)
	ListDisclosures(ctx context.Context, q dart.DisclosureQuery) (*dart.DisclosureList, error)
	SingleAccounts(ctx context.Context, corpCode string, year int, period dart.Period, fs dart.FSDiv) (*dart.AccountList, error)
	MultiAccounts(ctx context.Context, corpCodes []string, year int, period dart.Period) (*dart.AccountList, error)
	FullStatements(ctx context.Context, corpCode string, year int, period dart.Period, fs dart.FSDiv) (*dart.StatementList, error)
}

// kst is the provider's calendar for default date ranges.
var kst = time.FixedZone("KST", 9*60*60)

// Host wires the resolver and upstream client for tools.
type Host struct {
	Resolver Resolver
	DART     DART
	// Now defaults to time.Now.
	Now func() time.Time
}

func (h Host) now() time.Time {
	if h.Now != nil {
		return h.Now().In(kst)
	}
	return time.Now().In(kst)
}

// defaultYear is the last completed business year.
func (h Host) defaultYear() int { return h.now().Year() - 1 }

// officialName prefers the directory name for corpCode, falling back to the
// caller's query.
func (h Host) officialName(ctx context.Context, corpCode, query string) string {
	info, ok, err := h.Resolver.Lookup(ctx, corpCode)
	if err != nil || !ok || info.Name == "" {
		return strings.TrimSpace(query)
	}
	return info.Name
}

// RegisterDefaultTools installs the default tool set into a registry.
func RegisterDefaultTools(r *Registry, h Host) {
	if r == nil {
		return
	}
	r.Register(newSearchCompanyTool(h))
	r.Register(newResolveCorpCodeTool(h))
	r.Register(newSearchCompaniesTool(h))
	r.Register(newSearchDisclosuresTool(h))
	r.Register(newFinancialSummaryTool(h))
	r.Register(newCompareFinancialsTool(h))
	r.Register(newFullStatementsTool(h))
	r.Register(newDartRequestTool(h))
}

// decodeInput unmarshals tool arguments; malformed JSON is an InputError.
func decodeInput(tool string, input json.RawMessage, out any) error {
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	if err := json.Unmarshal(input, out); err != nil {
		return inputErrorf(tool, "%v", err)
	}
	return nil
}

type textOutput struct {
	Text string `json:"text"`
}

func textResult(s string) (json.RawMessage, error) {
	return jsonutil.MarshalNoEscape(textOutput{Text: s})
}

var textOutputSchema = json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`)
