package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"opendart/internal/corpcode"
	"opendart/internal/report"
	"opendart/internal/util/jsonutil"
)

const querySchema = `{"type":"object","properties":{"query":{"type":"string","description":"Company name (회사명), 6-digit stock code (종목코드) or 8-digit DART corp code (고유번호)"}},"required":["query"]}`

type queryInput struct {
	Query string `json:"query"`
}

func (in queryInput) validate(tool string) error {
	if strings.TrimSpace(in.Query) == "" {
		return inputErrorf(tool, "query is required")
	}
	return nil
}

// --------------------- search_company ---------------------

const searchCompanyDescription = "Search for a Korean company and get basic corporate info (한국 기업 검색 및 기본 정보 조회). " +
	"Input can be a company name (삼성전자), stock code (005930), or DART corp code (00126380)."

type searchCompanyTool struct{ host Host }

func newSearchCompanyTool(h Host) *searchCompanyTool { return &searchCompanyTool{host: h} }

func (t *searchCompanyTool) Spec() ToolSpec {
	return ToolSpec{
		Name:         "search_company",
		Description:  searchCompanyDescription,
		InputSchema:  json.RawMessage(querySchema),
		OutputSchema: textOutputSchema,
	}
}

func (t *searchCompanyTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in queryInput
	if err := decodeInput("search_company", input, &in); err != nil {
		return nil, err
	}
	if err := in.validate("search_company"); err != nil {
		return nil, err
	}
	code, err := t.host.Resolver.Resolve(ctx, in.Query)
	if err != nil {
		return nil, err
	}
	c, err := t.host.DART.Company(ctx, code)
	if err != nil {
		return nil, err
	}
	return textResult(report.Company(c))
}

// --------------------- resolve_corp_code ---------------------

type resolveCorpCodeTool struct{ host Host }

func newResolveCorpCodeTool(h Host) *resolveCorpCodeTool { return &resolveCorpCodeTool{host: h} }

func (t *resolveCorpCodeTool) Spec() ToolSpec {
	return ToolSpec{
		Name:         "resolve_corp_code",
		Description:  "Resolve a company name, stock code or corp code to the 8-digit DART corp code.",
		InputSchema:  json.RawMessage(querySchema),
		OutputSchema: json.RawMessage(`{"type":"object","properties":{"corp_code":{"type":"string"},"corp_name":{"type":"string"},"stock_code":{"type":"string"}},"required":["corp_code"]}`),
	}
}

type resolveOutput struct {
	CorpCode  string `json:"corp_code"`
	CorpName  string `json:"corp_name,omitempty"`
	StockCode string `json:"stock_code,omitempty"`
}

func (t *resolveCorpCodeTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in queryInput
	if err := decodeInput("resolve_corp_code", input, &in); err != nil {
		return nil, err
	}
	if err := in.validate("resolve_corp_code"); err != nil {
		return nil, err
	}
	code, err := t.host.Resolver.Resolve(ctx, in.Query)
	if err != nil {
		return nil, err
	}
	out := resolveOutput{CorpCode: code}
	// Corp codes resolve without the directory; enrich only when it loads.
	if info, ok, err := t.host.Resolver.Lookup(ctx, code); err == nil && ok {
		out.CorpName, out.StockCode = info.Name, info.StockCode
	}
	return jsonutil.MarshalNoEscape(out)
}

// --------------------- search_companies ---------------------

type searchCompaniesTool struct{ host Host }

func newSearchCompaniesTool(h Host) *searchCompaniesTool { return &searchCompaniesTool{host: h} }

func (t *searchCompaniesTool) Spec() ToolSpec {
	return ToolSpec{
		Name:         "search_companies",
		Description:  "List up to 10 companies whose name contains the query, listed companies first.",
		InputSchema:  json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"Part of a company name"}},"required":["query"]}`),
		OutputSchema: json.RawMessage(`{"type":"object","properties":{"results":{"type":"array","items":{"type":"object","properties":{"corpCode":{"type":"string"},"corpName":{"type":"string"},"stockCode":{"type":"string"}}}}}}`),
	}
}

type searchCompaniesOutput struct {
	Results []corpcode.SearchResult `json:"results"`
}

func (t *searchCompaniesTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var in queryInput
	if err := decodeInput("search_companies", input, &in); err != nil {
		return nil, err
	}
	if err := in.validate("search_companies"); err != nil {
		return nil, err
	}
	res, err := t.host.Resolver.Search(ctx, in.Query)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []corpcode.SearchResult{}
	}
	return jsonutil.MarshalNoEscape(searchCompaniesOutput{Results: res})
}
