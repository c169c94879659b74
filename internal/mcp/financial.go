package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"opendart/internal/dart"
	"opendart/internal/report"
)

const (
	minCompareCompanies = 2
	maxCompareCompanies = 10
)

const (
	yearProp         = `"year":{"type":"integer","description":"Business year (사업연도). Default: last year."}`
	quarterProp      = `"quarter":{"type":"string","enum":["Q1","Q2","Q3","annual"],"description":"Report period: Q1(1분기), Q2(반기), Q3(3분기), annual(사업보고서). Default: annual."}`
	consolidatedProp = `"consolidated":{"type":"boolean","description":"Use consolidated financial statements (연결재무제표). Default: true."}`
	companyProp      = `"company":{"type":"string","description":"Company name or stock code (회사명 또는 종목코드). e.g. '삼성전자' or '005930'"}`

	statementTypeProp = `"statement_type":{"type":"string","enum":["BS","IS","CIS","CF","SCE","all"],"description":"Statement type: BS(재무상태표), IS(손익계산서), CIS(포괄손익계산서), CF(현금흐름표), SCE(자본변동표), all(전체). Default: all."}`
)

const (
	financialSummarySchema = `{"type":"object","properties":{` + companyProp + `,` + yearProp + `,` + quarterProp + `,` + consolidatedProp + `},"required":["company"]}`
	compareSchema          = `{"type":"object","properties":{"companies":{"type":"array","items":{"type":"string"},"minItems":2,"maxItems":10,"description":"Company names or stock codes (회사명/종목코드 배열, 2~10개)"},` + yearProp + `,` + quarterProp + `},"required":["companies"]}`
	fullStatementsSchema   = `{"type":"object","properties":{` + companyProp + `,` + yearProp + `,` + quarterProp + `,` + consolidatedProp + `,` + statementTypeProp + `},"required":["company"]}`
)

// periodInput is shared by the financial tools.
type periodInput struct {
	Year         *int   `json:"year"`
	Quarter      string `json:"quarter"`
	Consolidated *bool  `json:"consolidated"`
}

type resolvedPeriod struct {
	year   int
	period dart.Period
	fs     dart.FSDiv
}

func (in periodInput) resolve(tool string, h Host) (resolvedPeriod, error) {
	p, err := dart.ParsePeriod(in.Quarter)
	if err != nil {
		return resolvedPeriod{}, inputErrorf(tool, "%v", err)
	}
	year := h.defaultYear()
	if in.Year != nil {
		year = *in.Year
		if year < 2015 || year > h.now().Year() {
			return resolvedPeriod{}, inputErrorf(tool, "year %d is out of range (2015-%d)", year, h.now().Year())
		}
	}
	consolidated := true
	if in.Consolidated != nil {
		consolidated = *in.Consolidated
	}
	return resolvedPeriod{year: year, period: p, fs: dart.FSDivFor(consolidated)}, nil
}

// --------------------- get_financial_summary ---------------------

type financialSummaryTool struct{ host Host }

func newFinancialSummaryTool(h Host) *financialSummaryTool { return &financialSummaryTool{host: h} }

func (t *financialSummaryTool) Spec() ToolSpec {
	return ToolSpec{
		Name:         "get_financial_summary",
		Description:  "Get key financial data for a Korean company (기업 주요 재무 데이터 조회). Returns revenue, operating profit, net income, total assets/liabilities/equity with year-over-year change rates.",
		InputSchema:  json.RawMessage(financialSummarySchema),
		OutputSchema: textOutputSchema,
	}
}

type financialSummaryInput struct {
	Company string `json:"company"`
	periodInput
}

func (t *financialSummaryTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	const tool = "get_financial_summary"
	var in financialSummaryInput
	if err := decodeInput(tool, input, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Company) == "" {
		return nil, inputErrorf(tool, "company is required")
	}
	rp, err := in.resolve(tool, t.host)
	if err != nil {
		return nil, err
	}
	code, err := t.host.Resolver.Resolve(ctx, in.Company)
	if err != nil {
		return nil, err
	}
	list, err := t.host.DART.SingleAccounts(ctx, code, rp.year, rp.period, rp.fs)
	if err != nil {
		return nil, err
	}
	accounts := report.KeyAccounts(list.List, rp.fs)
	name := t.host.officialName(ctx, code, in.Company)
	return textResult(report.Summary(name, rp.year, rp.period, rp.fs, accounts))
}

// --------------------- compare_financials ---------------------

type compareFinancialsTool struct{ host Host }

func newCompareFinancialsTool(h Host) *compareFinancialsTool { return &compareFinancialsTool{host: h} }

func (t *compareFinancialsTool) Spec() ToolSpec {
	return ToolSpec{
		Name:         "compare_financials",
		Description:  "Compare financial data across multiple Korean companies (다중 회사 재무 비교). Shows revenue, operating profit, and net income side by side.",
		InputSchema:  json.RawMessage(compareSchema),
		OutputSchema: textOutputSchema,
	}
}

type compareFinancialsInput struct {
	Companies []string `json:"companies"`
	periodInput
}

func (t *compareFinancialsTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	const tool = "compare_financials"
	var in compareFinancialsInput
	if err := decodeInput(tool, input, &in); err != nil {
		return nil, err
	}
	if n := len(in.Companies); n < minCompareCompanies || n > maxCompareCompanies {
		return nil, inputErrorf(tool, "companies must list %d to %d entries, got %d", minCompareCompanies, maxCompareCompanies, n)
	}
	// Comparison always prefers consolidated figures per company.
	in.Consolidated = nil
	rp, err := in.resolve(tool, t.host)
	if err != nil {
		return nil, err
	}

	columns := make([]report.CompanyFigures, 0, len(in.Companies))
	codes := make([]string, 0, len(in.Companies))
	for _, c := range in.Companies {
		if strings.TrimSpace(c) == "" {
			return nil, inputErrorf(tool, "companies must not contain empty entries")
		}
		code, err := t.host.Resolver.Resolve(ctx, c)
		if err != nil {
			return nil, err
		}
		columns = append(columns, report.CompanyFigures{Name: t.host.officialName(ctx, code, c), CorpCode: code})
		codes = append(codes, code)
	}

	list, err := t.host.DART.MultiAccounts(ctx, codes, rp.year, rp.period)
	if err != nil {
		return nil, err
	}
	byCorp := make(map[string][]dart.Account, len(codes))
	for _, it := range list.List {
		byCorp[it.CorpCode] = append(byCorp[it.CorpCode], it)
	}
	for i := range columns {
		items := byCorp[columns[i].CorpCode]
		columns[i].Accounts = report.KeyAccounts(items, report.PreferredFSDiv(items))
	}
	return textResult(report.Comparison(rp.year, rp.period, columns))
}

// --------------------- get_full_financial_statements ---------------------

type fullStatementsTool struct{ host Host }

func newFullStatementsTool(h Host) *fullStatementsTool { return &fullStatementsTool{host: h} }

func (t *fullStatementsTool) Spec() ToolSpec {
	return ToolSpec{
		Name:         "get_full_financial_statements",
		Description:  "Get full financial statements with all account items (전체 재무제표 상세 조회). Returns every line item of BS, IS, CIS, CF, or SCE.",
		InputSchema:  json.RawMessage(fullStatementsSchema),
		OutputSchema: textOutputSchema,
	}
}

type fullStatementsInput struct {
	Company       string `json:"company"`
	StatementType string `json:"statement_type"`
	periodInput
}

func (t *fullStatementsTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	const tool = "get_full_financial_statements"
	var in fullStatementsInput
	if err := decodeInput(tool, input, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Company) == "" {
		return nil, inputErrorf(tool, "company is required")
	}
	var section report.Section
	switch st := strings.TrimSpace(in.StatementType); st {
	case "", "all":
	default:
		section = report.Section(st)
		if !section.Known() {
			return nil, inputErrorf(tool, "unknown statement_type %q (want BS, IS, CIS, CF, SCE or all)", st)
		}
	}
	rp, err := in.resolve(tool, t.host)
	if err != nil {
		return nil, err
	}
	code, err := t.host.Resolver.Resolve(ctx, in.Company)
	if err != nil {
		return nil, err
	}
	list, err := t.host.DART.FullStatements(ctx, code, rp.year, rp.period, rp.fs)
	if err != nil {
		return nil, err
	}
	items := report.FilterStatements(list.List, section)
	name := t.host.officialName(ctx, code, in.Company)
	return textResult(report.FullStatements(name, rp.year, rp.period, rp.fs, items))
}
