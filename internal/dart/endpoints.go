package dart

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	EndpointCorpCode       = "corpCode.xml"
	EndpointCompany        = "company.json"
	EndpointList           = "list.json"
	EndpointSingleAccounts = "fnlttSinglAcnt.json"
	EndpointMultiAccounts  = "fnlttMultiAcnt.json"
	EndpointFullStatements = "fnlttSinglAcntAll.json"
)

// Period selects the periodic report a financial query reads from.
type Period string

const (
	PeriodQ1     Period = "Q1"
	PeriodQ2     Period = "Q2"
	PeriodQ3     Period = "Q3"
	PeriodAnnual Period = "annual"
)

// ParsePeriod accepts the closed set of periods; empty means annual.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.TrimSpace(s)); p {
	case "":
		return PeriodAnnual, nil
	case PeriodQ1, PeriodQ2, PeriodQ3, PeriodAnnual:
		return p, nil
	default:
		return "", fmt.Errorf("unknown report period %q (want Q1, Q2, Q3 or annual)", s)
	}
}

// ReportCode is the reprt_code parameter for the period.
func (p Period) ReportCode() string {
	switch p {
	case PeriodQ1:
		return "11013"
	case PeriodQ2:
		return "11012"
	case PeriodQ3:
		return "11014"
	default:
		return "11011"
	}
}

// FSDiv selects consolidated (CFS) or separate (OFS) statements.
type FSDiv string

const (
	FSConsolidated FSDiv = "CFS"
	FSSeparate     FSDiv = "OFS"
)

func FSDivFor(consolidated bool) FSDiv {
	if consolidated {
		return FSConsolidated
	}
	return FSSeparate
}

// DisclosureType is the pblntf_ty filter of list.json.
type DisclosureType string

const (
	DisclosureAll      DisclosureType = ""
	DisclosurePeriodic DisclosureType = "A"
	DisclosureMajor    DisclosureType = "B"
	DisclosureIssue    DisclosureType = "C"
	DisclosureShare    DisclosureType = "D"
	DisclosureOther    DisclosureType = "E"
)

// ParseDisclosureFilter maps the user-facing filter names to pblntf_ty.
func ParseDisclosureFilter(s string) (DisclosureType, error) {
	switch strings.TrimSpace(s) {
	case "", "all":
		return DisclosureAll, nil
	case "annual":
		return DisclosurePeriodic, nil
	case "major":
		return DisclosureMajor, nil
	case "issue":
		return DisclosureIssue, nil
	case "share":
		return DisclosureShare, nil
	default:
		return "", fmt.Errorf("unknown disclosure type %q (want annual, major, issue, share or all)", s)
	}
}

// Company fetches the company profile for a corp code.
func (c *Client) Company(ctx context.Context, corpCode string) (*Company, error) {
	body, err := c.Request(ctx, EndpointCompany, Params{"corp_code": corpCode})
	if err != nil {
		return nil, err
	}
	var out Company
	if err := decode(EndpointCompany, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DisclosureQuery filters list.json. Dates are YYYYMMDD.
type DisclosureQuery struct {
	CorpCode  string
	BeginDate string
	EndDate   string
	Type      DisclosureType
	PageCount int
}

// ListDisclosures searches filings.
func (c *Client) ListDisclosures(ctx context.Context, q DisclosureQuery) (*DisclosureList, error) {
	params := Params{
		"corp_code": q.CorpCode,
		"bgn_de":    q.BeginDate,
		"end_de":    q.EndDate,
		"pblntf_ty": string(q.Type),
	}
	if q.PageCount > 0 {
		params["page_count"] = strconv.Itoa(q.PageCount)
	}
	body, err := c.Request(ctx, EndpointList, params)
	if err != nil {
		return nil, err
	}
	var out DisclosureList
	if err := decode(EndpointList, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SingleAccounts fetches key accounts of one company.
func (c *Client) SingleAccounts(ctx context.Context, corpCode string, year int, period Period, fs FSDiv) (*AccountList, error) {
	body, err := c.Request(ctx, EndpointSingleAccounts, Params{
		"corp_code":  corpCode,
		"bsns_year":  strconv.Itoa(year),
		"reprt_code": period.ReportCode(),
		"fs_div":     string(fs),
	})
	if err != nil {
		return nil, err
	}
	var out AccountList
	if err := decode(EndpointSingleAccounts, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MultiAccounts fetches key accounts of several companies in one call.
func (c *Client) MultiAccounts(ctx context.Context, corpCodes []string, year int, period Period) (*AccountList, error) {
	body, err := c.Request(ctx, EndpointMultiAccounts, Params{
		"corp_code":  strings.Join(corpCodes, ","),
		"bsns_year":  strconv.Itoa(year),
		"reprt_code": period.ReportCode(),
	})
	if err != nil {
		return nil, err
	}
	var out AccountList
	if err := decode(EndpointMultiAccounts, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FullStatements fetches every account line of one company's statements.
func (c *Client) FullStatements(ctx context.Context, corpCode string, year int, period Period, fs FSDiv) (*StatementList, error) {
	body, err := c.Request(ctx, EndpointFullStatements, Params{
		"corp_code":  corpCode,
		"bsns_year":  strconv.Itoa(year),
		"reprt_code": period.ReportCode(),
		"fs_div":     string(fs),
	})
	if err != nil {
		return nil, err
	}
	var out StatementList
	if err := decode(EndpointFullStatements, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
