package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"opendart/internal/dart"
	"opendart/internal/report"
)

const (
	defaultDisclosureDays  = 30
	defaultDisclosureLimit = 20
	maxDisclosureLimit     = 100
)

const searchDisclosuresSchema = `{"type":"object","properties":{` +
	`"company":{"type":"string","description":"Company name or stock code (회사명 또는 종목코드). Omit for all filings."},` +
	`"start_date":{"type":"string","description":"Start date in YYYY-MM-DD format. Default: 30 days ago."},` +
	`"end_date":{"type":"string","description":"End date in YYYY-MM-DD format. Default: today."},` +
	`"type":{"type":"string","enum":["annual","major","issue","share","all"],"description":"Filing type filter: annual(정기공시), major(주요사항), issue(발행공시), share(지분공시), all(전체). Default: all."},` +
	`"limit":{"type":"integer","minimum":1,"maximum":100,"description":"Max results (1-100). Default: 20."}}}`

type searchDisclosuresTool struct{ host Host }

func newSearchDisclosuresTool(h Host) *searchDisclosuresTool { return &searchDisclosuresTool{host: h} }

func (t *searchDisclosuresTool) Spec() ToolSpec {
	return ToolSpec{
		Name:         "search_disclosures",
		Description:  "Search DART disclosure filings (공시 보고서 검색). Can search by company or browse all recent filings. Returns filing title, date, and DART link.",
		InputSchema:  json.RawMessage(searchDisclosuresSchema),
		OutputSchema: textOutputSchema,
	}
}

type searchDisclosuresInput struct {
	Company   string `json:"company"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Type      string `json:"type"`
	Limit     *int   `json:"limit"`
}

// parseDate accepts YYYY-MM-DD or YYYYMMDD.
func parseDate(tool, field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if d, err := time.ParseInLocation(layout, s, kst); err == nil {
			return d, nil
		}
	}
	return time.Time{}, inputErrorf(tool, "%s %q is not a YYYY-MM-DD date", field, s)
}

func (t *searchDisclosuresTool) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	const tool = "search_disclosures"
	var in searchDisclosuresInput
	if err := decodeInput(tool, input, &in); err != nil {
		return nil, err
	}

	today := t.host.now()
	end, start := today, today.AddDate(0, 0, -defaultDisclosureDays)
	var err error
	if strings.TrimSpace(in.StartDate) != "" {
		if start, err = parseDate(tool, "start_date", in.StartDate); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(in.EndDate) != "" {
		if end, err = parseDate(tool, "end_date", in.EndDate); err != nil {
			return nil, err
		}
	}
	if start.After(end) {
		return nil, inputErrorf(tool, "start_date is after end_date")
	}

	limit := defaultDisclosureLimit
	if in.Limit != nil {
		limit = *in.Limit
		if limit < 1 || limit > maxDisclosureLimit {
			return nil, inputErrorf(tool, "limit must be between 1 and %d", maxDisclosureLimit)
		}
	}
	typ, err := dart.ParseDisclosureFilter(in.Type)
	if err != nil {
		return nil, inputErrorf(tool, "%v", err)
	}

	q := dart.DisclosureQuery{
		BeginDate: start.Format("20060102"),
		EndDate:   end.Format("20060102"),
		Type:      typ,
		PageCount: limit,
	}
	label := "전체"
	company := strings.TrimSpace(in.Company)
	if company != "" {
		code, err := t.host.Resolver.Resolve(ctx, company)
		if err != nil {
			return nil, err
		}
		q.CorpCode = code
		label = company
	}

	list, err := t.host.DART.ListDisclosures(ctx, q)
	if err != nil {
		return nil, err
	}
	if company != "" && len(list.List) > 0 {
		label = list.List[0].CorpName
	}
	return textResult(report.Disclosures(list, label, start.Format("2006-01-02"), end.Format("2006-01-02")))
}
