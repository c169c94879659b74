// Package corpcode turns the DART bulk company directory into lookup indexes
// and resolves free-form company identifiers to 8-digit corp codes.
//
// The directory is built by an Acquirer (download, extract, parse, persist),
// stored as one JSON file, and loaded lazily by a Resolver.
package corpcode

import (
	"strings"
)

const (
	CorpCodeLength  = 8
	StockCodeLength = 6

	// MaxSearchResults caps Search.
	MaxSearchResults = 10
)

// Record is one <list> element of the bulk XML dataset before normalization.
type Record struct {
	CorpCode   string `xml:"corp_code"`
	CorpName   string `xml:"corp_name"`
	StockCode  string `xml:"stock_code"`
	ModifyDate string `xml:"modify_date"`
}

// Entry is a normalized directory entry.
type Entry struct {
	CorpCode  string
	CorpName  string
	StockCode string
}

// Listed reports whether the entry has a market ticker.
func (e Entry) Listed() bool { return e.StockCode != "" }

// CompanyInfo is the byCorpCode value.
type CompanyInfo struct {
	Name      string `json:"name"`
	StockCode string `json:"stockCode"`
}

// Directory holds the three indexes built from one record set. It is never
// modified after Build or Load returns it.
type Directory struct {
	ByName      map[string]string      `json:"byName"`
	ByStockCode map[string]string      `json:"byStockCode"`
	ByCorpCode  map[string]CompanyInfo `json:"byCorpCode"`
}

func newDirectory(sizeHint int) *Directory {
	return &Directory{
		ByName:      make(map[string]string, sizeHint),
		ByStockCode: make(map[string]string),
		ByCorpCode:  make(map[string]CompanyInfo, sizeHint),
	}
}

// Stats counts the entries and the listed entries of the directory.
func (d *Directory) Stats() BuildStats {
	st := BuildStats{Total: len(d.ByCorpCode)}
	for _, info := range d.ByCorpCode {
		if info.StockCode != "" {
			st.Listed++
		}
	}
	return st
}

// BuildStats summarizes one Build.
type BuildStats struct {
	Records int
	Total   int
	Listed  int
	Skipped int
}

// SearchResult is one Search match.
type SearchResult struct {
	CorpCode  string `json:"corpCode"`
	CorpName  string `json:"corpName"`
	StockCode string `json:"stockCode"`
}

// QueryKind classifies a resolution query.
type QueryKind int

const (
	QueryName QueryKind = iota
	QueryStockCode
	QueryCorpCode
)

func (k QueryKind) String() string {
	switch k {
	case QueryCorpCode:
		return "corp_code"
	case QueryStockCode:
		return "stock_code"
	default:
		return "name"
	}
}

// Classify reports how a trimmed query is resolved: exactly 8 ASCII digits is
// a corp code, exactly 6 is a stock code, anything else is a name.
func Classify(query string) QueryKind {
	switch {
	case len(query) == CorpCodeLength && allDigits(query):
		return QueryCorpCode
	case len(query) == StockCodeLength && allDigits(query):
		return QueryStockCode
	default:
		return QueryName
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
