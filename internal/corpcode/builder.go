package corpcode

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ParseRecords reads every <list> element of the bulk dataset. Other elements
// are ignored. Non-UTF-8 documents are decoded through their declared charset.
func ParseRecords(r io.Reader) ([]Record, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var records []Record
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("corpcode: parse dataset: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "list" {
			continue
		}
		var rec Record
		if err := dec.DecodeElement(&rec, &se); err != nil {
			return nil, fmt.Errorf("corpcode: parse record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Normalize applies the directory rules to one record. ok is false when the
// record has no corp code or no name.
func Normalize(rec Record) (e Entry, ok bool) {
	code := strings.TrimSpace(rec.CorpCode)
	name := strings.TrimSpace(rec.CorpName)
	if code == "" || name == "" {
		return Entry{}, false
	}
	stock := strings.TrimSpace(rec.StockCode)
	if stock == "0" {
		stock = ""
	}
	if stock != "" {
		stock = padLeft(stock, StockCodeLength)
	}
	return Entry{
		CorpCode:  padLeft(code, CorpCodeLength),
		CorpName:  name,
		StockCode: stock,
	}, true
}

// Build indexes the records. On duplicate names the later record wins in
// ByName; every entry stays reachable through ByCorpCode.
func Build(records []Record) (*Directory, BuildStats) {
	dir := newDirectory(len(records))
	stats := BuildStats{Records: len(records)}
	for _, rec := range records {
		e, ok := Normalize(rec)
		if !ok {
			stats.Skipped++
			continue
		}
		dir.ByName[e.CorpName] = e.CorpCode
		dir.ByCorpCode[e.CorpCode] = CompanyInfo{Name: e.CorpName, StockCode: e.StockCode}
		if e.Listed() {
			dir.ByStockCode[e.StockCode] = e.CorpCode
		}
	}
	st := dir.Stats()
	stats.Total, stats.Listed = st.Total, st.Listed
	return dir, stats
}
