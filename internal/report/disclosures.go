package report

import (
	"fmt"
	"strings"

	"opendart/internal/dart"
)

const viewerURL = "https://dart.fss.or.kr/dsaf001/main.do?rcpNo="

// ViewerURL links to the filing on the DART website.
func ViewerURL(receiptNo string) string { return viewerURL + receiptNo }

// Disclosures renders a filing list. start and end are shown as given.
func Disclosures(list *dart.DisclosureList, companyLabel, start, end string) string {
	lines := []string{
		fmt.Sprintf("%s 공시 검색 결과 (%s ~ %s)", companyLabel, start, end),
		separator(40),
		"",
	}
	for _, d := range list.List {
		line := fmt.Sprintf("[%s] %s (%s)", DisclosureLabel(GuessDisclosureType(d.ReportName)), d.ReportName, Date(d.ReceiptDate))
		if d.FilerName != "" && d.FilerName != d.CorpName {
			line += " - " + d.FilerName
		}
		lines = append(lines, line, "  "+ViewerURL(d.ReceiptNo))
	}
	lines = append(lines, "", fmt.Sprintf("총 %d건", list.TotalCount))
	return strings.Join(lines, "\n")
}
