package report

import (
	"fmt"
	"strings"

	"opendart/internal/dart"
)

// Company renders a company.json profile.
func Company(c *dart.Company) string {
	cls := CorpClassLabel(c.CorpClass)
	market := "비상장"
	if c.StockCode != "" {
		market = fmt.Sprintf("%s (%s)", c.StockCode, cls)
	}
	title := c.CorpName
	if c.CorpNameEng != "" {
		title = fmt.Sprintf("%s (%s)", c.CorpName, c.CorpNameEng)
	}
	accMonth := "-"
	if c.AccMonth != "" {
		accMonth = c.AccMonth + "월"
	}

	lines := []string{
		title,
		separator(40),
		"종목코드: " + market,
		"대표이사: " + orDash(c.CEOName),
		"법인구분: " + cls,
		"업종코드: " + orDash(c.IndustryCode),
		"설립일: " + Date(c.EstDate),
		"결산월: " + accMonth,
		"홈페이지: " + URL(c.HomepageURL),
	}
	if c.IRURL != "" {
		lines = append(lines, "IR페이지: "+URL(c.IRURL))
	}
	lines = append(lines,
		"전화번호: "+orDash(c.Phone),
		"주소: "+orDash(c.Address),
	)
	return strings.Join(lines, "\n")
}
