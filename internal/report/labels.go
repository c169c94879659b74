package report

import (
	"strings"

	"opendart/internal/dart"
)

// corpClassLabels maps corp_cls to the market name. Unknown classes are
// shown as the raw code.
var corpClassLabels = map[string]string{
	"Y": "유가증권시장상장법인",
	"K": "코스닥상장법인",
	"N": "코넥스상장법인",
	"E": "기타법인",
}

func CorpClassLabel(cls string) string {
	if l, ok := corpClassLabels[cls]; ok {
		return l
	}
	return cls
}

// disclosureLabels maps pblntf_ty codes to names. Unknown codes are shown
// as "기타".
var disclosureLabels = map[string]string{
	"A": "정기공시",
	"B": "주요사항",
	"C": "발행공시",
	"D": "지분공시",
	"E": "기타공시",
	"F": "외부감사",
	"G": "펀드공시",
	"H": "자산유동화",
	"I": "거래소공시",
	"J": "공정위공시",
}

func DisclosureLabel(t dart.DisclosureType) string {
	if l, ok := disclosureLabels[string(t)]; ok {
		return l
	}
	return "기타"
}

var reportKeywords = []struct {
	typ   dart.DisclosureType
	words []string
}{
	{dart.DisclosurePeriodic, []string{"사업보고서", "반기보고서", "분기보고서"}},
	{dart.DisclosureMajor, []string{"주요사항"}},
	{dart.DisclosureIssue, []string{"증권신고서", "투자설명서"}},
	{dart.DisclosureShare, []string{"소유상황", "대량보유", "임원"}},
}

// GuessDisclosureType classifies a filing by keywords in its report name.
func GuessDisclosureType(reportName string) dart.DisclosureType {
	for _, k := range reportKeywords {
		for _, w := range k.words {
			if strings.Contains(reportName, w) {
				return k.typ
			}
		}
	}
	return dart.DisclosureOther
}

// PeriodLabel names a report period in Korean.
func PeriodLabel(p dart.Period) string {
	switch p {
	case dart.PeriodQ1:
		return "1분기"
	case dart.PeriodQ2:
		return "반기"
	case dart.PeriodQ3:
		return "3분기"
	case dart.PeriodAnnual:
		return "연간"
	default:
		return string(p)
	}
}

func fsLabel(fs dart.FSDiv) string {
	if fs == dart.FSSeparate {
		return "개별"
	}
	return "연결"
}

// Section is a statement division (sj_div).
type Section string

const (
	SectionBS  Section = "BS"
	SectionIS  Section = "IS"
	SectionCIS Section = "CIS"
	SectionCF  Section = "CF"
	SectionSCE Section = "SCE"
)

// Sections lists the known divisions in display order.
var Sections = []Section{SectionBS, SectionIS, SectionCIS, SectionCF, SectionSCE}

// Label names the section; unknown divisions are shown as the raw code.
func (s Section) Label() string {
	switch s {
	case SectionBS:
		return "재무상태표"
	case SectionIS:
		return "손익계산서"
	case SectionCIS:
		return "포괄손익계산서"
	case SectionCF:
		return "현금흐름표"
	case SectionSCE:
		return "자본변동표"
	default:
		return string(s)
	}
}

// Known reports whether s is one of Sections.
func (s Section) Known() bool {
	for _, k := range Sections {
		if k == s {
			return true
		}
	}
	return false
}
