// Package report renders DART records as Korean report text.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	eok = 100_000_000 // 억
	jo  = 10_000      // 조, in 억
)

var printer = message.NewPrinter(language.Korean)

// Amount is a parsed DART amount string. Valid is false for "", "-" and
// anything that is not an integer after removing digit grouping.
type Amount struct {
	Value int64
	Valid bool
}

// ParseAmount parses strings such as "300,870,903,000,000" or "-11,526,297".
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return Amount{}
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return Amount{}
	}
	return Amount{Value: v, Valid: true}
}

// String renders the amount in 조/억원 or "-" when invalid.
func (a Amount) String() string {
	if !a.Valid {
		return "-"
	}
	return KoreanCurrency(a.Value)
}

// KoreanCurrency rounds to the nearest 억 and renders 조 and 억 parts, e.g.
// 300870903000000 -> "300조 8,709억원". Amounts under half of 1억 are shown
// in 원.
func KoreanCurrency(amount int64) string {
	sign := ""
	abs := amount
	if amount < 0 {
		sign = "-"
		abs = -amount
	}
	units := (abs + eok/2) / eok
	if units == 0 {
		return sign + printer.Sprintf("%d원", abs)
	}
	j, e := units/jo, units%jo
	switch {
	case j > 0 && e > 0:
		return sign + printer.Sprintf("%d조 %d억원", j, e)
	case j > 0:
		return sign + printer.Sprintf("%d조원", j)
	default:
		return sign + printer.Sprintf("%d억원", e)
	}
}

// PercentChange renders the change from prev to cur as "(+12.3%)". It is
// empty when either side is invalid or prev is zero.
func PercentChange(cur, prev Amount) string {
	if !cur.Valid || !prev.Valid || prev.Value == 0 {
		return ""
	}
	change := float64(cur.Value-prev.Value) / math.Abs(float64(prev.Value)) * 100
	sign := ""
	if change >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("(%s%.1f%%)", sign, change)
}

// Date turns YYYYMMDD into YYYY-MM-DD; other values pass through and empty
// becomes "-".
func Date(raw string) string {
	if len(raw) != 8 {
		return orDash(raw)
	}
	return raw[:4] + "-" + raw[4:6] + "-" + raw[6:]
}

// URL adds an https scheme to bare hosts.
func URL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-"
	}
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	return "https://" + raw
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func separator(n int) string { return strings.Repeat("─", n) }
