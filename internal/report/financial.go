package report

import (
	"fmt"
	"strings"

	"opendart/internal/dart"
)

// KeyAccount is one of the headline accounts shown in summaries.
type KeyAccount string

const (
	Revenue          KeyAccount = "매출액"
	OperatingProfit  KeyAccount = "영업이익"
	NetIncome        KeyAccount = "당기순이익"
	TotalAssets      KeyAccount = "자산총계"
	TotalLiabilities KeyAccount = "부채총계"
	TotalEquity      KeyAccount = "자본총계"
)

var (
	IncomeAccounts  = []KeyAccount{Revenue, OperatingProfit, NetIncome}
	BalanceAccounts = []KeyAccount{TotalAssets, TotalLiabilities, TotalEquity}
)

// Matches reports whether a provider account name is this account. Net
// income is reported under several names such as "당기순이익(손실)".
func (k KeyAccount) Matches(accountName string) bool {
	if k == NetIncome {
		return strings.Contains(accountName, "당기순이익") || strings.Contains(accountName, "당기순손익")
	}
	return accountName == string(k)
}

// Figures are the current and previous period amounts of one account.
type Figures struct {
	Current  Amount
	Previous Amount
}

// KeyAccounts picks the headline accounts from items of the given statement
// basis. The first matching item wins.
func KeyAccounts(items []dart.Account, fs dart.FSDiv) map[KeyAccount]Figures {
	out := make(map[KeyAccount]Figures)
	all := append(append([]KeyAccount(nil), IncomeAccounts...), BalanceAccounts...)
	for _, it := range items {
		if it.FSDiv != string(fs) {
			continue
		}
		for _, k := range all {
			if _, seen := out[k]; seen || !k.Matches(it.AccountName) {
				continue
			}
			out[k] = Figures{Current: ParseAmount(it.CurrentAmount), Previous: ParseAmount(it.PreviousAmount)}
		}
	}
	return out
}

// PreferredFSDiv is CFS when any item is consolidated, else OFS.
func PreferredFSDiv(items []dart.Account) dart.FSDiv {
	for _, it := range items {
		if it.FSDiv == string(dart.FSConsolidated) {
			return dart.FSConsolidated
		}
	}
	return dart.FSSeparate
}

// DebtRatio is liabilities over equity in percent. ok is false when either
// is missing or equity is zero.
func DebtRatio(accounts map[KeyAccount]Figures) (ratio float64, ok bool) {
	debt, okD := accounts[TotalLiabilities]
	equity, okE := accounts[TotalEquity]
	if !okD || !okE || !debt.Current.Valid || !equity.Current.Valid || equity.Current.Value == 0 {
		return 0, false
	}
	return float64(debt.Current.Value) / float64(equity.Current.Value) * 100, true
}

func summaryLine(k KeyAccount, f Figures, found, showChange bool) string {
	label := fmt.Sprintf("%-10s", string(k))
	if !found {
		return label + "  -"
	}
	line := label + "  " + f.Current.String()
	if showChange {
		if pc := PercentChange(f.Current, f.Previous); pc != "" {
			line += " " + pc
		}
	}
	return line
}

// Summary renders the headline accounts of one company with year-over-year
// change for income items and the debt ratio when available.
func Summary(company string, year int, period dart.Period, fs dart.FSDiv, accounts map[KeyAccount]Figures) string {
	sep := separator(40)
	lines := []string{
		fmt.Sprintf("%s %d년 %s 재무 요약 (%s)", company, year, PeriodLabel(period), fsLabel(fs)),
		sep,
	}
	for _, k := range IncomeAccounts {
		f, ok := accounts[k]
		lines = append(lines, summaryLine(k, f, ok, true))
	}
	lines = append(lines, sep)
	for _, k := range BalanceAccounts {
		f, ok := accounts[k]
		lines = append(lines, summaryLine(k, f, ok, false))
	}
	if ratio, ok := DebtRatio(accounts); ok {
		lines = append(lines, sep, fmt.Sprintf("%-10s  %.1f%%", "부채비율", ratio))
	}
	return strings.Join(lines, "\n")
}

// CompanyFigures is one column of a comparison.
type CompanyFigures struct {
	Name     string
	CorpCode string
	Accounts map[KeyAccount]Figures
}

// Comparison renders the headline accounts of several companies side by side.
func Comparison(year int, period dart.Period, companies []CompanyFigures) string {
	sep := separator(50)
	lines := []string{fmt.Sprintf("%d년 %s 재무 비교", year, PeriodLabel(period)), sep}
	all := append(append([]KeyAccount(nil), IncomeAccounts...), BalanceAccounts...)
	for _, k := range all {
		if k == TotalAssets {
			lines = append(lines, sep)
		}
		lines = append(lines, "["+string(k)+"]")
		for _, c := range companies {
			name := fmt.Sprintf("%-16s", c.Name)
			f, ok := c.Accounts[k]
			if !ok || !f.Current.Valid {
				lines = append(lines, "  "+name+" -")
				continue
			}
			line := "  " + name + " " + f.Current.String()
			if pc := PercentChange(f.Current, f.Previous); pc != "" {
				line += "  " + pc
			}
			lines = append(lines, line)
		}
		lines = append(lines, "")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \n")
}

// FilterStatements keeps items of one section; an empty section keeps all.
func FilterStatements(items []dart.StatementItem, section Section) []dart.StatementItem {
	if section == "" {
		return items
	}
	out := make([]dart.StatementItem, 0, len(items))
	for _, it := range items {
		if Section(it.SJDiv) == section {
			out = append(out, it)
		}
	}
	return out
}

// FullStatements renders every account line grouped by consecutive section.
func FullStatements(company string, year int, period dart.Period, fs dart.FSDiv, items []dart.StatementItem) string {
	sep := separator(50)
	lines := []string{
		fmt.Sprintf("%s %d년 %s 재무제표 (%s)", company, year, PeriodLabel(period), fsLabel(fs)),
		sep,
	}
	current := ""
	for i, it := range items {
		if i == 0 || it.SJDiv != current {
			current = it.SJDiv
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, "■ "+Section(current).Label(), sep)
		}
		name := it.AccountName
		if d := strings.TrimSpace(it.AccountDetail); d != "" && d != "-" {
			name += "  (" + d + ")"
		}
		lines = append(lines, name, fmt.Sprintf("  당기: %s  |  전기: %s", ParseAmount(it.CurrentAmount), ParseAmount(it.PreviousAmount)))
	}
	lines = append(lines, "", fmt.Sprintf("총 %d개 계정과목", len(items)))
	return strings.Join(lines, "\n")
}
