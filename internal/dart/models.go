package dart

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Company is the company.json profile.
type Company struct {
	CorpCode     string `json:"corp_code"`
	CorpName     string `json:"corp_name"`
	CorpNameEng  string `json:"corp_name_eng"`
	StockName    string `json:"stock_name"`
	StockCode    string `json:"stock_code"`
	CEOName      string `json:"ceo_nm"`
	CorpClass    string `json:"corp_cls"`
	JurirNo      string `json:"jurir_no"`
	BizrNo       string `json:"bizr_no"`
	Address      string `json:"adres"`
	HomepageURL  string `json:"hm_url"`
	IRURL        string `json:"ir_url"`
	Phone        string `json:"phn_no"`
	Fax          string `json:"fax_no"`
	IndustryCode string `json:"induty_code"`
	EstDate      string `json:"est_dt"`
	AccMonth     string `json:"acc_mt"`
}

func (c *Company) validate() error {
	if strings.TrimSpace(c.CorpCode) == "" || strings.TrimSpace(c.CorpName) == "" {
		return fmt.Errorf("company.json: corp_code and corp_name are required")
	}
	return nil
}

// Disclosure is one filing in list.json.
type Disclosure struct {
	CorpCode    string `json:"corp_code"`
	CorpName    string `json:"corp_name"`
	StockCode   string `json:"stock_code"`
	CorpClass   string `json:"corp_cls"`
	ReportName  string `json:"report_nm"`
	ReceiptNo   string `json:"rcept_no"`
	FilerName   string `json:"flr_nm"`
	ReceiptDate string `json:"rcept_dt"`
	Remark      string `json:"rm"`
}

// DisclosureList is the list.json page.
type DisclosureList struct {
	PageNo     int          `json:"page_no"`
	PageCount  int          `json:"page_count"`
	TotalCount int          `json:"total_count"`
	TotalPage  int          `json:"total_page"`
	List       []Disclosure `json:"list"`
}

func (l *DisclosureList) validate() error {
	for i, d := range l.List {
		if strings.TrimSpace(d.ReceiptNo) == "" || strings.TrimSpace(d.ReportName) == "" {
			return fmt.Errorf("list.json: item %d: rcept_no and report_nm are required", i)
		}
	}
	return nil
}

// Account is one key account from fnlttSinglAcnt.json / fnlttMultiAcnt.json.
type Account struct {
	ReceiptNo        string `json:"rcept_no"`
	ReportCode       string `json:"reprt_code"`
	BusinessYear     string `json:"bsns_year"`
	CorpCode         string `json:"corp_code"`
	StockCode        string `json:"stock_code"`
	FSDiv            string `json:"fs_div"`
	FSName           string `json:"fs_nm"`
	SJDiv            string `json:"sj_div"`
	SJName           string `json:"sj_nm"`
	AccountName      string `json:"account_nm"`
	CurrentName      string `json:"thstrm_nm"`
	CurrentDate      string `json:"thstrm_dt"`
	CurrentAmount    string `json:"thstrm_amount"`
	PreviousName     string `json:"frmtrm_nm"`
	PreviousDate     string `json:"frmtrm_dt"`
	PreviousAmount   string `json:"frmtrm_amount"`
	BeforePrevName   string `json:"bfefrmtrm_nm"`
	BeforePrevDate   string `json:"bfefrmtrm_dt"`
	BeforePrevAmount string `json:"bfefrmtrm_amount"`
	Order            string `json:"ord"`
	Currency         string `json:"currency"`
}

// AccountList is the key-account response.
type AccountList struct {
	List []Account `json:"list"`
}

func (l *AccountList) validate() error {
	for i, a := range l.List {
		if strings.TrimSpace(a.AccountName) == "" {
			return fmt.Errorf("account list: item %d: account_nm is required", i)
		}
	}
	return nil
}

// StatementItem is one line of fnlttSinglAcntAll.json.
type StatementItem struct {
	ReceiptNo        string `json:"rcept_no"`
	ReportCode       string `json:"reprt_code"`
	BusinessYear     string `json:"bsns_year"`
	CorpCode         string `json:"corp_code"`
	SJDiv            string `json:"sj_div"`
	SJName           string `json:"sj_nm"`
	AccountID        string `json:"account_id"`
	AccountName      string `json:"account_nm"`
	AccountDetail    string `json:"account_detail"`
	CurrentName      string `json:"thstrm_nm"`
	CurrentAmount    string `json:"thstrm_amount"`
	CurrentAddAmount string `json:"thstrm_add_amount"`
	PreviousName     string `json:"frmtrm_nm"`
	PreviousAmount   string `json:"frmtrm_amount"`
	BeforePrevName   string `json:"bfefrmtrm_nm"`
	BeforePrevAmount string `json:"bfefrmtrm_amount"`
	Order            string `json:"ord"`
	Currency         string `json:"currency"`
}

// StatementList is the full financial statement response.
type StatementList struct {
	List []StatementItem `json:"list"`
}

func (l *StatementList) validate() error {
	for i, it := range l.List {
		if strings.TrimSpace(it.SJDiv) == "" || strings.TrimSpace(it.AccountName) == "" {
			return fmt.Errorf("statement list: item %d: sj_div and account_nm are required", i)
		}
	}
	return nil
}

type validator interface {
	validate() error
}

// decode unmarshals body into out, ignoring unknown fields, and validates
// required fields.
func decode(endpoint string, body json.RawMessage, out validator) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("dart: decode %s: %w", endpoint, err)
	}
	if err := out.validate(); err != nil {
		return fmt.Errorf("dart: %w", err)
	}
	return nil
}
