package corpcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<result>
  <list>
    <corp_code>00126380</corp_code>
    <corp_name>삼성전자</corp_name>
    <stock_code>005930</stock_code>
    <modify_date>20230110</modify_date>
  </list>
  <list>
    <corp_code>434003</corp_code>
    <corp_name>  다코  </corp_name>
    <stock_code> </stock_code>
    <modify_date>20170630</modify_date>
  </list>
  <list>
    <corp_code>00164779</corp_code>
    <corp_name>에스케이하이닉스</corp_name>
    <stock_code>660</stock_code>
    <modify_date>20230110</modify_date>
  </list>
  <list>
    <corp_code>00999999</corp_code>
    <corp_name>다코</corp_name>
    <stock_code>0</stock_code>
    <modify_date>20200101</modify_date>
  </list>
  <list>
    <corp_code></corp_code>
    <corp_name>nameless code</corp_name>
  </list>
</result>`

func TestParseRecords(t *testing.T) {
	recs, err := ParseRecords(strings.NewReader(sampleXML))
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, Record{CorpCode: "00126380", CorpName: "삼성전자", StockCode: "005930", ModifyDate: "20230110"}, recs[0])
	assert.Equal(t, "  다코  ", recs[1].CorpName)
}

func TestParseRecordsRejectsBrokenXML(t *testing.T) {
	_, err := ParseRecords(strings.NewReader(`<result><list><corp_code>1</list></result>`))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Record
		want Entry
		ok   bool
	}{
		{"pads corp code", Record{CorpCode: "434003", CorpName: "다코"}, Entry{CorpCode: "00434003", CorpName: "다코"}, true},
		{"pads stock code", Record{CorpCode: "00164779", CorpName: "SK", StockCode: " 660 "}, Entry{CorpCode: "00164779", CorpName: "SK", StockCode: "000660"}, true},
		{"zero stock code is unlisted", Record{CorpCode: "1", CorpName: "x", StockCode: "0"}, Entry{CorpCode: "00000001", CorpName: "x"}, true},
		{"trims name", Record{CorpCode: "12345678", CorpName: "  Acme \n"}, Entry{CorpCode: "12345678", CorpName: "Acme"}, true},
		{"missing code", Record{CorpName: "x"}, Entry{}, false},
		{"missing name", Record{CorpCode: "1", CorpName: "  "}, Entry{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild(t *testing.T) {
	recs, err := ParseRecords(strings.NewReader(sampleXML))
	require.NoError(t, err)

	dir, stats := Build(recs)
	assert.Equal(t, BuildStats{Records: 5, Total: 4, Listed: 2, Skipped: 1}, stats)

	assert.Equal(t, "00126380", dir.ByStockCode["005930"])
	assert.Equal(t, "00164779", dir.ByStockCode["000660"])
	assert.Len(t, dir.ByStockCode, 2)

	// Later duplicate name wins in ByName; both remain in ByCorpCode.
	assert.Equal(t, "00999999", dir.ByName["다코"])
	assert.Equal(t, CompanyInfo{Name: "다코"}, dir.ByCorpCode["00434003"])
	assert.Equal(t, CompanyInfo{Name: "다코"}, dir.ByCorpCode["00999999"])

	assert.Equal(t, CompanyInfo{Name: "삼성전자", StockCode: "005930"}, dir.ByCorpCode["00126380"])
}

func TestClassify(t *testing.T) {
	assert.Equal(t, QueryCorpCode, Classify("00126380"))
	assert.Equal(t, QueryStockCode, Classify("005930"))
	assert.Equal(t, QueryName, Classify("0059301"))
	assert.Equal(t, QueryName, Classify("삼성"))
	assert.Equal(t, QueryName, Classify("１２３４５６"))
	assert.Equal(t, QueryName, Classify(""))
}
