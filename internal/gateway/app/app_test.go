package app

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"opendart/internal/corpcode"
	"opendart/internal/gateway/config"
	"opendart/internal/gateway/handler/rpc"
	"opendart/internal/mcp"
)

const companyBody = `{"status":"000","message":"정상","corp_code":"00126380","corp_name":"삼성전자(주)","stock_code":"005930","corp_cls":"Y","ceo_nm":"한종희"}`

func newTestApp(t *testing.T) (*App, *httptest.Server) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/company.json" {
			_, _ = io.WriteString(w, companyBody)
			return
		}
		_, _ = io.WriteString(w, `{"status":"013","message":"조회된 데이타가 없습니다."}`)
	}))
	t.Cleanup(upstream.Close)

	cfg := config.Default()
	cfg.APIKey = "test-key"
	cfg.BaseURL = upstream.URL
	cfg.CachePath = "/cache/corp-codes.json"
	cfg.DataPath = "/data/corp-codes.json"

	fs := afero.NewMemMapFs()
	_, err := corpcode.NewStore(fs, cfg.DataPath).Save(&corpcode.Directory{
		ByName:      map[string]string{"삼성전자": "00126380"},
		ByStockCode: map[string]string{"005930": "00126380"},
		ByCorpCode:  map[string]corpcode.CompanyInfo{"00126380": {Name: "삼성전자", StockCode: "005930"}},
	})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	a, err := New(&cfg, log, Options{Fs: fs})
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return a, srv
}

func TestPrepareFindsExistingDirectory(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Equal(t, corpcode.OutcomeExisting, a.Prepare(context.Background()))
}

func TestUpdateCorpCodesTargets(t *testing.T) {
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	w, err := zw.Create("CORPCODE.xml")
	require.NoError(t, err)
	_, err = io.WriteString(w, `<result><list><corp_code>00126380</corp_code><corp_name>삼성전자</corp_name><stock_code>005930</stock_code></list></result>`)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/corpCode.xml", r.URL.Path)
		w.Header().Set("Content-Type", "application/x-msdownload")
		_, _ = w.Write(archive.Bytes())
	}))
	defer upstream.Close()

	cfg := config.Default()
	cfg.APIKey = "test-key"
	cfg.BaseURL = upstream.URL
	cfg.CachePath = "/cache/corp-codes.json"
	cfg.DataPath = "/data/corp-codes.json"
	fs := afero.NewMemMapFs()
	log := logrus.New()
	log.SetOutput(io.Discard)
	a, err := New(&cfg, log, Options{Fs: fs})
	require.NoError(t, err)

	stats, path, err := a.UpdateCorpCodes(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "/data/corp-codes.json", path)
	assert.Equal(t, 1, stats.Total)
	ok, _ := afero.Exists(fs, "/data/corp-codes.json")
	assert.True(t, ok)
	ok, _ = afero.Exists(fs, "/cache/corp-codes.json")
	assert.False(t, ok)

	_, path, err = a.UpdateCorpCodes(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "/cache/corp-codes.json", path)
	ok, _ = afero.Exists(fs, "/cache/corp-codes.json")
	assert.True(t, ok)
}

func TestHTTPTools(t *testing.T) {
	_, srv := newTestApp(t)

	resp, err := http.Get(srv.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
	var list struct {
		Tools []mcp.ToolSpec `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list.Tools, 8)

	resp2, err := http.Post(srv.URL+"/tools/resolve_corp_code", "application/json", strings.NewReader(`{"query":"삼성전자"}`))
	require.NoError(t, err)
	defer resp2.Body.Close()
	body, _ := io.ReadAll(resp2.Body)
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.JSONEq(t, `{"corp_code":"00126380","corp_name":"삼성전자","stock_code":"005930"}`, string(body))
}

func TestHTTPToolErrors(t *testing.T) {
	_, srv := newTestApp(t)
	cases := []struct {
		path, body string
		status     int
		kind       mcp.ErrorKind
	}{
		{"/tools/nope", `{}`, http.StatusNotFound, mcp.KindUnknownTool},
		{"/tools/resolve_corp_code", `{"query":`, http.StatusBadRequest, mcp.KindInvalidInput},
		{"/tools/resolve_corp_code", `{"query":"없는회사"}`, http.StatusNotFound, mcp.KindNotFound},
		{"/tools/get_financial_summary", `{"company":"삼성전자"}`, http.StatusNotFound, mcp.KindNotFound},
	}
	for _, tc := range cases {
		resp, err := http.Post(srv.URL+tc.path, "application/json", strings.NewReader(tc.body))
		require.NoError(t, err)
		var out struct {
			Error mcp.FrameError `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		resp.Body.Close()
		assert.Equal(t, tc.status, resp.StatusCode, tc.path+" "+tc.body)
		assert.Equal(t, tc.kind, out.Error.Kind, tc.path+" "+tc.body)
		assert.NotEmpty(t, out.Error.Message)
	}
}

func TestConnectToolService(t *testing.T) {
	_, srv := newTestApp(t)
	ctx := context.Background()

	list := connect.NewClient[emptypb.Empty, structpb.Struct](srv.Client(), srv.URL+rpc.ListToolsProcedure)
	lres, err := list.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	require.NoError(t, err)
	assert.Len(t, lres.Msg.GetFields()["tools"].GetListValue().GetValues(), 8)

	call := connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+rpc.CallToolProcedure)
	req, err := structpb.NewStruct(map[string]any{
		"name":  "search_company",
		"input": map[string]any{"query": "005930"},
	})
	require.NoError(t, err)
	cres, err := call.CallUnary(ctx, connect.NewRequest(req))
	require.NoError(t, err)
	assert.Equal(t, "search_company", cres.Msg.GetFields()["tool"].GetStringValue())
	text := cres.Msg.GetFields()["output"].GetStructValue().GetFields()["text"].GetStringValue()
	assert.Contains(t, text, "삼성전자(주)")
	assert.Contains(t, text, "대표이사: 한종희")

	bad, err := structpb.NewStruct(map[string]any{"name": "resolve_corp_code", "input": map[string]any{}})
	require.NoError(t, err)
	_, err = call.CallUnary(ctx, connect.NewRequest(bad))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	missing, err := structpb.NewStruct(map[string]any{"name": "nope"})
	require.NoError(t, err)
	_, err = call.CallUnary(ctx, connect.NewRequest(missing))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestWebsocketFrames(t *testing.T) {
	_, srv := newTestApp(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(mcp.CallFrame{ID: "1", Tool: "resolve_corp_code", Input: json.RawMessage(`{"query":"005930"}`)}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))

	got := map[string]mcp.ResultFrame{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for len(got) < 2 {
		var res mcp.ResultFrame
		require.NoError(t, conn.ReadJSON(&res))
		got[res.ID] = res
	}
	require.Contains(t, got, "1")
	assert.Nil(t, got["1"].Error)
	assert.JSONEq(t, `{"corp_code":"00126380","corp_name":"삼성전자","stock_code":"005930"}`, string(got["1"].Output))
	require.Contains(t, got, "")
	require.NotNil(t, got[""].Error)
	assert.Equal(t, mcp.KindInvalidInput, got[""].Error.Kind)
}

func TestStdioLines(t *testing.T) {
	a, _ := newTestApp(t)
	in := strings.NewReader(`{"id":"a","tool":"resolve_corp_code","input":{"query":"삼성전자"}}

garbage
{"id":"b","tool":"search_companies","input":{"query":"삼성"}}
`)
	var out bytes.Buffer
	require.NoError(t, a.ServeLines(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	var first, second, third mcp.ResultFrame
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &third))
	assert.Equal(t, "a", first.ID)
	assert.Nil(t, first.Error)
	require.NotNil(t, second.Error)
	assert.Equal(t, mcp.KindInvalidInput, second.Error.Kind)
	assert.Equal(t, "b", third.ID)
	assert.JSONEq(t, `{"results":[{"corpCode":"00126380","corpName":"삼성전자","stockCode":"005930"}]}`, string(third.Output))
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv := newTestApp(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","directory":{"available":true,"total":1,"listed":1}}`, string(body))

	_, err = http.Post(srv.URL+"/tools/resolve_corp_code", "application/json", strings.NewReader(`{"query":"005930"}`))
	require.NoError(t, err)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `opendart_tool_calls_total{outcome="ok",tool="resolve_corp_code"} 1`)
	assert.Contains(t, string(body), "opendart_corpcode_directory_entries 1")
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newTestApp(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/tools/search_company", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
