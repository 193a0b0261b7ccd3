package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/logscope/internal/chart"
	"github.com/atikulmunna/logscope/internal/logging"
	"github.com/atikulmunna/logscope/internal/model"
	"github.com/atikulmunna/logscope/internal/sysmetrics"
	"github.com/atikulmunna/logscope/internal/table"
)

var sample = []model.LogEntry{
	{Message: "2024-01-01 10:00:00 login ok", Level: "INFO", Type: "Auth", Severity: "Low", UserActivity: "Login"},
	{Message: "disk failure Error Code: E500", Level: "ERROR", Type: "System", Severity: "High", UserActivity: "Upload"},
	{Message: "retry (attempt 2) scheduled", Level: "INFO", Type: "System", Severity: "Low"},
	{Message: "", Level: "WARN", Type: "Auth", Severity: "Medium", UserActivity: "Logout"},
}

func newTestServer(entries []model.LogEntry) *Server {
	probes := sysmetrics.Probes{
		CPUPercent: func(context.Context) (float64, error) { return 33.3, nil },
		Batteries:  func(context.Context) ([]sysmetrics.Battery, error) { return nil, sysmetrics.ErrNoSensor },
	}
	collector := sysmetrics.NewCollector(probes, sysmetrics.Options{}, nil)
	charts := chart.NewRenderer(chart.Options{Width: 4, Height: 3, DPI: 72})
	return New(table.New(entries), charts, collector, logging.Discard(), "0")
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, httptest.NewRequest(http.MethodGet, path, nil))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestDashboardAssets(t *testing.T) {
	s := newTestServer(sample)

	rec := get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "logscope")

	rec = get(t, s, "/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
}

func TestLogData(t *testing.T) {
	body := decode(t, get(t, newTestServer(sample), "/api/log_data"))

	records := body["log_data"].([]any)
	require.Len(t, records, 4)
	last := records[3].(map[string]any)
	assert.Nil(t, last["Log Message"])

	levels := body["log_level_counts"].(map[string]any)
	assert.Equal(t, 2.0, levels["INFO"])
	assert.Equal(t, 1.0, levels["ERROR"])

	activity := body["user_activity_counts"].(map[string]any)
	assert.Equal(t, 1.0, activity[model.Unknown])
	for _, key := range []string{"log_type_counts", "log_severity_counts"} {
		assert.Contains(t, body, key)
	}
}

func TestStatistics(t *testing.T) {
	body := decode(t, get(t, newTestServer(sample), "/api/statistics"))

	assert.Equal(t, 4.0, body["rows"])
	// 4 + 5 + 4 + 0 words over 4 rows.
	assert.Equal(t, 3.25, body["average_word_count"])
	assert.NotContains(t, body, "errors")

	codes := body["error_code_counts"].(map[string]any)
	assert.Equal(t, 1.0, codes["E500"])
	assert.Equal(t, 3.0, codes[model.Unknown])
}

func TestStatisticsEmptyInput(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/statistics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	assert.Nil(t, body["average_word_count"])
	assert.Nil(t, body["average_digit_count"])

	errs := body["errors"].(map[string]any)
	wordErr := errs["average_word_count"].(map[string]any)
	assert.Equal(t, string(KindEmptyInput), wordErr["kind"])
}

func TestVisualization(t *testing.T) {
	body := decode(t, get(t, newTestServer(sample), "/api/visualization"))

	charts := body["charts"].(map[string]any)
	assert.Len(t, charts, len(chart.Names()))
	for _, name := range chart.Names() {
		assert.NotEmpty(t, charts[name], name)
	}
	assert.Empty(t, body["errors"])
}

func TestVisualizationEmptyDataset(t *testing.T) {
	body := decode(t, get(t, newTestServer(nil), "/api/visualization"))

	assert.Empty(t, body["charts"])
	errs := body["errors"].(map[string]any)
	assert.Len(t, errs, len(chart.Names()))
	first := errs[chart.LogLevelPlot].(map[string]any)
	assert.Equal(t, string(KindRender), first["kind"])
}

func TestChartPNG(t *testing.T) {
	s := newTestServer(sample)

	rec := get(t, s, "/api/charts/"+chart.LogSeverityPie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	rec = get(t, s, "/api/charts/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errBody := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, string(KindNotFound), errBody["kind"])
}

func TestChartEmptyDataset(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/charts/"+chart.LogLevelPlot)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errBody := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, string(KindRender), errBody["kind"])
}

func TestSearch(t *testing.T) {
	s := newTestServer(sample)

	body := decode(t, get(t, s, "/api/search?keyword=DISK"))
	assert.Equal(t, 1.0, body["count"])
	hit := body["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "E500", hit["error_code"])
	assert.Equal(t, 5.0, hit["word_count"])

	// Regex metacharacters are matched literally.
	body = decode(t, get(t, s, "/api/search?keyword="+url.QueryEscape("(attempt 2)")))
	assert.Equal(t, 1.0, body["count"])

	body = decode(t, get(t, s, "/api/search?keyword=.*"))
	assert.Equal(t, 0.0, body["count"])
}

func TestSearchPostForm(t *testing.T) {
	form := url.Values{"keyword": {"login"}}
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body := decode(t, do(t, newTestServer(sample), req))
	assert.Equal(t, "login", body["keyword"])
	assert.Equal(t, 1.0, body["count"])
}

func TestSearchMissingKeyword(t *testing.T) {
	rec := get(t, newTestServer(sample), "/api/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decode(t, rec)["error"].(map[string]any)
	assert.Equal(t, string(KindBadRequest), errBody["kind"])
}

func TestMonitoring(t *testing.T) {
	body := decode(t, get(t, newTestServer(sample), "/api/monitoring"))

	assert.Equal(t, 33.3, body["cpu_percent"])
	battery := body["battery"].(map[string]any)
	assert.Equal(t, false, battery["available"])
	// Probes left unset are reported, not fatal.
	assert.Contains(t, body["errors"], "memory_percent")
}

func TestSendAlert(t *testing.T) {
	s := newTestServer(sample)
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := do(t, s, httptest.NewRequest(method, "/api/send_alert", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decode(t, rec)["success"])
	}
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(sample)

	rec := get(t, s, "/healthz")
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 4.0, body["rows"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = do(t, s, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestMonitoringSocket(t *testing.T) {
	ts := httptest.NewServer(newTestServer(sample).Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/monitoring"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("snapshot")))

		var snap map[string]any
		require.NoError(t, conn.ReadJSON(&snap))
		assert.Equal(t, 33.3, snap["cpu_percent"])
	}
}
