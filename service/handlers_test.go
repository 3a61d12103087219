package service

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/tidwall/gjson"
)

// uploadRequest builds a multipart request carrying the provided file and fields.
func uploadRequest(t *testing.T, target string, filename string, data []byte, fields map[string]string) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		assert.NoError(t, err)
		_, err = part.Write(data)
		assert.NoError(t, err)
	}

	for k, v := range fields {
		err := mw.WriteField(k, v)
		assert.NoError(t, err)
	}

	err := mw.Close()
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func setupChart(t *testing.T) (*Chart, []byte) {
	chart, err := NewChart(testConfig())
	assert.NoError(t, err)

	data, err := os.ReadFile("../testdata/intraday.csv")
	assert.NoError(t, err)

	return chart, data
}

func serve(chart *Chart, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	chart.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleIndex(t *testing.T) {
	chart, _ := setupChart(t)

	// Ensure the upload page lists the timeframes.
	rec := serve(chart, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.True(t, rec.Header().Get("X-Request-ID") != "")

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, chartTitle))
	assert.True(t, strings.Contains(body, `accept=".csv,.xlsx"`))
	for _, label := range []string{"1 min", "5 min", "10 min", "15 min", "1 hour"} {
		assert.True(t, strings.Contains(body, label))
	}
	assert.True(t, strings.Contains(body, `<option value="1m" selected>`))

	// Ensure unknown paths are not served.
	rec = serve(chart, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, rec.Code, http.StatusNotFound)
}

func TestHandleChart(t *testing.T) {
	chart, data := setupChart(t)

	// Ensure a chart can be computed for an upload.
	rec := serve(chart, uploadRequest(t, "/api/chart", "intraday.csv", data,
		map[string]string{"timeframe": "5m"}))
	assert.Equal(t, rec.Code, http.StatusOK)

	res := gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, res.Get("status").String(), "ok")
	assert.Equal(t, res.Get("timeframe").String(), "5m")
	assert.Equal(t, res.Get("date").String(), "2024-01-02")
	assert.Equal(t, res.Get("bars").Int(), int64(2))
	assert.Equal(t, len(res.Get("dates").Array()), 2)
	assert.True(t, strings.Contains(res.Get("chart").String(), "VWAP (HLC)"))
	assert.Equal(t, chart.renders.Load(), uint64(1))

	// Ensure the timeframe can be selected by its label and the date by value.
	rec = serve(chart, uploadRequest(t, "/api/chart", "intraday.csv", data,
		map[string]string{"timeframe": "1 min", "date": "2024-01-03"}))
	res = gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, res.Get("status").String(), "ok")
	assert.Equal(t, res.Get("timeframe").String(), "1m")
	assert.Equal(t, res.Get("bars").Int(), int64(2))
}

func TestHandleChartFailures(t *testing.T) {
	chart, data := setupChart(t)

	// Ensure requests without an upload prompt for one.
	rec := serve(chart, uploadRequest(t, "/api/chart", "", nil, nil))
	assert.Equal(t, rec.Code, http.StatusOK)
	res := gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, res.Get("status").String(), "info")
	assert.True(t, res.Get("message").String() != "")
	assert.True(t, !res.Get("chart").Exists())

	// Ensure selecting a date without rows warns and keeps the available dates.
	rec = serve(chart, uploadRequest(t, "/api/chart", "intraday.csv", data,
		map[string]string{"date": "2024-02-01"}))
	assert.Equal(t, rec.Code, http.StatusOK)
	res = gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, res.Get("status").String(), "warning")
	assert.Equal(t, len(res.Get("dates").Array()), 2)
	assert.True(t, !res.Get("chart").Exists())

	// Ensure files without valid dates are errors.
	rec = serve(chart, uploadRequest(t, "/api/chart", "bad.csv", []byte("a,b,1,2,3,4,5,6\n"), nil))
	assert.Equal(t, rec.Code, http.StatusBadRequest)
	res = gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, res.Get("status").String(), "error")
	assert.True(t, strings.Contains(res.Get("message").String(), "no valid dates"))

	// Ensure unsupported formats, timeframes and dates are errors.
	rec = serve(chart, uploadRequest(t, "/api/chart", "intraday.txt", data, nil))
	assert.Equal(t, rec.Code, http.StatusBadRequest)

	rec = serve(chart, uploadRequest(t, "/api/chart", "intraday.csv", data,
		map[string]string{"timeframe": "3m"}))
	assert.Equal(t, rec.Code, http.StatusBadRequest)

	rec = serve(chart, uploadRequest(t, "/api/chart", "intraday.csv", data,
		map[string]string{"date": "02/01/2024"}))
	assert.Equal(t, rec.Code, http.StatusBadRequest)

	// Ensure oversized uploads are rejected.
	large := bytes.Repeat([]byte("2024-01-02,09:30:00,1,1,1,1,1,0\n"), (1<<20)/32+1024)
	rec = serve(chart, uploadRequest(t, "/api/chart", "large.csv", large, nil))
	assert.Equal(t, rec.Code, http.StatusBadRequest)

	assert.Equal(t, chart.renders.Load(), uint64(0))
	assert.Equal(t, chart.failures.Load(), uint64(6))
}

func TestHandleExport(t *testing.T) {
	chart, data := setupChart(t)

	// Ensure bars can be exported as json.
	rec := serve(chart, uploadRequest(t, "/api/export?format=json", "intraday.csv", data,
		map[string]string{"timeframe": "5m"}))
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, rec.Header().Get("Content-Disposition"),
		`attachment; filename="intraday-2024-01-02-5m.json"`)

	res := gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, len(res.Array()), 2)
	assert.Equal(t, res.Get("0.open").Float(), float64(100))

	// Ensure bars can be exported as csv and parquet.
	rec = serve(chart, uploadRequest(t, "/api/export?format=csv", "intraday.csv", data, nil))
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "date,open,high,low,close,volume,vwap"))

	rec = serve(chart, uploadRequest(t, "/api/export?format=parquet", "intraday.csv", data, nil))
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PAR1")))
	assert.Equal(t, chart.exports.Load(), uint64(3))

	// Ensure unsupported export formats are rejected.
	rec = serve(chart, uploadRequest(t, "/api/export?format=xml", "intraday.csv", data, nil))
	assert.Equal(t, rec.Code, http.StatusBadRequest)

	// Ensure exports without an upload prompt for one.
	rec = serve(chart, uploadRequest(t, "/api/export?format=csv", "", nil, nil))
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, gjson.GetBytes(rec.Body.Bytes(), "status").String(), "info")
}

func TestHandleHealth(t *testing.T) {
	chart, data := setupChart(t)

	serve(chart, uploadRequest(t, "/api/chart", "intraday.csv", data, nil))

	// Ensure the health endpoint reports the service counters.
	rec := serve(chart, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, rec.Code, http.StatusOK)

	res := gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, res.Get("status").String(), "ok")
	assert.Equal(t, res.Get("renders").Int(), int64(1))
	assert.Equal(t, res.Get("failures").Int(), int64(0))
	assert.True(t, res.Get("uptime").Exists())
}
