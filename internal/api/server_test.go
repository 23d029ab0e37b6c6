package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/chart"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	opt := analysis.DefaultOptions()
	opt.SkipAI = true
	return NewServer(Options{
		Analysis: opt,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func salesCSV() string {
	var b strings.Builder
	b.WriteString("date,revenue,region\n")
	regions := []string{"North", "South", "East"}
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "2024-01-%02d,%d,%s\n", i+1, 100+i*5, regions[i%3])
	}
	return b.String()
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("write form: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestUploadCSV(t *testing.T) {
	s := newTestServer(t)
	req := uploadRequest(t, "../../sales.csv", salesCSV())
	req.Header.Set(CorrelationHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(CorrelationHeader); got != "abc-123" {
		t.Fatalf("correlation id not echoed: %q", got)
	}
	if rec.Header().Get("X-Response-Time") == "" {
		t.Fatalf("missing X-Response-Time")
	}
	var res analysis.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Filename != "sales.csv" {
		t.Fatalf("filename not sanitized: %q", res.Filename)
	}
	if res.RecommendedChart.ChartType != chart.Area || res.RecommendedChart.XColumn != "date" {
		t.Fatalf("unexpected recommendation %+v", res.RecommendedChart)
	}
	if len(res.Dataset) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(res.Dataset))
	}
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name, file, content string
		status              int
		code                string
	}{
		{"pdf", "report.pdf", "%PDF-1.4", http.StatusBadRequest, CodeInvalidFileType},
		{"empty", "empty.csv", "", http.StatusBadRequest, CodeFileEmpty},
		{"blank", "blank.csv", "a,b\n,\n,\n", http.StatusBadRequest, CodeParseError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, uploadRequest(t, tc.file, tc.content))
		if rec.Code != tc.status {
			t.Fatalf("%s: status %d, want %d", tc.name, rec.Code, tc.status)
		}
		var er ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if er.Code != tc.code || er.Message == "" || er.CorrelationID == "" {
			t.Fatalf("%s: unexpected error body %+v", tc.name, er)
		}
	}
}

func TestUploadTooLarge(t *testing.T) {
	opt := analysis.DefaultOptions()
	opt.SkipAI = true
	opt.MaxFileBytes = 64
	s := NewServer(Options{Analysis: opt, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "sales.csv", salesCSV()))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), CodeFileTooLarge) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func analyze(t *testing.T, s *Server) []byte {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "q1_sales.csv", salesCSV()))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status %d", rec.Code)
	}
	return rec.Body.Bytes()
}

func TestShareRoundTrip(t *testing.T) {
	s := newTestServer(t)
	result := analyze(t, s)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/share?expires_hours=2", bytes.NewReader(result)))
	if rec.Code != http.StatusOK {
		t.Fatalf("share status %d: %s", rec.Code, rec.Body.String())
	}
	var info ShareInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.ExpiresInHours != 2 || info.URL != "/share/"+info.Token {
		t.Fatalf("unexpected share info %+v", info)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/share/"+info.Token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get share status %d", rec.Code)
	}
	if !bytes.Equal(bytes.TrimSpace(rec.Body.Bytes()), bytes.TrimSpace(result)) {
		t.Fatalf("shared result differs from the original")
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/share/does-not-exist", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), CodeNotFound) {
		t.Fatalf("expected 404 NOT_FOUND, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestShareRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	result := analyze(t, s)
	for _, h := range []string{"0", "169", "soon"} {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/share?expires_hours="+h, bytes.NewReader(result)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expires_hours=%s: status %d", h, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/share", strings.NewReader(`{"filename":"x.csv"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("result without profile: status %d", rec.Code)
	}
}

func TestStory(t *testing.T) {
	s := newTestServer(t)
	result := analyze(t, s)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/story", bytes.NewReader(result)))
	if rec.Code != http.StatusOK {
		t.Fatalf("story status %d", rec.Code)
	}
	var body struct {
		Story struct {
			Title string `json:"title"`
		} `json:"story"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Story.Title != "Q1 Sales - Insights & Trends" {
		t.Fatalf("unexpected title %q", body.Story.Title)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/story?format=markdown", bytes.NewReader(result)))
	if !strings.HasPrefix(rec.Body.String(), "# Q1 Sales - Insights & Trends") {
		t.Fatalf("unexpected markdown %q", rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "q1_sales.csv_report.md") {
		t.Fatalf("missing attachment name")
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	analyze(t, s)
	analyze(t, s)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	var m Metrics
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	d := m.Performance["request_duration"]
	if d.Count != 2 || d.Min > d.Max || d.P50 > d.P95 {
		t.Fatalf("unexpected duration summary %+v", d)
	}
	if m.Cache["files_cache"].Hits != 1 {
		t.Fatalf("expected a file cache hit, got %+v", m.Cache)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd":   "passwd",
		`C:\data\sales.csv`:  "sales.csv",
		"  ..hidden.csv.. ":  "hidden.csv",
		"bad\x00name\n.csv": "badname.csv",
		"...":                "unknown",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDurationSummary(t *testing.T) {
	var m requestMetrics
	if got := m.summary(); got != (DurationSummary{}) {
		t.Fatalf("expected zero summary, got %+v", got)
	}
	for i := 100; i >= 1; i-- {
		m.record(time.Duration(i) * time.Millisecond)
	}
	s := m.summary()
	if s.Count != 100 {
		t.Fatalf("count=%d", s.Count)
	}
	if s.Min != 0.001 || s.Max != 0.1 {
		t.Fatalf("bounds=%v..%v", s.Min, s.Max)
	}
	if s.Avg < 0.0504 || s.Avg > 0.0506 {
		t.Fatalf("avg=%v", s.Avg)
	}
	if s.P50 < 0.049 || s.P50 > 0.052 {
		t.Fatalf("p50=%v", s.P50)
	}
	if s.P95 < 0.094 || s.P95 > 0.097 || s.P95 < s.P50 {
		t.Fatalf("p95=%v p50=%v", s.P95, s.P50)
	}

	for i := 0; i < metricsWindow; i++ {
		m.record(time.Second)
	}
	s = m.summary()
	if s.Count != 100+metricsWindow || s.Min != 1 || s.P50 != 1 {
		t.Fatalf("window did not roll over: %+v", s)
	}
}
