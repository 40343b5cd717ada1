package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/xuri/excelize/v2"

	"salessense-go/internal/cache"
	"salessense-go/internal/extractor"
	"salessense-go/internal/llm"
	"salessense-go/internal/logger"
	"salessense-go/internal/pipeline"
	"salessense-go/internal/processor"
	"salessense-go/internal/report"
	"salessense-go/internal/transcription"
)

type failingTranscriber struct{}

func (failingTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "", transcription.ErrTimeout
}

func newTestServer(t *testing.T, tr transcription.Transcriber) (http.Handler, *test.Hook) {
	t.Helper()
	base, hook := test.NewNullLogger()
	log := &logger.Logger{Entry: logrus.NewEntry(base)}
	orch := pipeline.New(llm.Mock{}, extractor.DefaultSettings(), 3, false, log.Component("pipeline"))
	svc := processor.New(orch, tr, cache.New(50, 24*time.Hour), log.Component("processor"))
	return NewHandler(svc, log, 1<<20).Router([]string{"*"}), hook
}

func multipartBody(t *testing.T, fileField string, file []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, "call.mp3")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(file)
	}
	for k, v := range fields {
		w.WriteField(k, v)
	}
	w.Close()
	return &b, w.FormDataContentType()
}

func callFields() map[string]string {
	return map[string]string{
		"participants": "Dana (AE), Lee (CFO)",
		"details":      "Renewal",
		"call_types":   "Discovery, Negotiation",
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, transcription.Mock{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "ok" || body["version"] != Version {
		t.Fatalf("body = %v", body)
	}
}

func TestAnalyzeCallThenCached(t *testing.T) {
	srv, _ := newTestServer(t, transcription.Mock{})

	for i, wantCached := range []bool{false, true} {
		body, ct := multipartBody(t, "audio_file", []byte("fake mp3"), callFields())
		req := httptest.NewRequest(http.MethodPost, "/analyze_call", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("call %d: status = %d body = %s", i, rec.Code, rec.Body.String())
		}
		got := decode(t, rec)
		if got["cached"] != wantCached {
			t.Fatalf("call %d: cached = %v", i, got["cached"])
		}
		for _, k := range []string{"summary", "metrics", "strengths", "improvement_areas", "customer_objections",
			"next_steps", "coaching_tips", "notable_quotes", "processing_time"} {
			if _, ok := got[k]; !ok {
				t.Fatalf("call %d: missing %s", i, k)
			}
		}
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache/stats", nil))
	if stats := decode(t, rec); stats["count"] != float64(1) || stats["capacity"] != float64(50) || stats["ttl_hours"] != float64(24) {
		t.Fatalf("stats = %v", stats)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cache", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cache/stats", nil))
	if stats := decode(t, rec); stats["count"] != float64(0) {
		t.Fatalf("stats after clear = %v", stats)
	}
}

func TestAnalyzeCallValidation(t *testing.T) {
	srv, _ := newTestServer(t, transcription.Mock{})

	tests := []struct {
		name     string
		file     []byte
		field    string
		fields   map[string]string
		wantCode int
		wantMsg  string
	}{
		{"missing file", nil, "", callFields(), http.StatusBadRequest, `missing required file field "audio_file"`},
		{"empty file", []byte{}, "audio_file", callFields(), http.StatusBadRequest, "is empty"},
		{"missing participants", []byte("x"), "audio_file",
			map[string]string{"details": "d", "call_types": "Demo"}, http.StatusBadRequest, "participants"},
		{"blank call types", []byte("x"), "audio_file",
			map[string]string{"participants": "p", "details": "d", "call_types": " , "}, http.StatusBadRequest, "call_types"},
		{"too large", bytes.Repeat([]byte("a"), 2<<20), "audio_file", callFields(), http.StatusRequestEntityTooLarge, "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.field, tt.file, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/analyze_call", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if msg, _ := decode(t, rec)["error"].(string); !strings.Contains(msg, tt.wantMsg) {
				t.Fatalf("error = %q, want it to contain %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestAnalyzeCallTranscriptionFailure(t *testing.T) {
	srv, hook := newTestServer(t, failingTranscriber{})
	body, ct := multipartBody(t, "audio_file", []byte("x"), callFields())
	req := httptest.NewRequest(http.MethodPost, "/analyze_call", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode(t, rec)
	if !strings.HasPrefix(got["error"].(string), "Processing failed") {
		t.Fatalf("error = %v", got["error"])
	}
	if _, ok := got["strengths"].([]any); !ok {
		t.Fatal("fallback body should be schema-complete")
	}
	if !strings.Contains(got["summary"].(string), "transcription timed out") {
		t.Fatalf("summary = %v", got["summary"])
	}

	var sawError bool
	for _, e := range hook.AllEntries() {
		if e.Message == "request completed" && e.Level == logrus.ErrorLevel && e.Data["status"] == http.StatusBadGateway {
			sawError = true
		}
	}
	if !sawError {
		t.Fatal("expected request log at error level")
	}
}

func TestAnalyzeCallXLSX(t *testing.T) {
	srv, _ := newTestServer(t, transcription.Mock{})
	body, ct := multipartBody(t, "audio_file", []byte("fake mp3"), callFields())
	req := httptest.NewRequest(http.MethodPost, "/analyze_call?format=xlsx", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != report.ContentType {
		t.Fatalf("content type = %q", got)
	}
	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 5 || sheets[0] != report.SheetOverview {
		t.Fatalf("sheets = %v", sheets)
	}
}

func TestAnalyzeForm(t *testing.T) {
	srv, _ := newTestServer(t, transcription.Mock{})

	form := url.Values{"transcript": {"Speaker A: hi\nSpeaker B: hello"}, "context": {"Participants: A(rep),B(prospect)"}}
	req := httptest.NewRequest(http.MethodPost, "/analyze/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	got := decode(t, rec)
	if got["summary"] == "" || got["cached"] != false {
		t.Fatalf("body = %v", got)
	}
	m := got["metrics"].(map[string]any)
	if m["rep_talk_ratio_percent"].(float64)+m["customer_talk_ratio_percent"].(float64) != 100 {
		t.Fatalf("metrics = %v", m)
	}

	req = httptest.NewRequest(http.MethodPost, "/analyze/", strings.NewReader("context=only"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(decode(t, rec)["error"].(string), "transcript") {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestTranscribeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, transcription.Mock{})
	body, ct := multipartBody(t, "file", []byte("fake mp3"), nil)
	req := httptest.NewRequest(http.MethodPost, "/transcribe/", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if tr, _ := decode(t, rec)["transcript"].(string); !strings.HasPrefix(tr, "Speaker A:") {
		t.Fatalf("transcript = %q", tr)
	}
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"http://localhost:8501"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		origin string
		method string
		want   string
	}{
		{"allowed origin", "http://localhost:8501", http.MethodGet, "http://localhost:8501"},
		{"disallowed origin", "http://evil.com", http.MethodGet, ""},
		{"preflight", "http://localhost:8501", http.MethodOptions, "http://localhost:8501"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/analyze_call", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Fatalf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCORSCredentialsOnlyForExplicitOrigins(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	tests := []struct {
		name       string
		origins    []string
		wantOrigin string
		wantCreds  string
	}{
		{"wildcard", []string{"*"}, "*", ""},
		{"explicit", []string{"http://localhost:8501"}, "http://localhost:8501", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", "http://localhost:8501")
			rec := httptest.NewRecorder()
			CORS(tt.origins)(ok).ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("Access-Control-Allow-Credentials = %q, want %q", got, tt.wantCreds)
			}
		})
	}
}

func TestRequestLoggerUsesRequestID(t *testing.T) {
	srv, hook := newTestServer(t, transcription.Mock{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	srv.ServeHTTP(httptest.NewRecorder(), req)

	last := hook.LastEntry()
	if last == nil || last.Message != "request completed" {
		t.Fatalf("last entry = %v", last)
	}
	if last.Data["req_id"] != "abc-123" || last.Data["status"] != http.StatusOK {
		t.Fatalf("fields = %v", last.Data)
	}
}
