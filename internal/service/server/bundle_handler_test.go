package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/filebundler/file-bundler/internal/allowlist"
	"github.com/filebundler/file-bundler/internal/archive"
	"github.com/filebundler/file-bundler/internal/fetcher"
	"github.com/filebundler/file-bundler/internal/service/bundler"
)

func newBundleHandler(t *testing.T) *BundleHandler {
	t.Helper()
	al, err := allowlist.New([]string{"127.0.0.1"})
	if err != nil {
		t.Fatalf("allowlist.New() failed: %v", err)
	}
	svc := bundler.New(nil, al, fetcher.New(nil), nil, zap.NewNop())
	return NewBundleHandler(svc, 0, zap.NewNop())
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("content of " + r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postBundle(t *testing.T, h *BundleHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/zip", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleBundle(rec, req)
	return rec
}

func TestBundleHandler_Success(t *testing.T) {
	upstream := newUpstream(t)
	h := newBundleHandler(t)

	body := `{
		"files": [
			{"url": "` + upstream.URL + `/a/report.pdf"},
			{"url": "` + upstream.URL + `/b/data.csv", "filename": "renamed.csv"}
		],
		"zipName": "export.zip"
	}`

	rec := postBundle(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="export.zip"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if cl := rec.Header().Get("Content-Length"); cl != strconv.Itoa(rec.Body.Len()) {
		t.Errorf("Content-Length = %q, body is %d bytes", cl, rec.Body.Len())
	}
	if rec.Header().Get("X-Bundle-ID") == "" {
		t.Error("X-Bundle-ID header missing")
	}

	entries, err := archive.Extract(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not a valid ZIP: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("archive has %d entries, want 2", len(entries))
	}
	if string(entries["report.pdf"]) != "content of /a/report.pdf" {
		t.Errorf("report.pdf content mismatch")
	}
	if _, ok := entries["renamed.csv"]; !ok {
		t.Errorf("explicit filename not honored, entries: %v", keys(entries))
	}
}

func TestBundleHandler_EmptyFiles(t *testing.T) {
	h := newBundleHandler(t)

	for _, body := range []string{`{}`, `{"files": []}`} {
		rec := postBundle(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("body %s: error body is not JSON: %v", body, err)
		}
		if resp["error"] != "No files provided" {
			t.Errorf("body %s: error = %q, want %q", body, resp["error"], "No files provided")
		}
	}
}

func TestBundleHandler_ForbiddenDomain(t *testing.T) {
	h := newBundleHandler(t)

	rec := postBundle(t, h, `{"files": [{"url": "https://outside.example.org/a.pdf"}]}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if resp["error"] == "" {
		t.Error("error body missing error field")
	}
}

func TestBundleHandler_MalformedJSON(t *testing.T) {
	h := newBundleHandler(t)

	rec := postBundle(t, h, `{"files": [`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBundleHandler_MethodNotAllowed(t *testing.T) {
	h := newBundleHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/zip", nil)
	rec := httptest.NewRecorder()
	h.HandleBundle(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestBundleHandler_AllFetchesFail(t *testing.T) {
	upstream := newUpstream(t)
	h := newBundleHandler(t)

	body := `{"files": [
		{"url": "` + upstream.URL + `/missing/1.pdf"},
		{"url": "` + upstream.URL + `/missing/2.pdf"}
	]}`

	rec := postBundle(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (failed fetches are not fatal)", rec.Code)
	}

	entries, err := archive.Extract(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not a valid ZIP: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("archive has %d entries, want 0", len(entries))
	}
}

func TestBundleHandler_PartialFailure(t *testing.T) {
	upstream := newUpstream(t)
	h := newBundleHandler(t)

	body := `{"files": [
		{"url": "` + upstream.URL + `/ok/kept.txt"},
		{"url": "` + upstream.URL + `/missing/gone.txt"}
	]}`

	rec := postBundle(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	entries, err := archive.Extract(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not a valid ZIP: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("archive has %d entries, want 1", len(entries))
	}
	if _, ok := entries["kept.txt"]; !ok {
		t.Errorf("successful item missing, entries: %v", keys(entries))
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestBundleHandler_DefaultZipName(t *testing.T) {
	upstream := newUpstream(t)
	h := newBundleHandler(t)

	rec := postBundle(t, h, `{"files": [{"url": "`+upstream.URL+`/a/x.txt"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="files.zip"` {
		t.Errorf("Content-Disposition = %q, want default files.zip", cd)
	}
}
