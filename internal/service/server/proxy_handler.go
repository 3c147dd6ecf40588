package server

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/filebundler/file-bundler/internal/allowlist"
	"github.com/filebundler/file-bundler/internal/domain"
	"github.com/filebundler/file-bundler/internal/fetcher"
	"github.com/filebundler/file-bundler/internal/metrics"
)

// ProxyHandler handles single-file download requests, relaying one remote
// resource back to the browser as an attachment.
type ProxyHandler struct {
	allow    *allowlist.Allowlist
	fetcher  *fetcher.Client
	maxBytes int64
	logger   *zap.Logger
}

// NewProxyHandler creates a new ProxyHandler
func NewProxyHandler(allow *allowlist.Allowlist, client *fetcher.Client, maxBytes int64, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{
		allow:    allow,
		fetcher:  client,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// HandleDownload handles GET /api/download?url=...&filename=...
// The proxy's error body uses a message field, unlike the bundling endpoint.
func (h *ProxyHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeMessage(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	if err := h.allow.Check(rawURL); err != nil {
		metrics.ProxyRequestsTotal.WithLabelValues("forbidden").Inc()
		writeMessage(w, http.StatusForbidden, err.Error())
		return
	}

	body, contentType, err := h.fetcher.FetchWithType(r.Context(), rawURL, h.maxBytes)
	if err != nil {
		metrics.ProxyRequestsTotal.WithLabelValues("upstream_error").Inc()
		h.logger.Warn("proxy fetch failed", zap.String("url", rawURL), zap.Error(err))
		writeMessage(w, http.StatusBadGateway, "failed to fetch file")
		return
	}

	name := r.URL.Query().Get("filename")
	if name == "" {
		name = domain.ResolveName(domain.DownloadItem{URL: rawURL}, time.Now())
	}
	if contentType == "" {
		contentType = guessContentType(rawURL)
	}

	metrics.ProxyRequestsTotal.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func guessContentType(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ct := mime.TypeByExtension(path.Ext(u.Path)); ct != "" {
			return ct
		}
	}
	return "application/octet-stream"
}

// writeMessage emits the proxy endpoint's JSON error body.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
