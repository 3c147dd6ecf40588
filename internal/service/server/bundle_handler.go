package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/filebundler/file-bundler/internal/domain"
	"github.com/filebundler/file-bundler/internal/service/bundler"
)

// BundleHandler handles ZIP bundling requests
type BundleHandler struct {
	service      *bundler.Service
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewBundleHandler creates a new BundleHandler
func NewBundleHandler(service *bundler.Service, maxBodyBytes int64, logger *zap.Logger) *BundleHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1024 * 1024
	}
	return &BundleHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// HandleBundle handles POST /api/zip: fetch the requested files and return
// them as a single ZIP attachment.
func (h *BundleHandler) HandleBundle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req domain.BundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.service.Bundle(r.Context(), &req)
	if err != nil {
		h.writeBundleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.ZipName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set("X-Bundle-ID", result.ID.String())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.Warn("failed to write archive response",
			zap.String("bundle_id", result.ID.String()),
			zap.Error(err))
	}
}

func (h *BundleHandler) writeBundleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoFiles):
		writeError(w, http.StatusBadRequest, "No files provided")
	case errors.Is(err, domain.ErrEmptyURL), errors.Is(err, domain.ErrTooManyFiles):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbiddenDomain), errors.Is(err, domain.ErrMalformedURL):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("bundle request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build archive")
	}
}
