// Package bundler assembles ZIP archives from sets of remote files.
package bundler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filebundler/file-bundler/internal/allowlist"
	"github.com/filebundler/file-bundler/internal/archive"
	"github.com/filebundler/file-bundler/internal/domain"
	"github.com/filebundler/file-bundler/internal/metrics"
	"github.com/filebundler/file-bundler/internal/port"
)

// Config controls bundle assembly
type Config struct {
	// Concurrency bounds parallel fetches; 1 means strictly sequential.
	Concurrency int

	// MaxFiles caps the number of items per request.
	MaxFiles int

	// MaxFileBytes caps each fetched body; 0 means no cap.
	MaxFileBytes int64

	// MaxTotalBytes is the shared input budget across all items of one
	// request; items past the budget are skipped. 0 means no budget.
	MaxTotalBytes int64
}

// DefaultConfig returns default bundling configuration
func DefaultConfig() *Config {
	return &Config{
		Concurrency:   1,
		MaxFiles:      100,
		MaxFileBytes:  64 * 1024 * 1024,
		MaxTotalBytes: 256 * 1024 * 1024,
	}
}

// Result is one completed bundle
type Result struct {
	ID        uuid.UUID
	ZipName   string
	Data      []byte
	Requested int
	Archived  int
	Skipped   int
}

// Service validates, fetches and archives bundle requests. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	config  *Config
	allow   *allowlist.Allowlist
	fetcher port.Fetcher
	history port.HistoryStore // may be nil
	logger  *zap.Logger
}

// New creates a bundler service. history may be nil to disable the audit log.
func New(cfg *Config, allow *allowlist.Allowlist, fetcher port.Fetcher, history port.HistoryStore, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Service{
		config:  cfg,
		allow:   allow,
		fetcher: fetcher,
		history: history,
		logger:  logger,
	}
}

// Bundle runs the whole pipeline for one request: shape validation, atomic
// allowlist validation of every URL, fetch, archive assembly, serialization.
// Per-item fetch failures drop the item; they never fail the batch, so an
// all-failed request still yields a valid empty archive.
func (s *Service) Bundle(ctx context.Context, req *domain.BundleRequest) (*Result, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		metrics.BundleRequestsTotal.WithLabelValues("bad_request").Inc()
		return nil, err
	}
	if len(req.Files) > s.config.MaxFiles {
		metrics.BundleRequestsTotal.WithLabelValues("bad_request").Inc()
		return nil, fmt.Errorf("%w: %d > %d", domain.ErrTooManyFiles, len(req.Files), s.config.MaxFiles)
	}

	// Every URL is validated before the first fetch: one disallowed URL
	// rejects the whole batch with zero network activity.
	urls := make([]string, len(req.Files))
	for i, f := range req.Files {
		urls[i] = f.URL
	}
	if err := s.allow.ValidateAll(urls); err != nil {
		metrics.BundleRequestsTotal.WithLabelValues("forbidden").Inc()
		return nil, err
	}

	results := s.fetchAll(ctx, req.Files)

	// Commit results to the archive in declaration order, so on filename
	// collision the last-declared item wins even under concurrent fetches.
	builder := archive.NewBuilder()
	skipped := 0
	for _, res := range results {
		if !res.OK() {
			skipped++
			metrics.BundleFilesTotal.WithLabelValues("skipped").Inc()
			s.logger.Warn("skipping file",
				zap.String("url", res.Item.URL),
				zap.Error(res.Err))
			continue
		}
		metrics.BundleFilesTotal.WithLabelValues("archived").Inc()
		builder.Add(res.Name, res.Data)
	}

	data, err := builder.Bytes()
	if err != nil {
		metrics.BundleRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to serialize archive: %w", err)
	}

	result := &Result{
		ID:        uuid.New(),
		ZipName:   req.ResolveZipName(),
		Data:      data,
		Requested: len(req.Files),
		Archived:  builder.Len(),
		Skipped:   skipped,
	}

	metrics.BundleRequestsTotal.WithLabelValues("ok").Inc()
	metrics.BundleBytesTotal.Add(float64(len(data)))
	metrics.BundleDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("bundle assembled",
		zap.String("bundle_id", result.ID.String()),
		zap.String("zip_name", result.ZipName),
		zap.Int("requested", result.Requested),
		zap.Int("archived", result.Archived),
		zap.Int("skipped", result.Skipped),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))

	s.recordHistory(result)
	return result, nil
}

// fetchAll retrieves all items with at most Concurrency fetches in flight.
// The returned slice is indexed by declaration position.
func (s *Service) fetchAll(ctx context.Context, items []domain.DownloadItem) []domain.FetchResult {
	results := make([]domain.FetchResult, len(items))
	budget := newByteBudget(s.config.MaxTotalBytes)

	workers := s.config.Concurrency
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = s.fetchOne(ctx, items[idx], budget)
		}(i)
	}
	wg.Wait()

	return results
}

func (s *Service) fetchOne(ctx context.Context, item domain.DownloadItem, budget *byteBudget) domain.FetchResult {
	res := domain.FetchResult{
		Item: item,
		Name: domain.ResolveName(item, time.Now()),
	}

	if !budget.hasRemaining() {
		res.Err = domain.ErrBudgetExhausted
		return res
	}

	data, err := s.fetcher.Fetch(ctx, item.URL, s.config.MaxFileBytes)
	if err != nil {
		res.Err = err
		return res
	}

	if !budget.debit(int64(len(data))) {
		res.Err = domain.ErrBudgetExhausted
		return res
	}

	res.Data = data
	return res
}

func (s *Service) recordHistory(result *Result) {
	if s.history == nil {
		return
	}
	record := &domain.BundleRecord{
		ID:             result.ID,
		ZipName:        result.ZipName,
		FilesRequested: result.Requested,
		FilesArchived:  result.Archived,
		FilesSkipped:   result.Skipped,
		TotalBytes:     int64(len(result.Data)),
		CreatedAt:      time.Now().UTC(),
	}
	// History is best-effort: a failed insert never fails the bundle.
	if err := s.history.RecordBundle(record); err != nil {
		s.logger.Error("failed to record bundle history",
			zap.String("bundle_id", result.ID.String()),
			zap.Error(err))
	}
}

// byteBudget is a concurrency-safe input-size budget shared by the fetches
// of one request.
type byteBudget struct {
	mu        sync.Mutex
	remaining int64
	unlimited bool
}

func newByteBudget(max int64) *byteBudget {
	return &byteBudget{remaining: max, unlimited: max <= 0}
}

func (b *byteBudget) hasRemaining() bool {
	if b.unlimited {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining > 0
}

func (b *byteBudget) debit(n int64) bool {
	if b.unlimited {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.remaining {
		return false
	}
	b.remaining -= n
	return true
}
