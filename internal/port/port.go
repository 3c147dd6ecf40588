// Package port defines the interfaces between services and adapters.
package port

import (
	"context"

	"github.com/filebundler/file-bundler/internal/domain"
)

// Fetcher retrieves a remote resource, bounded to maxBytes when positive.
type Fetcher interface {
	Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, error)
}

// HistoryStore persists completed bundle records for the audit endpoint.
type HistoryStore interface {
	RecordBundle(record *domain.BundleRecord) error
	RecentBundles(limit int) ([]*domain.BundleRecord, error)
	Close() error
}
