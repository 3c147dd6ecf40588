package sqlite

import (
	"time"

	"github.com/google/uuid"

	"github.com/filebundler/file-bundler/internal/domain"
)

// RecordBundle inserts one completed bundle into the audit log
func (s *Store) RecordBundle(record *domain.BundleRecord) error {
	query := `
		INSERT INTO bundles (
			id, zip_name, files_requested, files_archived, files_skipped, total_bytes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(query,
		record.ID.String(), record.ZipName,
		record.FilesRequested, record.FilesArchived, record.FilesSkipped,
		record.TotalBytes, createdAt)
	return err
}

// RecentBundles returns the newest bundle records, up to limit
func (s *Store) RecentBundles(limit int) ([]*domain.BundleRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, zip_name, files_requested, files_archived, files_skipped, total_bytes, created_at
		FROM bundles
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.BundleRecord
	for rows.Next() {
		var (
			rec   domain.BundleRecord
			rawID string
		)
		if err := rows.Scan(&rawID, &rec.ZipName,
			&rec.FilesRequested, &rec.FilesArchived, &rec.FilesSkipped,
			&rec.TotalBytes, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if id, err := uuid.Parse(rawID); err == nil {
			rec.ID = id
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
