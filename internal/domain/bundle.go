package domain

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultZipName is used when the request does not name the archive.
const DefaultZipName = "files.zip"

// DownloadItem describes one remote resource to include in an archive.
type DownloadItem struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// BundleRequest describes which remote files to package and under what
// archive name. Constructed per request, never persisted.
type BundleRequest struct {
	Files   []DownloadItem `json:"files"`
	ZipName string         `json:"zipName,omitempty"`
}

// Validate checks the request shape. It must pass before any network
// activity happens.
func (r *BundleRequest) Validate() error {
	if len(r.Files) == 0 {
		return ErrNoFiles
	}
	for i, f := range r.Files {
		if strings.TrimSpace(f.URL) == "" {
			return fmt.Errorf("file %d: %w", i, ErrEmptyURL)
		}
	}
	return nil
}

// ResolveZipName returns the archive filename for the response, falling back
// to DefaultZipName and guaranteeing a .zip suffix.
func (r *BundleRequest) ResolveZipName() string {
	name := strings.TrimSpace(r.ZipName)
	if name == "" {
		return DefaultZipName
	}
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		name += ".zip"
	}
	return name
}

// ResolveName determines the archive entry name for an item: the explicit
// filename when given, else the last path segment of the URL, else a
// synthesized file-<timestamp> name.
func ResolveName(item DownloadItem, now time.Time) string {
	if name := strings.TrimSpace(item.Filename); name != "" {
		return name
	}
	if u, err := url.Parse(item.URL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}
	return fmt.Sprintf("file-%d", now.Unix())
}

// FetchResult is the outcome of retrieving one item. Failed items carry
// their error explicitly so the drop-on-failure policy stays visible to
// callers instead of hiding in control flow.
type FetchResult struct {
	Item DownloadItem
	Name string
	Data []byte
	Err  error
}

// OK returns true when the item was retrieved and belongs in the archive.
func (r *FetchResult) OK() bool {
	return r.Err == nil
}

// BundleRecord is one row of the optional bundle history.
type BundleRecord struct {
	ID             uuid.UUID
	ZipName        string
	FilesRequested int
	FilesArchived  int
	FilesSkipped   int
	TotalBytes     int64
	CreatedAt      time.Time
}
