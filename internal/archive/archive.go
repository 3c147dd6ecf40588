// Package archive assembles in-memory ZIP containers for one request.
package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// Builder accumulates named byte buffers and serializes them into a single
// ZIP archive. A later Add with the same name overwrites the earlier entry.
// Builders are request-scoped and not safe for concurrent use.
type Builder struct {
	order   []string
	entries map[string][]byte
}

// NewBuilder creates an empty archive builder.
func NewBuilder() *Builder {
	return &Builder{
		entries: make(map[string][]byte),
	}
}

// Add stores data under name, replacing any previous entry with that name
// while keeping the original position in the archive.
func (b *Builder) Add(name string, data []byte) {
	if _, ok := b.entries[name]; !ok {
		b.order = append(b.order, name)
	}
	b.entries[name] = data
}

// Len returns the number of entries the archive will contain.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Bytes serializes the archive with deflate at maximum compression.
// An empty builder yields a valid empty ZIP.
func (b *Builder) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, name := range b.order {
		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to create archive entry %q: %w", name, err)
		}
		if _, err := w.Write(b.entries[name]); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write archive entry %q: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Extract parses a serialized ZIP back into a filename to bytes mapping.
func Extract(data []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %q: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %q: %w", f.Name, err)
		}
		out[f.Name] = content
	}
	return out, nil
}
