// Package localfs writes report files to a local directory.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

// Writer implements domain.BlobWriter on the local filesystem. Files are
// written to a temp file and renamed so readers never see partial output.
type Writer struct {
	root string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir}
}

// Put writes data to root/path, creating parent directories.
func (w *Writer) Put(_ context.Context, path string, data io.Reader, _ string) error {
	dst := filepath.Join(w.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("localfs: create dir for %s: %w", dst, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-"+filepath.Base(dst)+"-*")
	if err != nil {
		return fmt.Errorf("localfs: create temp for %s: %w", dst, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("localfs: write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("localfs: close %s: %w", dst, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("localfs: chmod %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("localfs: rename to %s: %w", dst, err)
	}
	return nil
}

var _ domain.BlobWriter = (*Writer)(nil)
