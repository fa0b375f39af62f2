// Package storage persists uploaded report files on local disk.  The
// database only ever records metadata (original name, stored name); the
// bytes live under a single uploads directory with collision-free names.
package storage

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// allowedExts mirrors the document types the portal accepts.  Anything
// else is rejected before a project or report row is created.
var allowedExts = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true,
	".xlsx": true, ".xls": true, ".csv": true,
	".png": true, ".jpg": true, ".jpeg": true,
}

// AllowedFile reports whether the original filename carries an accepted
// extension.  The comparison is case-insensitive.
func AllowedFile(name string) bool {
	return allowedExts[strings.ToLower(filepath.Ext(name))]
}

// FileStore writes and resolves report files under a base directory.
type FileStore struct {
	dir string
}

// NewFileStore ensures the base directory exists and returns a store over
// it.  The directory is created with 0755 so the server user owns it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Save copies an uploaded multipart file to disk under a unique stored
// name and returns that name.  The stored name is a random UUID with the
// original extension appended, so concurrent uploads of the same filename
// never collide and the original name stays purely presentational.
func (s *FileStore) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	stored := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		// Best effort cleanup; a half-written file must not be served.
		_ = os.Remove(dst.Name())
		return "", err
	}
	return stored, nil
}

// Path resolves a stored name to its absolute location for download
// handlers.  The stored name is generated server-side, but Base() is
// applied anyway so a corrupted row cannot escape the uploads directory.
func (s *FileStore) Path(storedName string) string {
	return filepath.Join(s.dir, filepath.Base(storedName))
}
