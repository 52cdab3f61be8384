package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/desertthunder/contentforge/internal/shared"
)

// uploadURLPrefix is the public prefix of locally stored files.
const uploadURLPrefix = "/tmp/uploads/"

// AllowedUploadTypes are the accepted upload content types.
var AllowedUploadTypes = []string{
	"audio/mpeg",
	"audio/wav",
	"audio/mp4",
	"audio/ogg",
	"video/mp4",
	"video/quicktime",
	"video/webm",
	"text/plain",
	"text/markdown",
	"application/pdf",
}

// StoredFile is where an upload ended up.
type StoredFile struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Storage persists uploaded files.
type Storage interface {
	Upload(ctx context.Context, name, contentType string, size int64, r io.Reader) (*StoredFile, error)
	FileResolver
}

// LocalStorage writes uploads to a directory on disk.
type LocalStorage struct {
	dir      string
	maxBytes int64
}

// NewLocalStorage stores files under dir, rejecting uploads larger than maxMB megabytes.
func NewLocalStorage(dir string, maxMB int64) *LocalStorage {
	if maxMB <= 0 {
		maxMB = 500
	}
	return &LocalStorage{dir: dir, maxBytes: maxMB * 1024 * 1024}
}

// MaxBytes is the largest accepted upload.
func (s *LocalStorage) MaxBytes() int64 { return s.maxBytes }

// ValidateUpload checks size and type. Text and Markdown files are accepted by extension.
func (s *LocalStorage) ValidateUpload(name, contentType string, size int64) error {
	if name == "" {
		return fmt.Errorf("%w: no file provided", shared.ErrUpload)
	}
	if size > s.maxBytes {
		return fmt.Errorf("%w: file too large. Maximum size is %dMB", shared.ErrUpload, s.maxBytes/1024/1024)
	}

	mediaType, _, _ := strings.Cut(contentType, ";")
	if slices.Contains(AllowedUploadTypes, strings.TrimSpace(mediaType)) {
		return nil
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext == ".txt" || ext == ".md" {
		return nil
	}
	return fmt.Errorf("%w: file type not supported", shared.ErrUpload)
}

// Upload validates and writes r under a generated file name that keeps the original extension.
func (s *LocalStorage) Upload(ctx context.Context, name, contentType string, size int64, r io.Reader) (*StoredFile, error) {
	if err := s.ValidateUpload(name, contentType, size); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename := shared.GenerateID() + strings.ToLower(filepath.Ext(name))
	dest := filepath.Join(s.dir, filename)

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	// One byte past the limit detects bodies that lie about their size.
	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = fmt.Errorf("%w: file too large. Maximum size is %dMB", shared.ErrUpload, s.maxBytes/1024/1024)
	}
	if err != nil {
		os.Remove(dest)
		return nil, err
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		abs = dest
	}
	return &StoredFile{URL: uploadURLPrefix + filename, Path: abs}, nil
}

// Path resolves an upload URL (or bare file name) to its location on disk.
func (s *LocalStorage) Path(ref string) (string, error) {
	name := path.Base(strings.TrimPrefix(ref, uploadURLPrefix))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("%w: invalid file reference %q", shared.ErrInvalidInput, ref)
	}

	p := filepath.Join(s.dir, name)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: file %s", shared.ErrNotFound, name)
	}
	return p, nil
}
