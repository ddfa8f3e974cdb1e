package local

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidFilename is returned for names that do not resolve to a file
// directly inside the upload directory.
var ErrInvalidFilename = errors.New("invalid filename")

// Store is the transient storage area for uploaded product pictures. Files
// kept here may be cleared between deployments; the URL path returned by
// URLPath is only as durable as the directory itself.
type Store interface {
	Save(file *multipart.FileHeader) (string, error)
	Remove(filename string) error
	Path(filename string) (string, error)
}

// DiskStore writes uploads to a local directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed and returns a store
// rooted at it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// maxNameAttempts caps the retries when two uploads land on the same
// clock reading.
const maxNameAttempts = 5

// Save writes the uploaded file under a nanosecond-timestamp name and
// returns the stored filename. Names are claimed with O_EXCL, so a
// simultaneous submission can never truncate an earlier upload; on a
// collision the name is recomputed from a fresh clock reading.
func (s *DiskStore) Save(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() { _ = src.Close() }()

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := storedName(file.Filename)
		path := filepath.Join(s.dir, name)

		dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create upload file: %w", err)
		}

		if _, err := io.Copy(dst, src); err != nil {
			_ = dst.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("failed to write upload file: %w", err)
		}
		if err := dst.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("failed to close upload file: %w", err)
		}
		return name, nil
	}

	return "", fmt.Errorf("failed to allocate a unique name for upload %s", file.Filename)
}

// Remove deletes a stored upload. Removing a file that is already gone is
// not an error.
func (s *DiskStore) Remove(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload %s: %w", filename, err)
	}
	return nil
}

// Path returns the on-disk location of a stored upload, failing with
// os.ErrNotExist when it is absent.
func (s *DiskStore) Path(filename string) (string, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *DiskStore) resolve(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.dir, filename), nil
}

// URLPath returns the public retrieval path for a stored filename.
func URLPath(filename string) string {
	return "/api/images/" + filename
}

// timeNow is swapped out in tests to force name collisions.
var timeNow = time.Now

func storedName(original string) string {
	ts := timeNow().UnixNano()
	if ext := strings.ToLower(filepath.Ext(original)); ext != "" {
		return fmt.Sprintf("%d%s", ts, ext)
	}
	return fmt.Sprintf("%d-%s", ts, sanitizeBase(original))
}

func sanitizeBase(name string) string {
	base := filepath.Base(name)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "upload"
	}
	return base
}
