package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"hotel-desk-backend/internal/domain"
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Saver writes occupant photos below a directory.
type Saver struct {
	dir      string
	maxBytes int64
}

func NewSaver(dir string, maxBytes int64) *Saver {
	return &Saver{dir: dir, maxBytes: maxBytes}
}

// Save stores fh under a random name and returns its path relative to the
// working directory. Oversized files and non-image extensions are rejected.
func (s *Saver) Save(field string, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", domain.ValidationError{Field: field, Msg: fmt.Sprintf("unsupported file type %q", ext)}
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return "", domain.ValidationError{Field: field, Msg: fmt.Sprintf("file larger than %d bytes", s.maxBytes)}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	path := filepath.Join(s.dir, uuid.NewString()+ext)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	var r io.Reader = src
	if s.maxBytes > 0 {
		r = io.LimitReader(src, s.maxBytes+1)
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = domain.ValidationError{Field: field, Msg: fmt.Sprintf("file larger than %d bytes", s.maxBytes)}
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Remove deletes previously saved files. Missing files are ignored.
func (s *Saver) Remove(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
