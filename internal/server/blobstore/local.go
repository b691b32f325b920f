package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/filex"
)

const maxNameAttempts = 5

// LocalStorage writes blobs into a directory served statically under urlPrefix.
type LocalStorage struct {
	dir       string
	urlPrefix string
	now       func() time.Time
}

// NewLocalStorage creates dir if needed.
func NewLocalStorage(dir, urlPrefix string) (*LocalStorage, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("upload dir error: %w", err)
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStorage{dir: abs, urlPrefix: urlPrefix, now: time.Now}, nil
}

// Dir is the absolute directory files are written to.
func (s *LocalStorage) Dir() string { return s.dir }

// Store writes data as <unix-millis><ext>. A name already taken within the
// same millisecond moves on to the next millisecond.
func (s *LocalStorage) Store(ctx context.Context, data []byte) (string, error) {
	ext := filex.ImageExt(data)
	if ext == "" {
		return "", ErrNotImage
	}
	ts := s.now()

	for i := 0; i < maxNameAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		name := filex.UploadName(ext, ts.Add(time.Duration(i)*time.Millisecond))
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create upload: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("write upload: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close upload: %w", err)
		}

		return s.urlPrefix + name, nil
	}

	return "", errors.New("could not pick a free upload name")
}
