// Package filex contains filesystem helpers for locally stored uploads.
package filex

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// imageExts maps the content types accepted for uploads to the extension
// a stored file gets. The client-supplied file name never picks it.
var imageExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// EnsureDir creates dir (relative paths resolve against the working
// directory) and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// ImageExt returns the extension for the image type sniffed from data, or
// "" when data is not a PNG, JPEG, GIF or WebP image.
func ImageExt(data []byte) string {
	return imageExts[http.DetectContentType(data)]
}

// IsImageName reports whether name ends in one of the extensions ImageExt
// hands out.
func IsImageName(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// UploadName builds a stored file name "<unix-millis><ext>".
func UploadName(ext string, now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + ext
}
