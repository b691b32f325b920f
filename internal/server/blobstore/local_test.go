package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestLocalStorage_Store(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	st, err := NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)

	ts := time.UnixMilli(1_700_000_000_123)
	st.now = func() time.Time { return ts }

	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF")
	path, err := st.Store(context.Background(), jpeg)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1700000000123.jpg", path)

	b, err := os.ReadFile(filepath.Join(dir, "1700000000123.jpg"))
	require.NoError(t, err)
	assert.Equal(t, jpeg, b)

	// same millisecond, next free name
	path, err = st.Store(context.Background(), jpeg)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1700000000124.jpg", path)
}

func TestLocalStorage_ExtensionFollowsContent(t *testing.T) {
	dir := t.TempDir()
	st, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)
	st.now = func() time.Time { return time.UnixMilli(1) }

	polyglot := append(append([]byte{}, pngData...), "<html><script>alert(1)</script>"...)
	path, err := st.Store(context.Background(), polyglot)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1.png", path)
}

func TestLocalStorage_RejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	st, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)

	_, err = st.Store(context.Background(), []byte("<html><script>alert(1)</script>"))
	assert.ErrorIs(t, err, ErrNotImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	st, err := NewLocalStorage(t.TempDir(), "/uploads/")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = st.Store(ctx, pngData)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := &config.Config{StorageBackend: config.StorageLocal, UploadDir: t.TempDir(), UploadURLPrefix: "/uploads/"}
	st, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, st)

	_, err = New(context.Background(), &config.Config{StorageBackend: "ftp"})
	assert.Error(t, err)
}
