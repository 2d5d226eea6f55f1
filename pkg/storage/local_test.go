package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageUploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	resp, err := store.Upload(context.Background(), &UploadRequest{
		Key:         "pod/org-1/r-1/s-1.jpg",
		Reader:      strings.NewReader("jpeg-bytes"),
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/uploads/pod/org-1/r-1/s-1.jpg", resp.URL)
	assert.Equal(t, int64(10), resp.Size)

	data, err := os.ReadFile(filepath.Join(dir, "pod", "org-1", "r-1", "s-1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, store.Delete(context.Background(), "pod/org-1/r-1/s-1.jpg"))
	_, err = os.Stat(filepath.Join(dir, "pod", "org-1", "r-1", "s-1.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), &UploadRequest{Key: "../outside.jpg", Reader: strings.NewReader("x")})
	assert.Error(t, err)
}
