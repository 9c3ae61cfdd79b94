package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoragePut(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "receipts/2026/01/RCPT-2026-00000001.html", "text/html", []byte("<p>ok</p>"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/receipts/2026/01/RCPT-2026-00000001.html", url)

	data, err := os.ReadFile(filepath.Join(dir, "receipts", "2026", "01", "RCPT-2026-00000001.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", string(data))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "uploads"), "http://localhost/uploads")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../../escape.html", "text/html", []byte("x"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "uploads", "escape.html"))
	assert.NoError(t, err)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Options{Backend: "ftp"})
	assert.Error(t, err)
}
