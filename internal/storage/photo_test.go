package storage

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["photo"][0]
}

func TestLocalStore_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(Config{Dir: dir, BaseURL: "http://localhost:5000/"})
	require.NoError(t, err)

	url, err := store.Save(context.Background(), fileHeader(t, "me.PNG", []byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:5000/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	name := filepath.Base(url)
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Remove(context.Background(), url))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	// removing twice is not an error
	assert.NoError(t, store.Remove(context.Background(), url))
}

func TestLocalStore_RejectsUnsupportedType(t *testing.T) {
	store, err := NewLocalStore(Config{Dir: t.TempDir(), BaseURL: "http://localhost"})
	require.NoError(t, err)

	_, err = store.Save(context.Background(), fileHeader(t, "script.sh", []byte("#!/bin/sh")))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocalStore_RejectsLargeFile(t *testing.T) {
	store, err := NewLocalStore(Config{Dir: t.TempDir(), BaseURL: "http://localhost", MaxSize: 4})
	require.NoError(t, err)

	_, err = store.Save(context.Background(), fileHeader(t, "big.jpg", []byte("0123456789")))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLocalStore_RemoveIgnoresForeignURLs(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.jpg")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

	store, err := NewLocalStore(Config{Dir: dir, BaseURL: "http://localhost"})
	require.NoError(t, err)

	assert.NoError(t, store.Remove(context.Background(), "https://cdn.example.com/uploads/keep.jpg"))
	assert.NoError(t, store.Remove(context.Background(), ""))
	_, err = os.Stat(keep)
	assert.NoError(t, err)
}
