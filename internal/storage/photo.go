package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the route the upload directory is served under.
const URLPrefix = "/uploads"

var (
	ErrUnsupportedType = errors.New("unsupported photo type")
	ErrTooLarge        = errors.New("photo too large")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// PhotoStore saves profile photos and returns their public URL.
type PhotoStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	// Remove deletes a photo previously returned by Save. URLs this store
	// did not issue are ignored.
	Remove(ctx context.Context, url string) error
}

type Config struct {
	Dir     string
	BaseURL string
	MaxSize int64
}

type localStore struct {
	dir     string
	baseURL string
	maxSize int64
}

func NewLocalStore(cfg Config) (PhotoStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &localStore{
		dir:     cfg.Dir,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		maxSize: cfg.MaxSize,
	}, nil
}

func (s *localStore) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}
	if s.maxSize > 0 && file.Size > s.maxSize {
		return "", ErrTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create photo: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to write photo: %w", err)
	}

	return s.baseURL + URLPrefix + "/" + name, nil
}

func (s *localStore) Remove(_ context.Context, url string) error {
	prefix := s.baseURL + URLPrefix + "/"
	if url == "" || !strings.HasPrefix(url, prefix) {
		return nil
	}
	name := path.Base(strings.TrimPrefix(url, prefix))
	if name == "." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove photo: %w", err)
	}
	return nil
}

// Dir is the directory photos are written to.
func Dir(store PhotoStore) string {
	if s, ok := store.(*localStore); ok {
		return s.dir
	}
	return ""
}

// IsRejected reports whether err means the upload itself was unacceptable.
func IsRejected(err error) bool {
	return errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrTooLarge)
}
