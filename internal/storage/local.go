package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// LocalStore keeps objects under a directory served at a public URL prefix.
type LocalStore struct {
	fs         afero.Fs
	publicPath string
}

// NewLocalStore roots a store at dir on the OS filesystem.
func NewLocalStore(dir, publicPath string) *LocalStore {
	if dir == "" {
		dir = "storage/app/public"
	}
	return NewLocalStoreFs(afero.NewBasePathFs(afero.NewOsFs(), dir), publicPath)
}

// NewLocalStoreFs builds a store over any afero filesystem.
func NewLocalStoreFs(fsys afero.Fs, publicPath string) *LocalStore {
	if publicPath == "" {
		publicPath = "/storage"
	}
	return &LocalStore{fs: fsys, publicPath: strings.TrimRight(publicPath, "/")}
}

func (s *LocalStore) Driver() string { return "local" }

func (s *LocalStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	f, err := s.fs.OpenFile(key, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(key)
		return fmt.Errorf("write upload: %w", err)
	}
	return f.Close()
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(key); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return s.publicPath + "/" + strings.TrimLeft(key, "/")
}

// Exists reports whether key is present.
func (s *LocalStore) Exists(key string) bool {
	ok, err := afero.Exists(s.fs, key)
	return err == nil && ok
}
