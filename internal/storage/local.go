package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes files under a directory served statically at publicPath.
type LocalStorage struct {
	dir        string
	publicPath string
}

func NewLocalStorage(dir, publicPath string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &LocalStorage{dir: dir, publicPath: "/" + strings.Trim(publicPath, "/")}, nil
}

func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) PublicPath() string { return s.publicPath }

func (s *LocalStorage) Save(ctx context.Context, name, _ string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = filepath.Base(name)
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}

	return path.Join(s.publicPath, name), nil
}

// Delete removes the file behind publicURL. Missing files are not an error.
func (s *LocalStorage) Delete(_ context.Context, publicURL string) error {
	name, ok := strings.CutPrefix(publicURL, s.publicPath+"/")
	if !ok || name == "" {
		return fmt.Errorf("url %q is not served by local storage", publicURL)
	}

	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
