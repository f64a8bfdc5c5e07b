package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalStore writes objects under a directory served by the API at its public base URL.
type LocalStore struct {
	dir     string
	baseURL string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		dir = "media"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media directory")
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

// Dir is the root directory of the store.
func (st *LocalStore) Dir() string {
	return st.dir
}

func (st *LocalStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	clean := filepath.Clean("/" + key) // rooted, so ".." cannot climb out of dir
	if clean == "/" {
		return "", errors.Errorf("invalid object key %q", key)
	}
	path := filepath.Join(st.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "creating object directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return "", errors.Wrap(err, "writing object")
	}
	if err = tmp.Close(); err != nil {
		return "", errors.Wrap(err, "closing object")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(err, "moving object")
	}
	return publicURL(st.baseURL, filepath.ToSlash(clean)), nil
}
