package tokenstore

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/session"
)

// FileStorage persists the raw session token as a single file, the portal's
// localStorage analogue.
type FileStorage struct {
	path string
}

var _ session.TokenStorage = (*FileStorage)(nil)

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (fs *FileStorage) Load() (string, bool, error) {
	data, err := ioutil.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "reading token file")
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", false, nil
	}
	return raw, true, nil
}

func (fs *FileStorage) Save(raw string) error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return errors.Wrap(err, "creating token dir")
	}
	return errors.Wrap(ioutil.WriteFile(fs.path, []byte(raw), 0o600), "writing token file")
}

func (fs *FileStorage) Clear() error {
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing token file")
	}
	return nil
}
