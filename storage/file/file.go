// Package filestore keeps each cart in its own JSON file.
package filestore

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core/cart"
)

const ext = ".json"

// Storage stores every key as <dir>/<escaped key>.json.
type Storage struct {
	dir string
}

var _ cart.Storage = (*Storage)(nil)

// New creates dir if needed.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating cart dir %s", dir)
	}
	return &Storage{dir: dir}, nil
}

func (s *Storage) Dir() string { return s.dir }

// Path returns the file holding key.
func (s *Storage) Path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+ext)
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cart.ErrNoCart
		}
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return data, nil
}

// Set replaces the file atomically: readers see either the old or the new content.
func (s *Storage) Set(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".cart-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer os.Remove(tmp.Name()) // no-op after the rename

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cErr := tmp.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.Path(key)), "writing %s", key)
}

func (s *Storage) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}
