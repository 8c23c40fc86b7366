// Package diskstore keeps uploaded files in a local directory.
package diskstore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/roster/core/media"
)

type Store struct {
	dir string
}

var _ media.Store = (*Store)(nil) // interface compliance check

// New returns a Store writing into dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) (string, error) {
	clean, ok := media.CleanName(name)
	if !ok {
		return "", media.ErrNotFound
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *Store) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	fp, err := s.path(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(fp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o660)
	if err != nil {
		return errors.Wrapf(err, "creating %s", name)
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fp)
		return errors.Wrapf(err, "writing %s", name)
	}
	return errors.Wrapf(f.Close(), "closing %s", name)
}

func (s *Store) Open(_ context.Context, name string) (io.ReadCloser, error) {
	fp, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, media.ErrNotFound
		}
		return nil, errors.Wrapf(err, "opening %s", name)
	}
	return f, nil
}

func (s *Store) Delete(_ context.Context, name string) error {
	fp, err := s.path(name)
	if err != nil {
		return err
	}
	if err = os.Remove(fp); err != nil {
		if os.IsNotExist(err) {
			return media.ErrNotFound
		}
		return errors.Wrapf(err, "removing %s", name)
	}
	return nil
}
