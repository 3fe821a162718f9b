package docstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FSBlobs stores each key as a file under dir.
type FSBlobs struct {
	dir string
}

func NewFSBlobs(dir string) (*FSBlobs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}
	return &FSBlobs{dir: dir}, nil
}

func (b *FSBlobs) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read file")
	}
	return data, true, nil
}

// Put writes a temp file next to the target and renames it over.
func (b *FSBlobs) Put(_ context.Context, key string, value []byte) error {
	f, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmp := f.Name()
	if _, err := f.Write(value); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrap(err, "write temp file")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrap(err, "sync temp file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp, filepath.Join(b.dir, key)); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}

func (b *FSBlobs) Close() error { return nil }
