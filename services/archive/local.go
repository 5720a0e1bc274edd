package archive

import (
	"context"
	"os"
	"path/filepath"

	"sjsage522/pricewatch/pkg/errors"
)

// LocalTarget writes objects below a directory, for development
type LocalTarget struct {
	dir string
}

var _ Target = (*LocalTarget)(nil)

// NewLocalTarget creates dir if needed
func NewLocalTarget(dir string) (*LocalTarget, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewStorage("create archive dir", err)
	}
	return &LocalTarget{dir: dir}, nil
}

// Put writes data to dir/key through a temp file so readers never see a partial copy
func (l *LocalTarget) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(l.dir, filepath.Clean("/"+key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewStorage("create archive dir", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".archive-*")
	if err != nil {
		return errors.NewStorage("create archive temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewStorage("write archive", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.NewStorage("write archive", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewStorage("write archive", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.NewStorage("rename archive", err)
	}
	return nil
}

// Close is a no-op
func (l *LocalTarget) Close() error {
	return nil
}
