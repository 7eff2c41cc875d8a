package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirStore keeps one file per record in a directory, named {A}_{B}.csv.
// This is the layout written by the external registration command.
type DirStore struct {
	Dir string
}

func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{Dir: dir}, nil
}

func (s *DirStore) Path(key Key) string {
	return filepath.Join(s.Dir, key.Filename())
}

func (s *DirStore) Exists(ctx context.Context, key Key) (bool, error) {
	return existsByLoad(ctx, s, key)
}

func (s *DirStore) Load(ctx context.Context, key Key) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	return ReadFile(s.Path(key), key)
}

func (s *DirStore) Save(ctx context.Context, key Key, rec Record) error {
	ok, err := s.Exists(ctx, key)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}

	// Records appear under their final name only once completely written.
	f, err := os.CreateTemp(s.Dir, "."+key.Stem()+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := Write(f, rec); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.Path(key)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *DirStore) Invalidate(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
