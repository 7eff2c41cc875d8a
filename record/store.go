package record

import (
	"context"
	"errors"
)

// Store persists records keyed by ordered scan pairs.
//
// A well-formed record is never overwritten by Save. Invalidate must be
// called explicitly before a pair can be registered again.
type Store interface {
	// Exists is true iff a well-formed record is present. A present but
	// malformed record returns false and a *CorruptError.
	Exists(ctx context.Context, key Key) (bool, error)
	Load(ctx context.Context, key Key) (Record, error)
	Save(ctx context.Context, key Key, rec Record) error
	Invalidate(ctx context.Context, key Key) error
}

// Refresh replaces the record of key.
func Refresh(ctx context.Context, s Store, key Key, rec Record) error {
	if err := s.Invalidate(ctx, key); err != nil {
		return err
	}
	return s.Save(ctx, key, rec)
}

// existsByLoad implements Store.Exists on top of Load.
func existsByLoad(ctx context.Context, s Store, key Key) (bool, error) {
	_, err := s.Load(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
