// Package registration obtains pairwise records from registration backends.
package registration

import (
	"context"
	"errors"
	"fmt"

	"github.com/seqsense/pcchain/record"
	"github.com/seqsense/pcchain/scan"
)

var ErrFailed = errors.New("registration failed")

// Registrar registers scan b against its predecessor a. The returned record
// has been persisted to the store under record.Key{A: a.Name, B: b.Name}.
type Registrar interface {
	Register(ctx context.Context, a, b scan.Scan) (record.Record, error)
}

// Error is returned by registrars. It matches ErrFailed with errors.Is.
type Error struct {
	A, B string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("registration of %s -> %s failed: %v", e.A, e.B, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrFailed
}

func failed(a, b scan.Scan, err error) error {
	return &Error{A: a.Name, B: b.Name, Err: err}
}

// Key returns the record key of the pair (a, b).
func Key(a, b scan.Scan) record.Key {
	return record.Key{A: a.Name, B: b.Name}
}

// persist saves rec unless the store already holds a well-formed record
// for key, and returns what the store holds afterwards.
func persist(ctx context.Context, store record.Store, key record.Key, rec record.Record) (record.Record, error) {
	ok, err := store.Exists(ctx, key)
	if err != nil && !errors.Is(err, record.ErrCorrupt) {
		return record.Record{}, err
	}
	if !ok {
		if err := store.Save(ctx, key, rec); err != nil {
			return record.Record{}, err
		}
	}
	return store.Load(ctx, key)
}
