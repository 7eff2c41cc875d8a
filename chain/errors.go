package chain

import (
	"errors"
	"fmt"

	"github.com/seqsense/pcchain/record"
)

var (
	ErrNoScans = errors.New("no scans")
	// ErrNonFiniteTranslation is returned for a record whose translation
	// holds NaN or Inf.
	ErrNonFiniteTranslation = errors.New("non-finite translation")
)

// PairError reports the pair at which the chain stopped.
type PairError struct {
	Key record.Key
	Err error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("pair %s: %v", e.Key, e.Err)
}

func (e *PairError) Unwrap() error {
	return e.Err
}
