// Package record persists the pairwise transforms between consecutive scans.
//
// A record is the rigid transform reported by the registration backend for
// the ordered pair (A, B). It maps points of A's frame into B's frame
// (B_T_A); consumers building a chain from A to B must invert it.
package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/seqsense/pcchain/mat"
	"github.com/seqsense/pcchain/orientation"
)

const (
	numValues = 7
	header    = "qw qx qy qz tx ty tz"
	// Extension of record files.
	Extension = ".csv"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("record already exists")
	ErrCorrupt  = errors.New("record corrupt")
)

// CorruptError describes a persisted record which could not be parsed.
type CorruptError struct {
	Key    Key
	Reason string
}

func (e *CorruptError) Error() string {
	if e.Key == (Key{}) {
		return "record corrupt: " + e.Reason
	}
	return fmt.Sprintf("record %s corrupt: %s", e.Key, e.Reason)
}

func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

// Key identifies the record of an ordered scan pair by the scan names.
type Key struct {
	A, B string
}

// Stem is the output name passed to the registration backend.
func (k Key) Stem() string {
	return k.A + "_" + k.B
}

func (k Key) Filename() string {
	return k.Stem() + Extension
}

func (k Key) String() string {
	return k.A + " -> " + k.B
}

type Record struct {
	Orientation orientation.Quaternion
	Translation mat.Vec3
}

// Values returns the record in file order: w, x, y, z, tx, ty, tz.
func (r Record) Values() [numValues]float64 {
	return [numValues]float64{
		r.Orientation.W, r.Orientation.X, r.Orientation.Y, r.Orientation.Z,
		r.Translation[0], r.Translation[1], r.Translation[2],
	}
}

func fromValues(v [numValues]float64) Record {
	return Record{
		Orientation: orientation.Quaternion{W: v[0], X: v[1], Y: v[2], Z: v[3]},
		Translation: mat.Vec3{v[4], v[5], v[6]},
	}
}

// Read parses a record: one ignored header line followed by exactly seven
// whitespace separated numbers on any number of lines.
// Parse failures are returned as *CorruptError with an empty key. Values
// are not range checked: NaN and Inf parse, and are rejected when the
// record is turned into a transform.
func Read(r io.Reader) (Record, error) {
	s := bufio.NewScanner(r)
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return Record{}, err
		}
		return Record{}, &CorruptError{Reason: "empty file"}
	}

	var vals []float64
	for s.Scan() {
		for _, f := range strings.Fields(s.Text()) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return Record{}, &CorruptError{Reason: fmt.Sprintf("invalid number %q", f)}
			}
			vals = append(vals, v)
		}
	}
	if err := s.Err(); err != nil {
		return Record{}, err
	}
	if len(vals) != numValues {
		return Record{}, &CorruptError{Reason: fmt.Sprintf("expected %d values, got %d", numValues, len(vals))}
	}
	var v [numValues]float64
	copy(v[:], vals)
	return fromValues(v), nil
}

// Write serializes the record with shortest round-trip formatting.
func Write(w io.Writer, rec Record) error {
	vals := rec.Values()
	fs := make([]string, len(vals))
	for i, v := range vals {
		fs[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", header, strings.Join(fs, " "))
	return err
}

// ReadFile reads the record stored at path for key.
func ReadFile(path string, key Key) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Record{}, err
	}
	defer f.Close()

	rec, err := Read(f)
	if err != nil {
		var ce *CorruptError
		if errors.As(err, &ce) {
			ce.Key = key
		}
		return Record{}, err
	}
	return rec, nil
}
