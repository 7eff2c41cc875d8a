// Package scan identifies point cloud scans and loads their points.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Scan is a point cloud file. Name is the file name without extension.
type Scan struct {
	Path string
	Name string
}

func New(path string) Scan {
	base := filepath.Base(path)
	return Scan{
		Path: path,
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}

// FromPaths returns scans in the given order.
func FromPaths(paths []string) []Scan {
	scans := make([]Scan, len(paths))
	for i, p := range paths {
		scans[i] = New(p)
	}
	return scans
}

func (s Scan) String() string {
	return s.Name
}

var numberPattern = regexp.MustCompile(`[0-9]+`)

// SequenceNumber returns the first integer in the scan name.
func (s Scan) SequenceNumber() (int, bool) {
	m := numberPattern.FindString(s.Name)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Discover walks dir and returns the files whose base name matches pattern,
// sorted by SequenceNumber. Scans without a number come last.
func Discover(dir string, pattern *regexp.Regexp) ([]Scan, error) {
	var scans []Scan
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !pattern.MatchString(d.Name()) {
			return nil
		}
		scans = append(scans, New(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering scans in %s: %w", dir, err)
	}
	Sort(scans)
	return scans, nil
}

// Sort orders scans by SequenceNumber, then path.
func Sort(scans []Scan) {
	sort.SliceStable(scans, func(i, j int) bool {
		ni, oki := scans[i].SequenceNumber()
		nj, okj := scans[j].SequenceNumber()
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		}
		return scans[i].Path < scans[j].Path
	})
}
